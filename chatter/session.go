package chatter

import (
	"context"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/EPecherkin/ai-rm/db"
	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/llm"
	"github.com/EPecherkin/ai-rm/llm/base"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/EPecherkin/ai-rm/prompts"
	"github.com/EPecherkin/ai-rm/render"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrEmptyMessage    = errors.New("empty message")
	ErrBusy            = errors.New("session is typing")
	ErrNotReady        = errors.New("session is not ready")
	ErrAlreadyStarted  = errors.New("session already started")
	ErrStale           = errors.New("reply belongs to a reset conversation")
	ErrSessionNotFound = errors.New("session not found")
)

type State int

const (
	StateUninitialized State = iota
	StateAwaitingConfig
	StateReady
	StateTyping
	StateReset
	StateClosed
)

var stateNames = map[State]string{
	StateUninitialized:  "uninitialized",
	StateAwaitingConfig: "awaiting_config",
	StateReady:          "ready",
	StateTyping:         "typing",
	StateReset:          "reset",
	StateClosed:         "closed",
}

func (state State) String() string {
	if name, ok := stateNames[state]; ok {
		return name
	}
	return "unknown"
}

type Kind string

const (
	KindUser      Kind = "user"
	KindAssistant Kind = "assistant"
	KindNotice    Kind = "notice"
)

// Entry is one rendered item of the message view.
type Entry struct {
	Seq  int           `json:"seq"`
	Kind Kind          `json:"kind"`
	Text string        `json:"text"`
	HTML template.HTML `json:"html"`
}

type Snapshot struct {
	ID       string  `json:"id"`
	State    string  `json:"state"`
	Typing   bool    `json:"typing"`
	Notice   bool    `json:"notice"`
	Provider string  `json:"provider,omitempty"`
	Entries  []Entry `json:"entries"`
}

type Options struct {
	Providers    llm.Table
	Sources      []Source
	Storage      *db.Storage
	Script       *prompts.Script
	SystemPrompt string
	Pacer        Pacer
}

// Session is one conversation: credentials, store, rendered view and the
// queue of scripted events. All fields below mu are guarded by it.
type Session struct {
	id      string
	opts    Options
	onEntry func(Entry)

	mu      sync.Mutex
	state   State
	creds   Credentials
	store   Store
	entries []Entry
	seq     int
	queue   []Event
	epoch   int
	stale   chan struct{}
	playing bool
	// changed is closed and replaced whenever state or playing flips
	changed    chan struct{}
	lastActive time.Time

	deps deps.Deps
}

func NewSession(opts Options, onEntry func(Entry), deps deps.Deps) *Session {
	id := uuid.NewString()
	deps.Logger = deps.Logger.With(logger.CALLER, "chatter.Session").With(logger.SESSION_ID, id)
	if opts.Pacer == nil {
		opts.Pacer = RealPacer{}
	}
	if opts.Script == nil {
		opts.Script = &prompts.Script{}
	}
	return &Session{
		id:         id,
		opts:       opts,
		onEntry:    onEntry,
		stale:      make(chan struct{}),
		changed:    make(chan struct{}),
		lastActive: time.Now(),
		deps:       deps,
	}
}

func (session *Session) ID() string {
	return session.id
}

func (session *Session) State() State {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.state
}

func (session *Session) Epoch() int {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.epoch
}

// Messages is a copy of the conversation store.
func (session *Session) Messages() []base.Message {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.store.Messages()
}

// LastActive is the time of the last start, submission, reset or view.
func (session *Session) LastActive() time.Time {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.lastActive
}

func (session *Session) Snapshot() Snapshot {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.lastActive = time.Now()
	entries := make([]Entry, len(session.entries))
	copy(entries, session.entries)
	return Snapshot{
		ID:       session.id,
		State:    session.state.String(),
		Typing:   session.state == StateTyping,
		Notice:   session.creds.Provider != "" && session.creds.Placeholder(),
		Provider: session.creds.Provider,
		Entries:  entries,
	}
}

// Start loads credentials, records them in session storage, goes Ready and
// queues the opening script. Play runs the script.
func (session *Session) Start(ctx context.Context) error {
	session.mu.Lock()
	if session.state != StateUninitialized {
		session.mu.Unlock()
		return ErrAlreadyStarted
	}
	session.lastActive = time.Now()
	session.setState(StateAwaitingConfig)
	session.mu.Unlock()

	creds := LoadCredentials(ctx, session.opts.Sources, session.deps.Logger)
	session.storeCredentials(ctx, creds)

	session.mu.Lock()
	if session.state == StateClosed {
		session.mu.Unlock()
		session.clearCredentials(ctx)
		return ErrNotReady
	}
	session.creds = creds
	var emitted []Entry
	if creds.Placeholder() {
		emitted = append(emitted, session.appendEntry(KindNotice, session.opts.Script.Notice))
	}
	session.setState(StateReady)
	session.enqueueGreetings(session.opts.Script.StartDelay.Duration)
	session.mu.Unlock()

	session.emit(emitted...)
	return nil
}

// Submit sends the user's text to the provider and appends the reply. Text is
// ignored unless the session is Ready. A reply that arrives after a reset is
// dropped and ErrStale returned.
func (session *Session) Submit(ctx context.Context, text string) (Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, ErrEmptyMessage
	}

	session.mu.Lock()
	session.lastActive = time.Now()
	switch session.state {
	case StateReady:
	case StateTyping:
		session.mu.Unlock()
		return Entry{}, ErrBusy
	default:
		session.mu.Unlock()
		return Entry{}, ErrNotReady
	}
	epoch := session.epoch
	stale := session.stale
	creds := session.creds
	userEntry := session.appendMessage(base.RoleUser, text)
	messages := append([]base.Message{{Role: base.RoleSystem, Content: session.opts.SystemPrompt}}, session.store.Messages()...)
	session.setState(StateTyping)
	session.mu.Unlock()
	session.emit(userEntry)

	lgr := session.deps.Logger.With(logger.PROVIDER, creds.Provider).With(logger.EPOCH, epoch)
	reply, err := session.complete(ctx, creds, messages)
	var answer string
	switch {
	case err != nil:
		lgr.With(logger.ERROR, err).Error("Provider call failed")
		answer = session.opts.Script.ApologyFailure
	case strings.TrimSpace(reply) == "":
		lgr.Warn("provider returned an empty reply")
		answer = session.opts.Script.ApologyEmpty
	default:
		answer = reply
		session.pause(ctx, session.opts.Script.ThinkDelay.Duration, stale)
	}

	session.mu.Lock()
	if session.epoch != epoch {
		session.mu.Unlock()
		lgr.Info("discarding reply of a reset conversation")
		return Entry{}, ErrStale
	}
	entry := session.appendMessage(base.RoleAssistant, answer)
	session.setState(StateReady)
	session.mu.Unlock()

	session.emit(entry)
	return entry, nil
}

// Reset starts the conversation over with the cached credentials. Pending
// pauses are interrupted and queued events of the old epoch are dropped.
func (session *Session) Reset(ctx context.Context) error {
	session.mu.Lock()
	switch session.state {
	case StateUninitialized, StateAwaitingConfig, StateClosed:
		session.mu.Unlock()
		return ErrNotReady
	}
	session.lastActive = time.Now()
	session.epoch++
	close(session.stale)
	session.stale = make(chan struct{})
	session.queue = nil
	session.store.Clear()
	session.entries = nil
	session.setState(StateReset)
	epoch := session.epoch
	session.mu.Unlock()

	session.clearCredentials(ctx)

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.epoch != epoch {
		// a later reset took over
		return nil
	}
	session.setState(StateAwaitingConfig)
	session.setState(StateReady)
	session.enqueueGreetings(0)
	return nil
}

// Close ends the session for good: pending pauses are interrupted, the queue
// is dropped and the stored credentials are removed. A reply still in flight
// is discarded as stale.
func (session *Session) Close(ctx context.Context) {
	session.mu.Lock()
	if session.state == StateClosed {
		session.mu.Unlock()
		return
	}
	session.epoch++
	close(session.stale)
	session.stale = make(chan struct{})
	session.queue = nil
	session.setState(StateClosed)
	session.mu.Unlock()

	session.clearCredentials(ctx)
}

// Idle reports whether a submission would be accepted right now.
func (session *Session) Idle() bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.idle()
}

func (session *Session) idle() bool {
	return session.state == StateReady && len(session.queue) == 0 && !session.playing
}

// AwaitIdle blocks until the session is Ready with nothing left to play, so
// a submission would be accepted. A closed session returns ErrNotReady.
func (session *Session) AwaitIdle(ctx context.Context) error {
	for {
		session.mu.Lock()
		switch {
		case session.state == StateClosed:
			session.mu.Unlock()
			return ErrNotReady
		case session.idle():
			session.mu.Unlock()
			return nil
		}
		changed := session.changed
		session.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		}
	}
}

// Play runs queued events until the queue is empty. Only one Play loop runs
// per session; extra calls return at once and their events are picked up by
// the running loop.
func (session *Session) Play(ctx context.Context) {
	session.mu.Lock()
	if session.playing {
		session.mu.Unlock()
		return
	}
	session.playing = true
	session.mu.Unlock()

	defer func() {
		if err := recover(); err != nil {
			session.deps.Logger.With(logger.ERROR, err).Error("panic in Play")
			session.mu.Lock()
			session.stopPlaying()
			session.mu.Unlock()
		}
	}()

	for {
		event, stale, ok := session.next()
		if !ok {
			return
		}
		session.playEvent(ctx, event, stale)
		if ctx.Err() != nil {
			session.mu.Lock()
			session.stopPlaying()
			session.mu.Unlock()
			return
		}
	}
}

// next pops the first event of the current epoch. An empty queue ends the
// loop in the same critical section, so an enqueue can never be missed.
func (session *Session) next() (Event, chan struct{}, bool) {
	session.mu.Lock()
	defer session.mu.Unlock()
	for len(session.queue) > 0 {
		event := session.queue[0]
		session.queue = session.queue[1:]
		if event.Epoch == session.epoch {
			return event, session.stale, true
		}
	}
	session.stopPlaying()
	return Event{}, nil, false
}

func (session *Session) playEvent(ctx context.Context, event Event, stale chan struct{}) {
	if event.Text == "" {
		session.pause(ctx, event.Delay, stale)
		return
	}

	session.mu.Lock()
	marked := session.state == StateReady
	if marked {
		session.setState(StateTyping)
	}
	session.mu.Unlock()

	if session.pause(ctx, event.Delay, stale) {
		session.mu.Lock()
		current := event.Epoch == session.epoch
		var entry Entry
		if current {
			entry = session.appendMessage(base.RoleAssistant, event.Text)
		}
		session.mu.Unlock()
		if current {
			session.emit(entry)
			session.pause(ctx, session.opts.Script.SettleDelay.Duration, stale)
		}
	}

	session.mu.Lock()
	if marked && event.Epoch == session.epoch && session.state == StateTyping {
		session.setState(StateReady)
	}
	session.mu.Unlock()
}

// pause reports false when interrupted by a reset or by ctx.
func (session *Session) pause(ctx context.Context, d time.Duration, stale chan struct{}) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-session.opts.Pacer.After(d):
		return true
	case <-stale:
		return false
	case <-ctx.Done():
		return false
	}
}

func (session *Session) complete(ctx context.Context, creds Credentials, messages []base.Message) (string, error) {
	client, err := session.opts.Providers.Client(creds.Provider, creds.Key(), session.deps)
	if err != nil {
		return "", err
	}
	return client.Complete(ctx, messages)
}

func (session *Session) enqueueGreetings(startDelay time.Duration) {
	if startDelay > 0 {
		session.queue = append(session.queue, Event{Delay: startDelay, Epoch: session.epoch})
	}
	for _, greeting := range session.opts.Script.Greetings {
		session.queue = append(session.queue, Event{Delay: greeting.Delay.Duration, Epoch: session.epoch, Text: greeting.Text})
	}
}

func (session *Session) appendMessage(role base.Role, text string) Entry {
	session.store.Append(role, text)
	kind := KindAssistant
	if role == base.RoleUser {
		kind = KindUser
	}
	return session.appendEntry(kind, text)
}

func (session *Session) appendEntry(kind Kind, text string) Entry {
	session.seq++
	html := render.Message(text)
	if kind == KindNotice {
		html = render.Notice(text)
	}
	entry := Entry{Seq: session.seq, Kind: kind, Text: text, HTML: html}
	session.entries = append(session.entries, entry)
	return entry
}

func (session *Session) setState(state State) {
	session.deps.Logger.With(logger.STATE, state.String()).With(logger.EPOCH, session.epoch).Debug("session state changed")
	session.state = state
	session.notify()
}

func (session *Session) stopPlaying() {
	session.playing = false
	session.notify()
}

func (session *Session) notify() {
	close(session.changed)
	session.changed = make(chan struct{})
}

func (session *Session) emit(entries ...Entry) {
	if session.onEntry == nil {
		return
	}
	for _, entry := range entries {
		session.onEntry(entry)
	}
}

func (session *Session) storeCredentials(ctx context.Context, creds Credentials) {
	if session.opts.Storage == nil {
		return
	}
	if err := session.opts.Storage.SetItem(ctx, session.id, db.KeyProvider, creds.Provider); err != nil {
		session.deps.Logger.With(logger.ERROR, err).Error("Failed to store provider")
	}
	if err := session.opts.Storage.SetItem(ctx, session.id, db.KeyApiKey, creds.Key()); err != nil {
		session.deps.Logger.With(logger.ERROR, err).Error("Failed to store api key")
	}
}

func (session *Session) clearCredentials(ctx context.Context) {
	if session.opts.Storage == nil {
		return
	}
	for _, key := range []string{db.KeyProvider, db.KeyApiKey} {
		if err := session.opts.Storage.RemoveItem(ctx, session.id, key); err != nil {
			session.deps.Logger.With(logger.ERROR, err).With("key", key).Error("Failed to clear session item")
		}
	}
}
