package chatter

import (
	"context"
	"sync"
	"time"

	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/EPecherkin/ai-rm/messenger/base"
	"github.com/pkg/errors"
)

const ResetCommand = "reset"

// Chatter owns the live sessions.
type Chatter struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
	// chats maps a messenger chat to its session
	chats map[string]*Session

	deps deps.Deps
}

func NewChatter(opts Options, deps deps.Deps) *Chatter {
	deps.Logger = deps.Logger.With(logger.CALLER, "chatter")
	deps.Logger.Debug("Creating chatter")
	return &Chatter{opts: opts, sessions: map[string]*Session{}, chats: map[string]*Session{}, deps: deps}
}

// NewSession registers a session without starting it.
func (chatter *Chatter) NewSession(onEntry func(Entry)) *Session {
	session := NewSession(chatter.opts, onEntry, chatter.deps)
	chatter.mu.Lock()
	chatter.sessions[session.ID()] = session
	chatter.mu.Unlock()
	return session
}

// Open registers a session, then starts it and plays the opening script in
// the background. ctx bounds the background work, not the caller.
func (chatter *Chatter) Open(ctx context.Context, onEntry func(Entry)) *Session {
	session := chatter.NewSession(onEntry)
	go chatter.goStart(ctx, session)
	return session
}

func (chatter *Chatter) goStart(ctx context.Context, session *Session) {
	defer func() {
		if err := recover(); err != nil {
			chatter.deps.Logger.With(logger.ERROR, err).With(logger.SESSION_ID, session.ID()).Error("panic in goStart")
		}
	}()
	if err := session.Start(ctx); err != nil {
		chatter.deps.Logger.With(logger.ERROR, err).With(logger.SESSION_ID, session.ID()).Error("Failed to start session")
		return
	}
	session.Play(ctx)
}

func (chatter *Chatter) Get(id string) (*Session, error) {
	chatter.mu.RLock()
	defer chatter.mu.RUnlock()
	session, ok := chatter.sessions[id]
	if !ok {
		return nil, errors.WithStack(ErrSessionNotFound)
	}
	return session, nil
}

func (chatter *Chatter) Len() int {
	chatter.mu.RLock()
	defer chatter.mu.RUnlock()
	return len(chatter.sessions)
}

// Evict closes and forgets every session idle since before cutoff. Sessions
// waiting on a provider are left alone.
func (chatter *Chatter) Evict(ctx context.Context, cutoff time.Time) int {
	chatter.mu.Lock()
	var evicted []*Session
	for id, session := range chatter.sessions {
		if session.State() == StateTyping || !session.LastActive().Before(cutoff) {
			continue
		}
		evicted = append(evicted, session)
		delete(chatter.sessions, id)
	}
	for chatKey, session := range chatter.chats {
		if _, ok := chatter.sessions[session.ID()]; !ok {
			delete(chatter.chats, chatKey)
		}
	}
	chatter.mu.Unlock()

	for _, session := range evicted {
		session.Close(ctx)
	}
	if len(evicted) > 0 {
		chatter.deps.Logger.With("evicted", len(evicted)).Info("Evicted idle sessions")
	}
	return len(evicted)
}

// GoSweep evicts sessions idle for longer than ttl every interval until ctx
// is done.
func (chatter *Chatter) GoSweep(ctx context.Context, interval time.Duration, ttl time.Duration) {
	defer func() {
		if err := recover(); err != nil {
			chatter.deps.Logger.With(logger.ERROR, err).Error("panic in GoSweep")
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			chatter.Evict(ctx, time.Now().Add(-ttl))
		case <-ctx.Done():
			return
		}
	}
}

// chat returns the session of a messenger chat, opening one when the chat is
// new or its session was evicted.
func (chatter *Chatter) chat(ctx context.Context, msgc base.Client, chatKey string) *Session {
	chatter.mu.RLock()
	session, ok := chatter.chats[chatKey]
	chatter.mu.RUnlock()
	if ok {
		return session
	}

	session = chatter.Open(ctx, chatter.deliverer(ctx, msgc, chatKey))
	chatter.mu.Lock()
	chatter.chats[chatKey] = session
	chatter.mu.Unlock()
	return session
}

// Run serves a messenger: every chat gets its own session, replies are
// delivered back as plain text.
func (chatter *Chatter) Run(ctx context.Context, msgc base.Client) {
	chatter.deps.Logger.Debug("Running chatter")

	go msgc.GoTalk(ctx)
	for {
		select {
		case update, ok := <-msgc.Updates():
			if !ok {
				chatter.deps.Logger.Info("Messenger closed updates")
				return
			}
			session := chatter.chat(ctx, msgc, update.ChatKey)
			go chatter.goHandleUpdate(ctx, msgc, session, update)
		case <-ctx.Done():
			chatter.deps.Logger.Info("Chatter update wait interrupted")
			return
		}
	}
}

func (chatter *Chatter) goHandleUpdate(ctx context.Context, msgc base.Client, session *Session, update base.Update) {
	lgr := chatter.deps.Logger.With(logger.SESSION_ID, session.ID())
	defer func() {
		if err := recover(); err != nil {
			lgr.With(logger.ERROR, err).Error("panic in goHandleUpdate")
		}
	}()

	switch {
	case update.Command == ResetCommand:
		if err := session.Reset(ctx); err != nil {
			lgr.With(logger.ERROR, err).Warn("reset refused")
			return
		}
		session.Play(ctx)
	case update.Command != "":
		lgr.With("command", update.Command).Debug("ignoring command")
	default:
		chatter.submitWhenIdle(ctx, msgc, session, update)
	}
}

// submitWhenIdle holds a text that arrives while the session is starting or
// typing, tells the chat once, and submits it as soon as the session is idle.
func (chatter *Chatter) submitWhenIdle(ctx context.Context, msgc base.Client, session *Session, update base.Update) {
	lgr := chatter.deps.Logger.With(logger.SESSION_ID, session.ID())
	if !session.Idle() {
		chatter.hold(ctx, msgc, update.ChatKey)
	}
	for {
		if err := session.AwaitIdle(ctx); err != nil {
			lgr.With(logger.ERROR, err).Warn("dropping held text")
			return
		}
		_, err := session.Submit(ctx, update.Text)
		switch {
		case errors.Is(err, ErrBusy), errors.Is(err, ErrNotReady):
			continue
		case err != nil:
			lgr.With(logger.ERROR, err).Debug("submission ignored")
		}
		return
	}
}

func (chatter *Chatter) hold(ctx context.Context, msgc base.Client, chatKey string) {
	if chatter.opts.Script == nil || chatter.opts.Script.Hold == "" {
		return
	}
	if err := msgc.Deliver(ctx, chatKey, chatter.opts.Script.Hold); err != nil {
		chatter.deps.Logger.With(logger.ERROR, err).Error("Failed to deliver hold line")
	}
}

func (chatter *Chatter) deliverer(ctx context.Context, msgc base.Client, chatKey string) func(Entry) {
	return func(entry Entry) {
		if entry.Kind == KindUser {
			return
		}
		if err := msgc.Deliver(ctx, chatKey, entry.Text); err != nil {
			chatter.deps.Logger.With(logger.ERROR, err).Error("Failed to deliver entry")
		}
	}
}
