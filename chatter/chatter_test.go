package chatter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/EPecherkin/ai-rm/messenger/base"
)

type fakeMessenger struct {
	updates chan base.Update

	mu        sync.Mutex
	delivered map[string][]string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{updates: make(chan base.Update), delivered: map[string][]string{}}
}

func (msgc *fakeMessenger) GoTalk(ctx context.Context) {}

func (msgc *fakeMessenger) Updates() <-chan base.Update {
	return msgc.updates
}

func (msgc *fakeMessenger) Deliver(ctx context.Context, chatKey string, text string) error {
	msgc.mu.Lock()
	defer msgc.mu.Unlock()
	msgc.delivered[chatKey] = append(msgc.delivered[chatKey], text)
	return nil
}

func (msgc *fakeMessenger) texts(chatKey string) []string {
	msgc.mu.Lock()
	defer msgc.mu.Unlock()
	return append([]string(nil), msgc.delivered[chatKey]...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOpenAndGet(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	chatter := NewChatter(testOptions(t, provider, staticSource{doc: liveDocument}), testDeps())

	session := chatter.Open(context.Background(), nil)
	got, err := chatter.Get(session.ID())
	if err != nil || got != session {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	waitFor(t, "greetings", func() bool { return len(session.Messages()) == 2 && session.State() == StateReady })

	if _, err := chatter.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(missing) error = %v", err)
	}
	if chatter.Len() != 1 {
		t.Errorf("Len() = %d", chatter.Len())
	}
}

func TestRunServesMessenger(t *testing.T) {
	provider := &fakeProvider{reply: "Selamat siang, Pak Budi"}
	opts := testOptions(t, provider, staticSource{doc: liveDocument})
	chatter := NewChatter(opts, testDeps())
	msgc := newFakeMessenger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go chatter.Run(ctx, msgc)

	msgc.updates <- base.Update{ChatKey: "42", Command: "start"}
	waitFor(t, "greetings delivered", func() bool { return len(msgc.texts("42")) == 2 })
	session := onlySession(t, chatter)
	waitFor(t, "idle", session.Idle)

	msgc.updates <- base.Update{ChatKey: "42", Text: "halo"}
	waitFor(t, "reply delivered", func() bool { return len(msgc.texts("42")) == 3 })
	if got := msgc.texts("42")[2]; got != provider.reply {
		t.Errorf("reply = %q", got)
	}

	msgc.updates <- base.Update{ChatKey: "42", Command: ResetCommand}
	waitFor(t, "greetings after reset", func() bool { return len(msgc.texts("42")) == 5 })
	texts := msgc.texts("42")
	if texts[3] != opts.Script.Greetings[0].Text || texts[4] != opts.Script.Greetings[1].Text {
		t.Errorf("texts after reset = %v", texts[3:])
	}

	if chatter.Len() != 1 {
		t.Errorf("Len() = %d, want one session per chat", chatter.Len())
	}
}

func TestRunHoldsFirstText(t *testing.T) {
	provider := &fakeProvider{reply: "Tentu, Pak Budi"}
	opts := testOptions(t, provider, staticSource{doc: liveDocument})
	chatter := NewChatter(opts, testDeps())
	msgc := newFakeMessenger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go chatter.Run(ctx, msgc)

	msgc.updates <- base.Update{ChatKey: "7", Text: "saya mau beli rumah"}
	waitFor(t, "reply delivered", func() bool {
		texts := msgc.texts("7")
		return len(texts) > 0 && texts[len(texts)-1] == provider.reply
	})

	session := onlySession(t, chatter)
	if got := roles(session.Messages()); got != "assistant,assistant,user,assistant" {
		t.Errorf("roles = %s, want greetings before the held text", got)
	}
	if calls := provider.callCount(); calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
	for _, text := range msgc.texts("7") {
		if text != opts.Script.Hold && text != provider.reply && text != opts.Script.Greetings[0].Text && text != opts.Script.Greetings[1].Text {
			t.Errorf("unexpected delivery %q", text)
		}
	}
}

func TestRunHoldsTextWhileTyping(t *testing.T) {
	provider := &fakeProvider{reply: "ok", started: make(chan struct{}), gate: make(chan struct{})}
	opts := testOptions(t, provider, staticSource{doc: liveDocument})
	chatter := NewChatter(opts, testDeps())
	msgc := newFakeMessenger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go chatter.Run(ctx, msgc)

	msgc.updates <- base.Update{ChatKey: "9", Command: "start"}
	waitFor(t, "greetings delivered", func() bool { return len(msgc.texts("9")) == 2 })
	session := onlySession(t, chatter)
	waitFor(t, "idle", session.Idle)

	msgc.updates <- base.Update{ChatKey: "9", Text: "first"}
	<-provider.started
	msgc.updates <- base.Update{ChatKey: "9", Text: "second"}
	waitFor(t, "hold line", func() bool { return len(msgc.texts("9")) == 3 })
	if got := msgc.texts("9")[2]; got != opts.Script.Hold {
		t.Fatalf("delivery while typing = %q, want the hold line", got)
	}

	provider.gate <- struct{}{}
	<-provider.started
	provider.gate <- struct{}{}
	waitFor(t, "both replies", func() bool { return len(msgc.texts("9")) == 5 })
	if got := roles(session.Messages()); got != "assistant,assistant,user,assistant,user,assistant" {
		t.Errorf("roles = %s", got)
	}
}

func TestEvictIdleSessions(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	opts := testOptions(t, provider, staticSource{doc: liveDocument})
	chatter := NewChatter(opts, testDeps())
	ctx := context.Background()

	idle := chatter.Open(ctx, nil)
	waitFor(t, "idle session ready", idle.Idle)
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)
	active := chatter.Open(ctx, nil)
	waitFor(t, "active session ready", active.Idle)

	if n := chatter.Evict(ctx, cutoff.Add(time.Millisecond)); n != 1 {
		t.Fatalf("Evict() = %d, want 1", n)
	}
	if _, err := chatter.Get(idle.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("evicted session still registered: %v", err)
	}
	if _, err := chatter.Get(active.ID()); err != nil {
		t.Errorf("active session evicted: %v", err)
	}
	if idle.State() != StateClosed {
		t.Errorf("evicted state = %s, want closed", idle.State())
	}
	if items, err := opts.Storage.Items(ctx, idle.ID()); err != nil || len(items) != 0 {
		t.Errorf("evicted session items = %v, %v", items, err)
	}
	if _, err := idle.Submit(ctx, "halo"); !errors.Is(err, ErrNotReady) {
		t.Errorf("Submit() after close error = %v", err)
	}
	if err := idle.Reset(ctx); !errors.Is(err, ErrNotReady) {
		t.Errorf("Reset() after close error = %v", err)
	}
}

func TestRunReopensEvictedChat(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	chatter := NewChatter(testOptions(t, provider, staticSource{doc: liveDocument}), testDeps())
	msgc := newFakeMessenger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go chatter.Run(ctx, msgc)

	msgc.updates <- base.Update{ChatKey: "5", Command: "start"}
	waitFor(t, "greetings delivered", func() bool { return len(msgc.texts("5")) == 2 })
	first := onlySession(t, chatter)
	waitFor(t, "idle", first.Idle)

	chatter.Evict(ctx, time.Now().Add(time.Second))
	if chatter.Len() != 0 {
		t.Fatalf("Len() after evict = %d", chatter.Len())
	}

	msgc.updates <- base.Update{ChatKey: "5", Command: "start"}
	waitFor(t, "greetings of the new session", func() bool { return len(msgc.texts("5")) == 4 })
	if second := onlySession(t, chatter); second == first {
		t.Error("evicted session was reused")
	}
}

func onlySession(t *testing.T, chatter *Chatter) *Session {
	t.Helper()
	chatter.mu.RLock()
	defer chatter.mu.RUnlock()
	for _, session := range chatter.sessions {
		return session
	}
	t.Fatal("no session registered")
	return nil
}
