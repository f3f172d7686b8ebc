package chatter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/EPecherkin/ai-rm/config"
	"github.com/EPecherkin/ai-rm/db"
	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/llm"
	"github.com/EPecherkin/ai-rm/llm/base"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/EPecherkin/ai-rm/prompts"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const testSystemPrompt = "You are a relationship manager."

type staticSource struct {
	doc config.Document
	err error
}

func (source staticSource) Name() string { return "static" }

func (source staticSource) Load(ctx context.Context) (config.Document, error) {
	return source.doc, source.err
}

var failingSource = staticSource{err: errors.New("connection refused")}

var liveDocument = config.Document{OpenAI: "sk-live-0123456789abcdefghij", Sonar: "pplx-live", Provider: "openai"}

// fakeProvider records every conversation it is sent. When gate is set, each
// call signals started and then blocks until gate yields.
type fakeProvider struct {
	mu      sync.Mutex
	calls   [][]base.Message
	keys    []string
	reply   string
	err     error
	started chan struct{}
	gate    chan struct{}
}

func (provider *fakeProvider) Complete(ctx context.Context, messages []base.Message) (string, error) {
	provider.mu.Lock()
	provider.calls = append(provider.calls, messages)
	provider.mu.Unlock()
	if provider.gate != nil {
		provider.started <- struct{}{}
		<-provider.gate
	}
	return provider.reply, provider.err
}

func (provider *fakeProvider) table() llm.Table {
	factory := func(spec base.Spec, apiKey string, deps deps.Deps) (base.Client, error) {
		provider.mu.Lock()
		provider.keys = append(provider.keys, apiKey)
		provider.mu.Unlock()
		return provider, nil
	}
	return llm.Table{
		"openai": {Name: "openai", New: factory},
		"sonar":  {Name: "sonar", New: factory},
	}
}

func (provider *fakeProvider) callCount() int {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	return len(provider.calls)
}

func (provider *fakeProvider) lastCall() []base.Message {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	if len(provider.calls) == 0 {
		return nil
	}
	return provider.calls[len(provider.calls)-1]
}

func testScript(t *testing.T) *prompts.Script {
	t.Helper()
	script, err := prompts.LoadScript()
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	return script
}

func testStorage(t *testing.T) *db.Storage {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbc, err := db.NewConnection(fmt.Sprintf("file:chatter_%s_%s?mode=memory&cache=shared", name, uuid.NewString()), logger.Discard())
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	sqlDB, err := dbc.DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	// a named shared-cache database lives until its last connection closes
	t.Cleanup(func() { sqlDB.Close() })
	return db.NewStorage(dbc)
}

func testOptions(t *testing.T, provider *fakeProvider, sources ...Source) Options {
	t.Helper()
	return Options{
		Providers:    provider.table(),
		Sources:      sources,
		Storage:      testStorage(t),
		Script:       testScript(t),
		SystemPrompt: testSystemPrompt,
		Pacer:        InstantPacer{},
	}
}

func testDeps() deps.Deps {
	return deps.Deps{Logger: logger.Discard()}
}

// readySession starts a session and plays the opening script to the end.
func readySession(t *testing.T, opts Options) *Session {
	t.Helper()
	ctx := context.Background()
	session := NewSession(opts, nil, testDeps())
	if err := session.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	session.Play(ctx)
	if state := session.State(); state != StateReady {
		t.Fatalf("state after opening script = %s, want ready", state)
	}
	return session
}

func roles(messages []base.Message) string {
	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = string(m.Role)
	}
	return strings.Join(parts, ",")
}
