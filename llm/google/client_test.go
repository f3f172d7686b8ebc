package google

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/llm/base"
	"github.com/EPecherkin/ai-rm/logger"
)

func TestCompleteMovesSystemPrompt(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Selamat pagi"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	spec := base.Spec{Name: "gemini", BaseURL: srv.URL + "/", Model: "gemini-1.5-flash"}
	client, err := CreateClient(spec, "gem-key", deps.Deps{Logger: logger.Discard()})
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}

	text, err := client.Complete(context.Background(), []base.Message{
		{Role: base.RoleSystem, Content: "persona"},
		{Role: base.RoleUser, Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "Selamat pagi" {
		t.Errorf("Complete() = %q", text)
	}
	if !strings.Contains(body, "systemInstruction") || !strings.Contains(body, "persona") {
		t.Errorf("request body lacks system instruction: %s", body)
	}
	if !strings.Contains(body, `"maxOutputTokens":1000`) {
		t.Errorf("request body lacks max tokens: %s", body)
	}
}
