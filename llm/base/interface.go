package base

import (
	"context"

	"github.com/EPecherkin/ai-rm/deps"
)

const (
	Temperature = 0.7
	MaxTokens   = 1000
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client sends one ordered conversation and returns the first completion's text.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Factory builds a Client for a provider entry and a secret.
type Factory func(spec Spec, apiKey string, deps deps.Deps) (Client, error)

// Spec is one row of the provider dispatch table.
type Spec struct {
	Name    string
	BaseURL string
	Model   string
	New     Factory
}
