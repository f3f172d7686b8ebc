package llm

import (
	"fmt"
	"sort"

	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/llm/base"
	"github.com/EPecherkin/ai-rm/llm/google"
	"github.com/EPecherkin/ai-rm/llm/openai"
	"github.com/pkg/errors"
)

type Client = base.Client
type Message = base.Message

var ErrUnknownProvider = errors.New("unknown provider")

// Table maps a provider name to how it is reached.
type Table map[string]base.Spec

// DefaultTable is the production dispatch table.
func DefaultTable() Table {
	return Table{
		"openai": {Name: "openai", BaseURL: "https://api.openai.com/v1/", Model: "gpt-4o-mini", New: openai.CreateClient},
		"sonar":  {Name: "sonar", BaseURL: "https://api.perplexity.ai/", Model: "llama-3.1-sonar-large-128k-online", New: openai.CreateClient},
		"gemini": {Name: "gemini", Model: "gemini-1.5-flash", New: google.CreateClient},
	}
}

// Client builds the client for a provider with the given secret.
func (table Table) Client(provider, apiKey string, deps deps.Deps) (Client, error) {
	spec, ok := table[provider]
	if !ok || spec.New == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if spec.Name == "" {
		spec.Name = provider
	}
	client, err := spec.New(spec, apiKey, deps)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", provider, err)
	}
	return client, nil
}

// Names lists registered providers in a stable order.
func (table Table) Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithBaseURL returns a copy of the table where provider points elsewhere.
func (table Table) WithBaseURL(provider, baseURL string) Table {
	out := make(Table, len(table))
	for name, spec := range table {
		out[name] = spec
	}
	if spec, ok := out[provider]; ok {
		spec.BaseURL = baseURL
		out[provider] = spec
	}
	return out
}
