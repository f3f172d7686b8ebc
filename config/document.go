package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// Document is the configuration object handed to chat sessions.
type Document struct {
	OpenAI   string `json:"openai"`
	Sonar    string `json:"sonar"`
	Gemini   string `json:"gemini,omitempty"`
	Provider string `json:"provider"`
}

// Expose builds the served document from the environment, substituting
// fallbacks for unset keys. Provider is always DefaultProvider.
func Expose() Document {
	doc := Document{
		OpenAI:   OpenAiApiKey(),
		Sonar:    SonarApiKey(),
		Gemini:   GeminiApiKey(),
		Provider: DefaultProvider,
	}
	if doc.OpenAI == "" {
		doc.OpenAI = FallbackOpenAiApiKey
	}
	if doc.Sonar == "" {
		doc.Sonar = FallbackSonarApiKey
	}
	return doc
}

// Keys maps provider names to their secrets, skipping empty ones.
func (doc Document) Keys() map[string]string {
	keys := map[string]string{}
	if doc.OpenAI != "" {
		keys["openai"] = doc.OpenAI
	}
	if doc.Sonar != "" {
		keys["sonar"] = doc.Sonar
	}
	if doc.Gemini != "" {
		keys["gemini"] = doc.Gemini
	}
	return keys
}

// Fetch GETs a config document. A non-200 status is returned together with
// an error; the body is decoded regardless so callers can print it.
func Fetch(ctx context.Context, client *http.Client, url string) (int, Document, error) {
	var doc Document
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, doc, fmt.Errorf("creating config request: %w", errors.WithStack(err))
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, doc, fmt.Errorf("requesting config: %w", errors.WithStack(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, doc, fmt.Errorf("reading config body: %w", errors.WithStack(err))
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return resp.StatusCode, doc, fmt.Errorf("parsing config body: %w", errors.WithStack(err))
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, doc, errors.Errorf("config endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, doc, nil
}

// Report is the verdict of the check utility.
type Report struct {
	Provider         string
	OpenAIPresent    bool
	OpenAILengthOK   bool
	SonarPresent     bool
	SonarLengthOK    bool
	OpenAIConfigured bool
}

const minKeyLength = 20

// Inspect applies the presence/length heuristic to a fetched document.
func Inspect(doc Document) Report {
	return Report{
		Provider:         doc.Provider,
		OpenAIPresent:    doc.OpenAI != "",
		OpenAILengthOK:   len(doc.OpenAI) > minKeyLength,
		SonarPresent:     doc.Sonar != "",
		SonarLengthOK:    len(doc.Sonar) > minKeyLength,
		OpenAIConfigured: doc.OpenAI != "" && doc.OpenAI != FallbackOpenAiApiKey && len(doc.OpenAI) > minKeyLength,
	}
}

// Verdict renders a key line the way the check command prints it.
func Verdict(present, lengthOK bool) string {
	switch {
	case !present:
		return "missing"
	case !lengthOK:
		return "too short"
	default:
		return "valid length"
	}
}
