package google

import (
	"context"
	"fmt"

	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/llm/base"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

type Client struct {
	gClient *genai.Client
	model   string
	deps    deps.Deps
}

func CreateClient(spec base.Spec, apiKey string, deps deps.Deps) (base.Client, error) {
	deps.Logger = deps.Logger.With(logger.CALLER, "gemini client", logger.PROVIDER, spec.Name)
	deps.Logger.Debug("Creating gemini client")

	config := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if spec.BaseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: spec.BaseURL}
	}
	gClient, err := genai.NewClient(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", errors.WithStack(err))
	}
	return &Client{gClient: gClient, model: spec.Model, deps: deps}, nil
}

// Complete moves the system message into SystemInstruction and sends the
// rest as user/model turns.
func (client *Client) Complete(ctx context.Context, messages []base.Message) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](base.Temperature),
		MaxOutputTokens: base.MaxTokens,
	}
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case base.RoleSystem:
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case base.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	client.deps.Logger.With("messages", len(messages)).Debug("requesting completion")
	resp, err := client.gClient.Models.GenerateContent(ctx, client.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", errors.WithStack(err))
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("completion has no candidates")
	}
	return resp.Text(), nil
}
