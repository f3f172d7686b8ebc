package openai

import (
	"context"
	"fmt"

	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/llm/base"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Client talks to any OpenAI-compatible chat completions endpoint. Both the
// OpenAI and the Perplexity (sonar) rows of the dispatch table use it.
type Client struct {
	oClient *openai.Client
	model   string
	deps    deps.Deps
}

func CreateClient(spec base.Spec, apiKey string, deps deps.Deps) (base.Client, error) {
	deps.Logger = deps.Logger.With(logger.CALLER, "openai client", logger.PROVIDER, spec.Name)
	deps.Logger.Debug("Creating openai client")
	if spec.BaseURL == "" {
		return nil, errors.Errorf("provider %s has no base url", spec.Name)
	}
	oClient := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(spec.BaseURL),
		option.WithMaxRetries(0),
	)
	return &Client{oClient: &oClient, model: spec.Model, deps: deps}, nil
}

func (client *Client) Complete(ctx context.Context, messages []base.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(client.model),
		Messages:    lo.Map(messages, func(m base.Message, _ int) openai.ChatCompletionMessageParamUnion { return toParam(m) }),
		MaxTokens:   openai.Int(base.MaxTokens),
		Temperature: openai.Float(base.Temperature),
	}

	client.deps.Logger.With("messages", len(messages)).Debug("requesting completion")
	resp, err := client.oClient.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("requesting completion: %w", errors.WithStack(err))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion has no choices")
	}
	client.deps.Logger.With("finish_reason", resp.Choices[0].FinishReason).Debug("completion received")
	return resp.Choices[0].Message.Content, nil
}

func toParam(m base.Message) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case base.RoleSystem:
		return openai.SystemMessage(m.Content)
	case base.RoleAssistant:
		return openai.AssistantMessage(m.Content)
	default:
		return openai.UserMessage(m.Content)
	}
}
