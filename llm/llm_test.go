package llm

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/llm/base"
	"github.com/EPecherkin/ai-rm/logger"
)

type echoClient struct{ spec base.Spec }

func (c echoClient) Complete(ctx context.Context, messages []base.Message) (string, error) {
	return c.spec.Model, nil
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	if got := table.Names(); !reflect.DeepEqual(got, []string{"gemini", "openai", "sonar"}) {
		t.Errorf("Names() = %v", got)
	}
	if table["openai"].Model != "gpt-4o-mini" || table["openai"].BaseURL != "https://api.openai.com/v1/" {
		t.Errorf("openai row = %+v", table["openai"])
	}
	if table["sonar"].Model != "llama-3.1-sonar-large-128k-online" || table["sonar"].BaseURL != "https://api.perplexity.ai/" {
		t.Errorf("sonar row = %+v", table["sonar"])
	}
}

func TestTableClient(t *testing.T) {
	table := Table{
		"echo": {Model: "echo-1", New: func(spec base.Spec, apiKey string, deps deps.Deps) (base.Client, error) {
			if spec.Name != "echo" {
				t.Errorf("spec name = %q, want filled from key", spec.Name)
			}
			return echoClient{spec: spec}, nil
		}},
	}
	d := deps.Deps{Logger: logger.Discard()}

	client, err := table.Client("echo", "k", d)
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if got, _ := client.Complete(context.Background(), nil); got != "echo-1" {
		t.Errorf("Complete() = %q", got)
	}

	if _, err := table.Client("missing", "k", d); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Client(missing) error = %v, want ErrUnknownProvider", err)
	}
}

func TestWithBaseURL(t *testing.T) {
	table := DefaultTable()
	moved := table.WithBaseURL("sonar", "http://127.0.0.1:9/")
	if moved["sonar"].BaseURL != "http://127.0.0.1:9/" {
		t.Errorf("moved sonar = %+v", moved["sonar"])
	}
	if table["sonar"].BaseURL != "https://api.perplexity.ai/" {
		t.Errorf("original table mutated: %+v", table["sonar"])
	}
}
