package chatter

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/EPecherkin/ai-rm/config"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
)

// Credentials are loaded once per session and reused across resets.
type Credentials struct {
	Provider string
	Keys     map[string]string
	// Source names where the credentials came from.
	Source string
}

// Key is the secret of the selected provider.
func (creds Credentials) Key() string {
	return creds.Keys[creds.Provider]
}

// Placeholder reports whether the selected secret is one of the static
// fallback strings.
func (creds Credentials) Placeholder() bool {
	key := creds.Key()
	return key == "" || key == config.FallbackOpenAiApiKey || key == config.FallbackSonarApiKey
}

// Source is one link of the credential fallback chain.
type Source interface {
	Name() string
	Load(ctx context.Context) (config.Document, error)
}

// HTTPSource reads the document served by the config endpoint.
type HTTPSource struct {
	Client *http.Client
	URL    string
}

func (source HTTPSource) Name() string {
	return "http"
}

func (source HTTPSource) Load(ctx context.Context) (config.Document, error) {
	client := source.Client
	if client == nil {
		client = http.DefaultClient
	}
	_, doc, err := config.Fetch(ctx, client, source.URL)
	return doc, err
}

// BucketSource reads the bundled document from a blob bucket.
type BucketSource struct {
	Bucket *blob.Bucket
}

func (source BucketSource) Name() string {
	return "bundle"
}

func (source BucketSource) Load(ctx context.Context) (config.Document, error) {
	if source.Bucket == nil {
		return config.Document{}, errors.New("no bundle bucket")
	}
	return config.ReadBundle(ctx, source.Bucket)
}

const placeholderSource = "placeholder"

// LoadCredentials walks the sources in order and settles on the first that
// answers. When all fail, the static placeholders are used. It never fails.
func LoadCredentials(ctx context.Context, sources []Source, lgr *slog.Logger) Credentials {
	for _, source := range sources {
		doc, err := source.Load(ctx)
		if err != nil {
			lgr.With(logger.ERROR, err).With("source", source.Name()).Warn("config source unavailable")
			continue
		}
		creds := fromDocument(doc, source.Name())
		lgr.With(logger.PROVIDER, creds.Provider).With("source", source.Name()).Info("configuration loaded")
		return creds
	}

	lgr.Warn("no config source answered, using placeholder values")
	return Credentials{
		Provider: config.DefaultProvider,
		Keys: map[string]string{
			"openai": config.FallbackOpenAiApiKey,
			"sonar":  config.FallbackSonarApiKey,
		},
		Source: placeholderSource,
	}
}

func fromDocument(doc config.Document, source string) Credentials {
	provider := doc.Provider
	if provider == "" {
		provider = config.DefaultProvider
	}
	return Credentials{Provider: provider, Keys: doc.Keys(), Source: source}
}
