package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	FallbackOpenAiApiKey = "sk-your-openai-api-key-here"
	FallbackSonarApiKey  = "pplx-your-perplexity-api-key-here"

	// The served provider is never taken from the environment.
	DefaultProvider = "openai"

	DefaultCheckBaseURL = "https://ai-rm-prototype.vercel.app"
)

// Init loads .env (when present) and registers defaults. Values are looked up
// from the environment on every getter call.
func Init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", errors.WithStack(err))
	}

	viper.AutomaticEnv()
	viper.SetDefault("port", "8080")
	viper.SetDefault("config_url", "")
	viper.SetDefault("bundle_bucket", DefaultBundleBucket())
	viper.SetDefault("database_dsn", "file::memory:?cache=shared")
	viper.SetDefault("log_level", "debug")
	viper.SetDefault("submit_rate", 2.0)
	viper.SetDefault("submit_burst", 5)
	viper.SetDefault("pacing", true)
	viper.SetDefault("session_ttl", "30m")
	return nil
}

// DefaultBundleBucket lives under the user cache directory, so a bundle
// written by `ai-rm bundle` is found by the next server run.
func DefaultBundleBucket() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return FileBucketURL(filepath.Join(dir, "ai-rm"))
}

// FileBucketURL is the fileblob URL of dir. The directory is created on open.
func FileBucketURL(dir string) string {
	path := filepath.ToSlash(dir)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path + "?create_dir=true"
}

func OpenAiApiKey() string {
	return strings.TrimSpace(viper.GetString("openai_api_key"))
}

func SonarApiKey() string {
	return strings.TrimSpace(viper.GetString("perplexity_api_key"))
}

func GeminiApiKey() string {
	return strings.TrimSpace(viper.GetString("gemini_api_key"))
}

func TelegramToken() string {
	return viper.GetString("telegram_token")
}

func Port() string {
	return viper.GetString("port")
}

// ConfigURL is where sessions fetch credentials from. Defaults to this
// server's own config endpoint.
func ConfigURL() string {
	if url := viper.GetString("config_url"); url != "" {
		return url
	}
	return fmt.Sprintf("http://localhost:%s/api/config", Port())
}

func BundleBucket() string {
	return viper.GetString("bundle_bucket")
}

func DatabaseDSN() string {
	return viper.GetString("database_dsn")
}

func LogLevel() string {
	return viper.GetString("log_level")
}

func SubmitRate() float64 {
	return viper.GetFloat64("submit_rate")
}

func SubmitBurst() int {
	return viper.GetInt("submit_burst")
}

// SessionTTL is how long an untouched session is kept before it is closed.
func SessionTTL() time.Duration {
	return viper.GetDuration("session_ttl")
}

// Pacing toggles the artificial UI delays of the opening script.
func Pacing() bool {
	return viper.GetBool("pacing")
}
