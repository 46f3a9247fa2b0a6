package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	AppName     = "fashion-analyzer"
	EnvFileName = "config.env"

	DefaultDirectory       = "images"
	DefaultMaxOutputTokens = 300
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is everything the analyzer needs from the environment. It is built
// once in main and passed down explicitly.
type Config struct {
	Provider        string
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int
	DetectMIME      bool
	CacheDBPath     string
	Timeout         time.Duration
	LogLevel        zerolog.Level
}

// EnvFilePath returns the path of the env file in the user's config directory.
func EnvFilePath() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configBase, AppName, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment take precedence.
func LoadEnvFile() {
	configPath, err := EnvFilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(configPath)
}

// FromEnv builds a Config from environment variables. provider overrides
// FASHION_PROVIDER when non-empty.
func FromEnv(provider string) (*Config, error) {
	return fromLookup(os.Getenv, provider)
}

// DetectMIMEFromEnv reads FASHION_DETECT_MIME on its own, for tools that
// prepare images without building a full Config.
func DetectMIMEFromEnv() (bool, error) {
	return detectMIME(os.Getenv)
}

func detectMIME(getenv func(string) string) (bool, error) {
	v := getenv("FASHION_DETECT_MIME")
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: FASHION_DETECT_MIME must be a boolean, got %q", ErrInvalidConfig, v)
	}
	return b, nil
}

func fromLookup(getenv func(string) string, provider string) (*Config, error) {
	cfg := &Config{
		Provider:        strings.ToLower(strings.TrimSpace(provider)),
		Model:           getenv("FASHION_MODEL"),
		MaxOutputTokens: DefaultMaxOutputTokens,
		CacheDBPath:     getenv("FASHION_CACHE_DB"),
		LogLevel:        zerolog.InfoLevel,
	}

	if cfg.Provider == "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(getenv("FASHION_PROVIDER")))
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		cfg.APIKey = getenv("OPENAI_API_KEY")
		cfg.BaseURL = getenv("OPENAI_BASE_URL")
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrInvalidConfig)
		}
	case ProviderGemini:
		cfg.APIKey = getenv("GEMINI_API_KEY")
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrInvalidConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unknown provider %q (use %s or %s)", ErrInvalidConfig, cfg.Provider, ProviderOpenAI, ProviderGemini)
	}

	if v := getenv("FASHION_MAX_OUTPUT_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%w: FASHION_MAX_OUTPUT_TOKENS must be an integer between 1 and %d, got %q", ErrInvalidConfig, math.MaxInt32, v)
		}
		cfg.MaxOutputTokens = n
	}

	detect, err := detectMIME(getenv)
	if err != nil {
		return nil, err
	}
	cfg.DetectMIME = detect

	if v := getenv("FASHION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: FASHION_TIMEOUT must be a duration like 60s, got %q", ErrInvalidConfig, v)
		}
		cfg.Timeout = d
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("%w: LOG_LEVEL: %w", ErrInvalidConfig, err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}
