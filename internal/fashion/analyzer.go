package fashion

import (
	"context"
	"fmt"

	"github.com/raine/fashion-analyzer/internal/config"
	"github.com/raine/fashion-analyzer/internal/llm"
	"github.com/raine/fashion-analyzer/internal/storage"
	"github.com/rs/zerolog/log"
)

// NewAnalyzer creates the analyzer selected by cfg.Provider.
func NewAnalyzer(ctx context.Context, cfg *config.Config) (llm.Analyzer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIAnalyzer(llm.OpenAIConfig{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			MaxOutputTokens: int64(cfg.MaxOutputTokens),
		})
	case config.ProviderGemini:
		return llm.NewGeminiAnalyzer(ctx, llm.GeminiConfig{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			MaxOutputTokens: int32(cfg.MaxOutputTokens),
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalidConfig, cfg.Provider)
	}
}

// WithCache wraps analyzer with the SQLite cache at cfg.CacheDBPath. When no
// path is configured the analyzer is returned unchanged. The returned close
// function must be called when done.
func WithCache(analyzer llm.Analyzer, cfg *config.Config) (llm.Analyzer, func() error, error) {
	if cfg.CacheDBPath == "" {
		return analyzer, func() error { return nil }, nil
	}

	store, err := storage.NewSQLiteStore(cfg.CacheDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open analysis cache: %w", err)
	}
	log.Info().Str("dbPath", cfg.CacheDBPath).Msg("analysis caching enabled")

	return llm.NewCachedAnalyzer(analyzer, store), store.Close, nil
}
