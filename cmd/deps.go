package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/ai/gemini"
	"github.com/spigell/job-recommender/internal/ai/groq"
	"github.com/spigell/job-recommender/internal/embedding"
	"github.com/spigell/job-recommender/internal/filtering"
	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/secrets"
)

func newEmbedder(cfg EmbeddingConfig, log *zap.Logger) embedding.Embedder {
	token, err := secrets.Load(secrets.Source{
		Name:  "hugging face api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "HF_API_KEY",
	})
	if err != nil {
		// The inference endpoint accepts anonymous requests.
		log.Warn("embedding requests are not authenticated", zap.Error(err))
	}

	client := embedding.New(log, token)
	if model := strings.TrimSpace(cfg.Model); model != "" {
		client.Model = model
	}
	if apiURL := strings.TrimSpace(cfg.APIURL); apiURL != "" {
		client.APIURL = apiURL
	}

	if cfg.DisableCache {
		return client
	}
	return embedding.NewCache(client, cfg.CacheSize, log)
}

func newJobsClient(cfg JSearchConfig, userAgent string, log *zap.Logger) (*jobs.Client, error) {
	key, err := secrets.Load(secrets.Source{
		Name:  "rapidapi key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "RAPIDAPI_KEY",
	})
	if err != nil {
		return nil, err
	}

	client := jobs.New(log, key, cfg.Host)
	if userAgent != "" {
		client.UserAgent = userAgent
	}
	return client, nil
}

func newGenerator(ctx context.Context, cfg AIConfig, log *zap.Logger) (ai.Generator, error) {
	switch cfg.Provider {
	case "", "groq":
		groqCfg := GroqConfig{}
		if cfg.Groq != nil {
			groqCfg = *cfg.Groq
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "groq api key",
			Value: groqCfg.APIKey,
			File:  groqCfg.APIKeyFile,
			Env:   "GROQ_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.groq.api-key-file or GROQ_API_KEY)", err)
		}

		model := groqCfg.Model
		if model == "" {
			model = groq.DefaultModel
		}

		generator, err := groq.NewGenerator(logger.WithCommonFields(log, "groq", model), groq.Config{
			APIKey:     apiKey,
			BaseURL:    groqCfg.BaseURL,
			Model:      model,
			MaxRetries: groqCfg.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return generator, nil
	case "gemini":
		geminiCfg := GeminiConfig{}
		if cfg.Gemini != nil {
			geminiCfg = *cfg.Gemini
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: geminiCfg.APIKey,
			File:  geminiCfg.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		model := geminiCfg.Model
		if model == "" {
			model = gemini.DefaultModel
		}

		genLogger := logger.WithFields(logger.WithCommonFields(log, "gemini", model),
			zap.Int("ai_retry_attempts", geminiCfg.MaxRetries),
		)
		generator, err := gemini.NewGenerator(ctx, genLogger, apiKey, model, geminiCfg.MaxRetries)
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func newFilters(config *Config, log *zap.Logger) *filtering.Filtering {
	steps := []filtering.Filter{
		filtering.NewDuplicates(),
		filtering.NewExcludedCompanies(config.Filters.ExcludeCompanies),
		filtering.NewTitleKeywords(config.Filters.ExcludeTitleKeywords),
		filtering.NewExcludeFile(config.ExcludeFile),
	}

	f := filtering.New(steps, log)
	if config.Filters.DisableDuplicates {
		f.DisableByName("duplicates", "disabled in config")
	}
	log.Debug("filters configured", zap.Any("filters", f.Describe()))
	return f
}

func logCacheStats(log *zap.Logger, embedder embedding.Embedder) {
	cache, ok := embedder.(*embedding.Cache)
	if !ok {
		return
	}
	hits, misses := cache.Stats()
	log.Debug("embedding cache",
		zap.Int("entries", cache.Len()),
		zap.Int("hits", hits),
		zap.Int("misses", misses),
	)
}
