package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"researchd/internal/adapter/repo"
	"researchd/internal/cache"
	"researchd/internal/extract"
	"researchd/internal/http/handlers"
	httpapi "researchd/internal/http/httpapi"
	"researchd/internal/infra"
	"researchd/internal/jobs"
	"researchd/internal/llm"
	"researchd/internal/pattern"
	"researchd/internal/scholar"
	"researchd/internal/score"
	"researchd/internal/speech"
	"researchd/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := repo.EnsureSchema(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	registry, err := loadRegistry(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load pattern catalog")
	}
	logger.Info().Int("patterns", len(registry.List())).Msg("pattern catalog loaded")

	store, err := storage.NewFileStore(cfg.StoragePath, "")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	router, err := buildRouter(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure model providers")
	}

	var synth speech.Synthesizer
	if cfg.ElevenAPIKey != "" {
		synth, err = speech.NewElevenClient(speech.ElevenOptions{
			APIKey:      cfg.ElevenAPIKey,
			BaseURL:     cfg.ElevenBaseURL,
			MaxChars:    cfg.TTSMaxChars,
			Concurrency: cfg.TTSConcurrency,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure speech synthesis")
		}
	} else {
		logger.Warn().Msg("ELEVEN_API_KEY not set, audio endpoints disabled")
	}

	var searcher scholar.Searcher
	if cfg.SerpAPIKey != "" {
		searcher, err = scholar.NewSerpClient(scholar.SerpOptions{
			APIKey:  cfg.SerpAPIKey,
			BaseURL: cfg.SerpAPIBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure related search")
		}
	} else {
		logger.Warn().Msg("SERPAPI_API_KEY not set, related search disabled")
	}

	manager := jobs.NewManager(jobs.Options{
		Composer: pattern.NewComposer(registry),
		Scorer: score.NewScorer(score.Options{
			LengthFloor: cfg.ScoreLengthFloor,
			Threshold:   cfg.ScoreAcceptThreshold,
		}),
		Router:    router,
		Results:   cache.New(),
		Audio:     cache.New(),
		Store:     store,
		Extractor: extract.NewService(),
		Documents: repo.NewDocumentRepository(dbpool),
		Jobs:      repo.NewJobRepository(dbpool),
		Synth:     synth,
		Voice: speech.VoiceParams{
			VoiceID: cfg.ElevenVoiceID,
			ModelID: cfg.ElevenModelID,
		},
		Logger: logger,
	})

	app := &handlers.App{
		Manager:  manager,
		Registry: registry,
		Scholar:  searcher,
		Logger:   logger,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, httpapi.Options{
		DefaultLocale:   cfg.DefaultLocale,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func loadRegistry(cfg *infra.Config) (*pattern.Registry, error) {
	if cfg.PatternDataDir != "" {
		return pattern.LoadDir(cfg.PatternDataDir)
	}
	return pattern.LoadDefault()
}

// buildRouter wires the cost tiers: OpenRouter serves the low tier,
// DeepSeek the high tier.
func buildRouter(cfg *infra.Config, logger infra.Logger) (*llm.Router, error) {
	openRouter, err := llm.NewOpenRouterClient(llm.OpenRouterOptions{
		APIKey:   cfg.OpenRouterAPIKey,
		BaseURL:  cfg.OpenRouterBaseURL,
		Referrer: cfg.OpenRouterReferrer,
		AppName:  cfg.OpenRouterAppName,
	})
	if err != nil {
		return nil, err
	}
	deepSeek, err := llm.NewDeepSeekClient(llm.DeepSeekOptions{
		APIKey:  cfg.DeepSeekAPIKey,
		BaseURL: cfg.DeepSeekBaseURL,
	})
	if err != nil {
		return nil, err
	}

	return llm.NewRouter(llm.RouterOptions{
		Providers: []llm.Provider{openRouter, deepSeek},
		LowProfile: llm.Profile{
			Provider: openRouter.Name(),
			Model:    cfg.OpenRouterModel,
			Tier:     llm.TierLow,
			Timeout:  cfg.LLMTimeout,
		},
		HighProfile: llm.Profile{
			Provider: deepSeek.Name(),
			Model:    cfg.DeepSeekModel,
			Tier:     llm.TierHigh,
			Timeout:  cfg.LLMTimeout,
		},
		MaxRetries:  cfg.LLMMaxRetries,
		BackoffBase: cfg.LLMBackoffBase,
		Logger:      logger,
	}), nil
}
