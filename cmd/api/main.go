package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fitstudio/internal/adapter/repo"
	"fitstudio/internal/auth"
	"fitstudio/internal/domain"
	"fitstudio/internal/http/handlers"
	"fitstudio/internal/http/httpapi"
	"fitstudio/internal/infra"
	"fitstudio/internal/infra/credentials"
	"fitstudio/internal/infra/geoip"
	"fitstudio/internal/middleware"
	"fitstudio/internal/providers/genai"
	"fitstudio/internal/providers/image"
	"fitstudio/internal/providers/video"
	"fitstudio/internal/storage"
	"fitstudio/internal/studio"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The database is optional. Without it the Gemini key comes from the
	// environment only and generation events are not recorded.
	var sqlExec infra.SQLExecutor
	var events domain.EventSink = repo.NopEventSink{}
	var sources []auth.Source
	if cfg.GeminiAPIKey != "" {
		sources = append(sources, auth.StaticSource(cfg.GeminiAPIKey))
	}
	if cfg.DatabaseURL != "" {
		pool, err := infra.OpenPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		sqlExec = runner
		events = repo.NewEventSink(runner)
		store := credentials.NewStore(runner)
		sources = append(sources, auth.SourceFunc(store.GeminiAPIKey))
	}

	gate := auth.NewGate(&logger, sources...)

	client, err := genai.NewClient(genai.Options{
		Credentials: gate,
		BaseURL:     cfg.GeminiBaseURL,
		ImageModel:  cfg.GeminiImageModel,
		VideoModel:  cfg.GeminiVideoModel,
		Logger:      &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build gemini client")
	}

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare artifact storage")
	}

	st := studio.New(studio.Options{
		Gate:     gate,
		Composer: image.NewGeminiComposer(client),
		Animator: video.NewVeoAnimator(client, video.PollPolicy{
			Interval:    cfg.VideoPollInterval,
			MaxInterval: cfg.VideoPollMaxInterval,
			Multiplier:  cfg.VideoPollMultiplier,
			MaxAttempts: cfg.VideoPollMaxAttempts,
			MaxWait:     cfg.VideoPollMaxWait,
			Jitter:      true,
		}, &logger),
		Files:          files,
		Events:         events,
		Logger:         &logger,
		SessionTTL:     cfg.SessionTTL,
		ComposeTimeout: cfg.ComposeTimeout,
	})

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go st.RunJanitor(janitorCtx, cfg.JanitorInterval)

	var country middleware.CountryLookup
	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip lookups disabled")
	} else if resolver != nil {
		if closer, ok := resolver.(io.Closer); ok {
			defer closer.Close()
		}
		country = resolver.CountryCode
	}

	app := &handlers.App{
		Config: cfg,
		Logger: &logger,
		Gate:   gate,
		Studio: st,
		SQL:    sqlExec,
	}
	router := httpapi.NewRouter(app, country)
	server := infra.NewHTTPServer(cfg, router, &logger)

	if err := server.Run(ctx, cfg.ShutdownGrace); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
