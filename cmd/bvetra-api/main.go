// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bvetra/internal/ai"
	"bvetra/internal/config"
	httptransport "bvetra/internal/http"
	"bvetra/internal/infra"
	"bvetra/internal/maps"
	"bvetra/internal/modules/chat"
	"bvetra/internal/modules/dispatch"
	"bvetra/internal/modules/quota"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.IsProduction())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store chat.Store = chat.NewMemoryStore()
	var quotaSvc *quota.Service
	if cfg.Redis.Addr != "" {
		client, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Fatal("redis init", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		store = chat.NewRedisStore(client)
		quotaSvc = quota.NewService(quota.NewStore(client), cfg.AI.QuotaPerMonth)
	} else {
		logger.Warn("BVETRA_REDIS_ADDR not set, sessions are kept in memory")
	}

	var provider ai.Provider
	if cfg.AI.GeminiKey != "" {
		p, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			logger.Fatal("assistant init", zap.Error(err))
		}
		defer p.Close()
		provider = p
	} else {
		logger.Warn("GEMINI_API_KEY not set, chat replies are unavailable")
	}

	var resolver dispatch.AddressResolver
	if cfg.Maps.APIKey != "" {
		r, err := maps.NewResolver(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps init", zap.Error(err))
		}
		resolver = r
	}

	coordinator := dispatch.NewCoordinator(logger, resolver,
		dispatch.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID),
		dispatch.NewBitrix(cfg.Bitrix.WebhookURL),
	)

	chatSvc := chat.NewService(store, provider, coordinator, logger)

	deps := httptransport.RouterDeps{
		Chat:       chatSvc,
		Dispatcher: coordinator,
		Log:        logger,
		Production: cfg.IsProduction(),
	}
	if quotaSvc != nil {
		deps.Quota = quotaSvc
	}
	router := httptransport.NewRouter(deps)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
}
