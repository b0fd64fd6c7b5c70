package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"document-chat-assistant/internal/config"
	"document-chat-assistant/internal/domain/ports/adapter"
	"document-chat-assistant/internal/domain/ports/repository"
	aiAdapters "document-chat-assistant/internal/infra/adapters/ai"
	"document-chat-assistant/internal/infra/adapters/extract"
	tele "document-chat-assistant/internal/infra/adapters/telegram"
	"document-chat-assistant/internal/infra/logging"
	"document-chat-assistant/internal/infra/metrics"
	red "document-chat-assistant/internal/infra/redis"
	"document-chat-assistant/internal/infra/store"
	"document-chat-assistant/internal/infra/web"
	"document-chat-assistant/internal/infra/worker"
	"document-chat-assistant/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI fallback, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()

	// ---- Session store ----
	var sessions repository.SessionRepository = store.NewMemorySessionRepo()
	if cfg.Redis.Enabled {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		sessions = red.NewSessionRepo(redisClient, cfg.Redis.TTL)
		logger.Info().Dur("ttl", cfg.Redis.TTL).Msg("session store: redis")
	} else {
		logger.Info().Msg("session store: memory")
	}

	// ---- Completion adapter ----
	var ai adapter.CompletionAdapter
	switch {
	case cfg.AI.Provider == "gemini" && cfg.AI.GeminiKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: Gemini")
	case cfg.AI.Provider == "openai" && cfg.AI.OpenAIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: OpenAI")
	case cfg.Runtime.Dev || cfg.AI.Provider == "noop":
		ai = aiAdapters.NewNoopAdapter()
		logger.Warn().Msg("AI adapter: noop (dev)")
	default:
		log.Fatalf("no AI provider configured: set ai.gemini_key or ai.openai_key in %s", *cfgPath)
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.Provider, cfg.AI.ConcurrentLimit)

	// ---- Document extraction ----
	extractor := extract.NewSidecarExtractor(cfg.Extractor.URL, cfg.Extractor.Timeout)
	if !extractor.Healthy(ctx) {
		logger.Warn().Str("url", cfg.Extractor.URL).Msg("extraction sidecar unreachable; PDF uploads will fail until it comes up")
	}

	// ---- Context policy ----
	policy, err := buildContextPolicy(cfg.Context)
	if err != nil {
		log.Fatalf("context policy: %v", err)
	}

	// ---- Use case + frontends ----
	hub := web.NewHub()
	chatUC := usecase.NewChatUseCase(sessions, ai, extractor, usecase.NewAssembler(policy), hub, cfg.AI.DefaultModel, logger)

	pool := worker.NewPool(cfg.Server.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()

	srv := web.NewServer(chatUC, pool, hub, cfg.Extractor.MaxFileBytes, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	if cfg.Telegram.Enabled {
		bot, err := tele.NewBot(&cfg.Telegram, chatUC, logger)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
		go func() {
			if err := bot.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = hub.Shutdown(shutdownCtx)
	_ = server.Shutdown(shutdownCtx)
}

func buildContextPolicy(cfg config.ContextConfig) (usecase.ContextPolicy, error) {
	switch cfg.Policy {
	case "", "full":
		return usecase.FullHistoryPolicy{}, nil
	case "budget":
		return usecase.NewTokenBudgetPolicy(cfg.Encoding, cfg.TokenBudget)
	}
	return nil, fmt.Errorf("unknown context.policy %q", cfg.Policy)
}
