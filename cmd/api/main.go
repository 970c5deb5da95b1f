package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coopentrega/recruiting-ai-platform/cmd/mainconfig"
	"github.com/coopentrega/recruiting-ai-platform/internal/api/router"
	"github.com/coopentrega/recruiting-ai-platform/internal/app/bootstrap"
	appconfig "github.com/coopentrega/recruiting-ai-platform/internal/config"
	"github.com/coopentrega/recruiting-ai-platform/internal/conversation"
	"github.com/coopentrega/recruiting-ai-platform/internal/fulfillment"
	"github.com/coopentrega/recruiting-ai-platform/internal/observability/metrics"
	"github.com/coopentrega/recruiting-ai-platform/internal/whatsapp"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting recruiting-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	funnelMetrics := metrics.NewFunnelMetrics(registry)

	funnelRouter, err := bootstrap.BuildFunnelRouter(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to build funnel router", "error", err)
		os.Exit(1)
	}
	funnelRouter = funnelRouter.WithMetrics(funnelMetrics)

	engine, err := bootstrap.BuildEngine(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect dialog engine", "error", err)
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()

	waClient, renderer := bootstrap.BuildDeliveryStack(cfg, logger)
	normalizer := bootstrap.BuildNormalizer(ctx, cfg, waClient, logger)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	sessions := bootstrap.BuildSessionStore(redisClient, cfg, logger)
	messageStore := bootstrap.BuildMessageStore(ctx, cfg, logger)

	queue := bootstrap.BuildQueue(cfg, awsCfg, logger)
	publisher := conversation.NewPublisher(queue, logger)

	workerOpts := []conversation.WorkerOption{
		conversation.WithWorkerCount(cfg.WorkerCount),
		conversation.WithEventLedger(messageStore),
		conversation.WithMetrics(funnelMetrics),
	}
	if sessions != nil {
		workerOpts = append(workerOpts, conversation.WithSessionMemory(sessions))
	}
	worker := conversation.NewWorker(queue, engine, normalizer, renderer, logger, workerOpts...)
	worker.Start(ctx)

	webhook := whatsapp.NewWebhookHandler(cfg.WhatsAppVerifyToken, func(ev whatsapp.InboundEvent) {
		if err := publisher.EnqueueTurn(ctx, ev); err != nil {
			logger.Error("failed to enqueue turn", "error", err, "from", ev.Message.From)
		}
	}, logger)

	r := router.New(&router.Config{
		Logger:            logger,
		WhatsAppWebhook:   webhook,
		Fulfillment:       fulfillment.NewHandler(funnelRouter, logger),
		FulfillmentSecret: cfg.FulfillmentSecret,
		MetricsHandler:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	worker.Wait()

	logger.Info("server stopped")
}
