// The conversation worker consumes queued WhatsApp turns from SQS. It exists
// for deployments where the webhook and the turn pipeline scale separately;
// with the in-memory queue the api binary runs the worker in-process instead.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/coopentrega/recruiting-ai-platform/cmd/mainconfig"
	"github.com/coopentrega/recruiting-ai-platform/internal/app/bootstrap"
	appconfig "github.com/coopentrega/recruiting-ai-platform/internal/config"
	"github.com/coopentrega/recruiting-ai-platform/internal/conversation"
	"github.com/coopentrega/recruiting-ai-platform/internal/observability/metrics"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.UseMemoryQueue || cfg.TurnQueueURL == "" {
		logger.Error("conversation worker requires TURN_QUEUE_URL and a shared SQS queue")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

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

	workerOpts := []conversation.WorkerOption{
		conversation.WithWorkerCount(cfg.WorkerCount),
		conversation.WithEventLedger(messageStore),
		conversation.WithMetrics(metrics.NewFunnelMetrics(prometheus.NewRegistry())),
	}
	if sessions != nil {
		workerOpts = append(workerOpts, conversation.WithSessionMemory(sessions))
	}
	worker := conversation.NewWorker(queue, engine, normalizer, renderer, logger, workerOpts...)
	worker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down conversation worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("conversation worker stopped")
	case <-doneCtx.Done():
		logger.Error("conversation worker shutdown timed out", "error", doneCtx.Err())
	}
}
