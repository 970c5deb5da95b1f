package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coopentrega/recruiting-ai-platform/internal/funnel"
	"github.com/coopentrega/recruiting-ai-platform/internal/messaging"
	"github.com/coopentrega/recruiting-ai-platform/internal/nlu"
	"github.com/coopentrega/recruiting-ai-platform/internal/observability/metrics"
	"github.com/coopentrega/recruiting-ai-platform/internal/whatsapp"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// turnEngine is the one-call-per-turn dialog engine boundary.
type turnEngine interface {
	DetectTurn(ctx context.Context, sessionID, text string, sideParams map[string]any) (*nlu.TurnResult, error)
}

type turnNormalizer interface {
	Normalize(ctx context.Context, msg whatsapp.InboundMessage) whatsapp.Turn
}

// sessionMemory is the best-effort cross-turn candidate memory.
type sessionMemory interface {
	Get(ctx context.Context, phone string) funnel.Params
	Merge(ctx context.Context, phone string, patch funnel.Params) funnel.Params
}

type replyDeliverer interface {
	Deliver(ctx context.Context, to string, msgs []funnel.Message) error
}

// eventLedger persists the dedupe ledger and the conversation log.
type eventLedger interface {
	MarkEventProcessed(ctx context.Context, q messaging.Querier, eventID string) (bool, error)
	InsertMessage(ctx context.Context, q messaging.Querier, rec messaging.MessageRecord) (uuid.UUID, error)
}

const (
	defaultWorkerCount = 2
	defaultWaitSeconds = 2
	defaultBatchSize   = 5
	maxWaitSeconds     = 20
	maxBatchSize       = 10

	deleteTimeout = 5 * time.Second
)

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	sessions         sessionMemory
	ledger           eventLedger
	metrics          *metrics.FunnelMetrics
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the SQS long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxBatchSize {
			size = maxBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// WithSessionMemory enables cross-turn candidate memory.
func WithSessionMemory(sessions sessionMemory) WorkerOption {
	return func(cfg *workerConfig) { cfg.sessions = sessions }
}

// WithEventLedger enables inbound dedupe and the conversation log.
func WithEventLedger(ledger *messaging.Store) WorkerOption {
	return func(cfg *workerConfig) {
		if ledger != nil {
			cfg.ledger = ledger
		}
	}
}

// WithMetrics attaches funnel metrics.
func WithMetrics(m *metrics.FunnelMetrics) WorkerOption {
	return func(cfg *workerConfig) { cfg.metrics = m }
}

// Worker consumes queued turns and runs them through the pipeline.
type Worker struct {
	queue      Queue
	engine     turnEngine
	normalizer turnNormalizer
	renderer   replyDeliverer
	sessions   sessionMemory
	ledger     eventLedger
	metrics    *metrics.FunnelMetrics
	logger     *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

// NewWorker creates a worker over the given queue and pipeline stages.
func NewWorker(queue Queue, engine turnEngine, normalizer turnNormalizer, renderer replyDeliverer, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if engine == nil {
		panic("conversation: engine cannot be nil")
	}
	if normalizer == nil {
		panic("conversation: normalizer cannot be nil")
	}
	if renderer == nil {
		panic("conversation: renderer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{
		queue:      queue,
		engine:     engine,
		normalizer: normalizer,
		renderer:   renderer,
		sessions:   cfg.sessions,
		ledger:     cfg.ledger,
		metrics:    cfg.metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Start launches the consumer goroutines. It returns immediately; use Wait
// for shutdown.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.run(ctx)
		}()
	}
}

// Wait blocks until all consumers have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		msgs, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue receive failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		for _, msg := range msgs {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg QueueMessage) {
	job, err := decodeJob(msg.Body)
	if err != nil {
		w.logger.Error("undecodable turn job, dropping", "error", err, "queue_message_id", msg.ID)
		w.delete(msg)
		return
	}
	if err := w.processTurn(ctx, job); err != nil {
		w.logger.Error("turn processing failed", "error", err, "job_id", job.ID, "from", job.Message.From)
	}
	// Turn failures are not retried: the candidate simply sends the next
	// message, and replays against the dialog engine would double-send.
	w.delete(msg)
}

func (w *Worker) delete(msg QueueMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Warn("queue delete failed", "error", err, "queue_message_id", msg.ID)
	}
}

func (w *Worker) processTurn(ctx context.Context, job turnJob) error {
	start := time.Now()
	phone := job.Message.From
	if phone == "" {
		w.metrics.ObserveInbound(job.Message.Type, "invalid")
		return fmt.Errorf("conversation: job %s has no sender", job.ID)
	}

	if w.ledger != nil {
		first, err := w.ledger.MarkEventProcessed(ctx, nil, job.Message.ID)
		if err != nil {
			w.logger.Warn("dedupe check failed, processing anyway", "error", err, "job_id", job.ID)
		} else if !first {
			w.metrics.ObserveInbound(job.Message.Type, "duplicate")
			w.logger.Info("duplicate delivery dropped", "job_id", job.ID, "from", phone)
			return nil
		}
	}

	turn := w.normalizer.Normalize(ctx, job.Message)
	w.logMessage(ctx, phone, messaging.DirectionInbound, job.Message.Type, turn.Text, job.Message.ID)

	if turn.DirectReply != "" {
		if err := w.renderer.Deliver(ctx, phone, []funnel.Message{funnel.Text{Body: turn.DirectReply}}); err != nil {
			return fmt.Errorf("conversation: deliver direct reply: %w", err)
		}
		w.logMessage(ctx, phone, messaging.DirectionOutbound, "text", turn.DirectReply, "")
		w.metrics.ObserveInbound(job.Message.Type, "direct_reply")
		return nil
	}

	side := map[string]any{}
	var mem funnel.Params
	if w.sessions != nil {
		mem = w.sessions.Get(ctx, phone)
		for k, v := range mem {
			side[k] = v
		}
	}
	name := job.ProfileName
	if name == "" {
		name = mem.String(funnel.KeyName)
	}
	if name != "" {
		side[funnel.KeyName] = name
	}
	side[funnel.KeyPhone] = phone
	for k, v := range turn.Side {
		side[k] = v
	}

	result, err := w.engine.DetectTurn(ctx, phone, turn.Text, side)
	if err != nil {
		w.metrics.ObserveInbound(job.Message.Type, "engine_error")
		return fmt.Errorf("conversation: engine turn: %w", err)
	}

	if w.sessions != nil && len(result.Parameters) > 0 {
		w.sessions.Merge(ctx, phone, funnel.Params(result.Parameters))
	}

	if err := w.renderer.Deliver(ctx, phone, result.Messages); err != nil {
		w.metrics.ObserveOutbound("mixed", "failed")
		return fmt.Errorf("conversation: deliver replies: %w", err)
	}
	for _, m := range result.Messages {
		kind, body := describeMessage(m)
		w.logMessage(ctx, phone, messaging.DirectionOutbound, kind, body, "")
		w.metrics.ObserveOutbound(kind, "sent")
	}

	w.metrics.ObserveInbound(job.Message.Type, "processed")
	w.metrics.ObserveTurnLatency(time.Since(start).Seconds())
	return nil
}

func (w *Worker) logMessage(ctx context.Context, phone, direction, kind, body, eventID string) {
	if w.ledger == nil {
		return
	}
	_, err := w.ledger.InsertMessage(ctx, nil, messaging.MessageRecord{
		Phone:     phone,
		Direction: direction,
		Kind:      kind,
		Body:      body,
		EventID:   eventID,
	})
	if err != nil {
		w.logger.Warn("conversation log write failed", "error", err, "phone", phone)
	}
}

func describeMessage(m funnel.Message) (kind, body string) {
	switch msg := m.(type) {
	case funnel.Text:
		return "text", msg.Body
	case funnel.ChoiceMenu:
		return "buttons", msg.Body
	case funnel.ListMenu:
		return "list", msg.Body
	}
	return "unknown", ""
}
