package conversation

import (
	"context"
	"fmt"

	"github.com/coopentrega/recruiting-ai-platform/internal/whatsapp"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// Publisher enqueues inbound events for asynchronous processing so the
// webhook can acknowledge immediately.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// EnqueueTurn publishes one inbound event.
func (p *Publisher) EnqueueTurn(ctx context.Context, ev whatsapp.InboundEvent) error {
	if ctx == nil {
		ctx = context.Background()
	}
	job, body, err := encodeJob(turnJob{
		ID:          ev.Message.ID,
		ProfileName: ev.ProfileName,
		Message:     ev.Message,
	})
	if err != nil {
		return err
	}
	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("conversation: enqueue turn: %w", err)
	}
	p.logger.Debug("turn enqueued", "job_id", job.ID, "from", ev.Message.From, "type", ev.Message.Type)
	return nil
}
