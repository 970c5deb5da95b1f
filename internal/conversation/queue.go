// Package conversation runs the per-turn pipeline: inbound events are queued
// by the webhook, then workers normalize each event, run the dialog engine
// turn, persist session memory and deliver the rendered replies.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/coopentrega/recruiting-ai-platform/internal/whatsapp"
)

// Queue is the transport between the webhook and the turn workers.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// QueueMessage is one raw queue delivery.
type QueueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// turnJob is one queued inbound event.
type turnJob struct {
	ID          string                  `json:"id"`
	ProfileName string                  `json:"profile_name,omitempty"`
	Message     whatsapp.InboundMessage `json:"message"`
}

func encodeJob(job turnJob) (turnJob, string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return turnJob{}, "", fmt.Errorf("conversation: encode job: %w", err)
	}
	return job, string(body), nil
}

func decodeJob(body string) (turnJob, error) {
	var job turnJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return turnJob{}, fmt.Errorf("conversation: decode job: %w", err)
	}
	return job, nil
}
