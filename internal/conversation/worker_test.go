package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopentrega/recruiting-ai-platform/internal/funnel"
	"github.com/coopentrega/recruiting-ai-platform/internal/messaging"
	"github.com/coopentrega/recruiting-ai-platform/internal/nlu"
	"github.com/coopentrega/recruiting-ai-platform/internal/whatsapp"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

type stubEngine struct {
	mu     sync.Mutex
	calls  []map[string]any
	result *nlu.TurnResult
	err    error
}

func (e *stubEngine) DetectTurn(_ context.Context, _ string, _ string, side map[string]any) (*nlu.TurnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, side)
	if e.err != nil {
		return nil, e.err
	}
	if e.result != nil {
		return e.result, nil
	}
	return &nlu.TurnResult{}, nil
}

type stubSessions struct {
	mu     sync.Mutex
	stored funnel.Params
	merged []funnel.Params
}

func (s *stubSessions) Get(_ context.Context, _ string) funnel.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stored.Clone()
}

func (s *stubSessions) Merge(_ context.Context, _ string, patch funnel.Params) funnel.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merged = append(s.merged, patch)
	return s.stored.Merge(patch)
}

type stubDeliverer struct {
	mu        sync.Mutex
	delivered [][]funnel.Message
	done      chan struct{}
}

func newStubDeliverer() *stubDeliverer {
	return &stubDeliverer{done: make(chan struct{}, 16)}
}

func (d *stubDeliverer) Deliver(_ context.Context, _ string, msgs []funnel.Message) error {
	d.mu.Lock()
	d.delivered = append(d.delivered, msgs)
	d.mu.Unlock()
	d.done <- struct{}{}
	return nil
}

func (d *stubDeliverer) batches() [][]funnel.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]funnel.Message, len(d.delivered))
	copy(out, d.delivered)
	return out
}

type stubLedger struct {
	mu        sync.Mutex
	seen      map[string]bool
	inserted  []messaging.MessageRecord
	markErr   error
	processed chan string
}

func newStubLedger() *stubLedger {
	return &stubLedger{seen: map[string]bool{}, processed: make(chan string, 16)}
}

func (l *stubLedger) MarkEventProcessed(_ context.Context, _ messaging.Querier, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.markErr != nil {
		return false, l.markErr
	}
	if l.seen[eventID] {
		l.processed <- eventID
		return false, nil
	}
	l.seen[eventID] = true
	return true, nil
}

func (l *stubLedger) InsertMessage(_ context.Context, _ messaging.Querier, rec messaging.MessageRecord) (uuid.UUID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inserted = append(l.inserted, rec)
	return uuid.New(), nil
}

type passthroughNormalizer struct{}

func (passthroughNormalizer) Normalize(_ context.Context, msg whatsapp.InboundMessage) whatsapp.Turn {
	var text string
	if msg.Text != nil {
		text = msg.Text.Body
	}
	return whatsapp.Turn{Text: text}
}

type directReplyNormalizer struct{ reply string }

func (n directReplyNormalizer) Normalize(_ context.Context, _ whatsapp.InboundMessage) whatsapp.Turn {
	return whatsapp.Turn{DirectReply: n.reply}
}

func textEvent(id, from, body string) whatsapp.InboundEvent {
	return whatsapp.InboundEvent{
		ProfileName: "Maria",
		Message: whatsapp.InboundMessage{
			ID:   id,
			From: from,
			Type: "text",
			Text: &whatsapp.InboundText{Body: body},
		},
	}
}

func waitDelivered(t *testing.T, d *stubDeliverer) {
	t.Helper()
	select {
	case <-d.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestWorkerProcessesTurn(t *testing.T) {
	queue := NewMemoryQueue(8)
	engine := &stubEngine{result: &nlu.TurnResult{
		Parameters: map[string]any{funnel.KeyCity: "Santos"},
		Messages:   []funnel.Message{funnel.Text{Body: "Ótimo!"}},
	}}
	sessions := &stubSessions{stored: funnel.Params{funnel.KeyName: "Maria Silva"}}
	deliverer := newStubDeliverer()
	ledger := newStubLedger()

	worker := NewWorker(queue, engine, passthroughNormalizer{}, deliverer, logging.Default(),
		WithWorkerCount(1),
		WithReceiveWaitSeconds(0),
		WithSessionMemory(sessions),
		WithMetrics(nil),
	)
	worker.ledger = ledger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)
	defer worker.Wait()

	pub := NewPublisher(queue, logging.Default())
	require.NoError(t, pub.EnqueueTurn(ctx, textEvent("wamid.1", "5511999990000", "Santos")))

	waitDelivered(t, deliverer)
	cancel()

	batches := deliverer.batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, funnel.Text{Body: "Ótimo!"}, batches[0][0])

	engine.mu.Lock()
	require.Len(t, engine.calls, 1)
	side := engine.calls[0]
	engine.mu.Unlock()
	assert.Equal(t, "Maria", side[funnel.KeyName], "profile name wins over stored memory")
	assert.Equal(t, "5511999990000", side[funnel.KeyPhone])

	sessions.mu.Lock()
	require.Len(t, sessions.merged, 1)
	assert.Equal(t, "Santos", sessions.merged[0][funnel.KeyCity])
	sessions.mu.Unlock()

	ledger.mu.Lock()
	require.Len(t, ledger.inserted, 2)
	assert.Equal(t, messaging.DirectionInbound, ledger.inserted[0].Direction)
	assert.Equal(t, "wamid.1", ledger.inserted[0].EventID)
	assert.Equal(t, messaging.DirectionOutbound, ledger.inserted[1].Direction)
	assert.Equal(t, "Ótimo!", ledger.inserted[1].Body)
	ledger.mu.Unlock()
}

func TestWorkerSkipsDuplicateDelivery(t *testing.T) {
	queue := NewMemoryQueue(8)
	engine := &stubEngine{result: &nlu.TurnResult{Messages: []funnel.Message{funnel.Text{Body: "oi"}}}}
	deliverer := newStubDeliverer()
	ledger := newStubLedger()

	worker := NewWorker(queue, engine, passthroughNormalizer{}, deliverer, logging.Default(),
		WithWorkerCount(1), WithReceiveWaitSeconds(0))
	worker.ledger = ledger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)
	defer worker.Wait()

	pub := NewPublisher(queue, logging.Default())
	require.NoError(t, pub.EnqueueTurn(ctx, textEvent("wamid.dup", "5511888", "oi")))
	waitDelivered(t, deliverer)

	require.NoError(t, pub.EnqueueTurn(ctx, textEvent("wamid.dup", "5511888", "oi")))
	select {
	case <-ledger.processed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for duplicate drop")
	}
	cancel()

	assert.Len(t, deliverer.batches(), 1, "duplicate must not reach the channel")
}

func TestWorkerDirectReplyShortCircuitsEngine(t *testing.T) {
	queue := NewMemoryQueue(8)
	engine := &stubEngine{}
	deliverer := newStubDeliverer()

	worker := NewWorker(queue, engine, directReplyNormalizer{reply: "Não consegui ouvir direito."}, deliverer, logging.Default(),
		WithWorkerCount(1), WithReceiveWaitSeconds(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)
	defer worker.Wait()

	pub := NewPublisher(queue, logging.Default())
	require.NoError(t, pub.EnqueueTurn(ctx, textEvent("wamid.2", "5511777", "")))

	waitDelivered(t, deliverer)
	cancel()

	batches := deliverer.batches()
	require.Len(t, batches, 1)
	assert.Equal(t, funnel.Text{Body: "Não consegui ouvir direito."}, batches[0][0])

	engine.mu.Lock()
	assert.Empty(t, engine.calls)
	engine.mu.Unlock()
}

func TestWorkerProcessesWhenDedupeCheckFails(t *testing.T) {
	queue := NewMemoryQueue(8)
	engine := &stubEngine{result: &nlu.TurnResult{Messages: []funnel.Message{funnel.Text{Body: "segue"}}}}
	deliverer := newStubDeliverer()
	ledger := newStubLedger()
	ledger.markErr = errors.New("db down")

	worker := NewWorker(queue, engine, passthroughNormalizer{}, deliverer, logging.Default(),
		WithWorkerCount(1), WithReceiveWaitSeconds(0))
	worker.ledger = ledger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)
	defer worker.Wait()

	pub := NewPublisher(queue, logging.Default())
	require.NoError(t, pub.EnqueueTurn(ctx, textEvent("wamid.3", "5511666", "oi")))

	waitDelivered(t, deliverer)
	cancel()

	assert.Len(t, deliverer.batches(), 1, "ledger outage must not block the funnel")
}

func TestWorkerDropsUndecodableJob(t *testing.T) {
	queue := NewMemoryQueue(8)
	engine := &stubEngine{result: &nlu.TurnResult{Messages: []funnel.Message{funnel.Text{Body: "ok"}}}}
	deliverer := newStubDeliverer()

	worker := NewWorker(queue, engine, passthroughNormalizer{}, deliverer, logging.Default(),
		WithWorkerCount(1), WithReceiveWaitSeconds(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)
	defer worker.Wait()

	require.NoError(t, queue.Send(ctx, "{not json"))
	pub := NewPublisher(queue, logging.Default())
	require.NoError(t, pub.EnqueueTurn(ctx, textEvent("wamid.4", "5511555", "oi")))

	waitDelivered(t, deliverer)
	cancel()

	assert.Len(t, deliverer.batches(), 1, "only the valid job is delivered")
}
