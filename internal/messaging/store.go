// Package messaging persists the conversation audit log and the inbound
// dedupe ledger in Postgres. WhatsApp delivers at-least-once, so every
// processed event id is recorded and duplicates are dropped before they reach
// the dialog engine.
package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the pgx query surface shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxPool is the pool surface the store needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// MessageRecord is one logged conversation message.
type MessageRecord struct {
	ID        uuid.UUID
	Phone     string
	Direction string
	Kind      string
	Body      string
	EventID   string
	CreatedAt time.Time
}

// Store persists conversation state in Postgres.
type Store struct {
	pool PgxPool
}

// NewStore creates a store. A nil pool yields a nil store, which callers
// treat as "logging disabled".
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

// InsertMessage appends one message to the conversation log.
func (s *Store) InsertMessage(ctx context.Context, q Querier, rec MessageRecord) (uuid.UUID, error) {
	if q == nil {
		q = s.pool
	}
	query := `
		INSERT INTO messages (phone, direction, kind, body, event_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id
	`
	var id uuid.UUID
	if err := q.QueryRow(ctx, query, rec.Phone, rec.Direction, rec.Kind, rec.Body, rec.EventID).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("messaging: insert message: %w", err)
	}
	return id, nil
}

// MarkEventProcessed records an inbound event id and reports whether this was
// its first delivery. Duplicate deliveries return false.
func (s *Store) MarkEventProcessed(ctx context.Context, q Querier, eventID string) (bool, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return true, nil
	}
	if q == nil {
		q = s.pool
	}
	query := `
		INSERT INTO processed_events (event_id)
		VALUES ($1)
		ON CONFLICT (event_id) DO NOTHING
	`
	tag, err := q.Exec(ctx, query, eventID)
	if err != nil {
		return false, fmt.Errorf("messaging: mark event processed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RecentMessages returns the newest messages for a phone, newest first.
func (s *Store) RecentMessages(ctx context.Context, phone string, limit int) ([]MessageRecord, error) {
	query := `
		SELECT id, phone, direction, kind, body, COALESCE(event_id, ''), created_at
		FROM messages
		WHERE phone = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: recent messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var rec MessageRecord
		if err := rows.Scan(&rec.ID, &rec.Phone, &rec.Direction, &rec.Kind, &rec.Body, &rec.EventID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("messaging: scan message: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PurgeProcessedEvents deletes dedupe entries older than the retention
// window. The ledger only needs to outlive the channel's retry horizon.
func (s *Store) PurgeProcessedEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM processed_events
		WHERE processed_at < now() - $1::interval
	`
	tag, err := s.pool.Exec(ctx, query, olderThan.String())
	if err != nil {
		return 0, fmt.Errorf("messaging: purge processed events: %w", err)
	}
	return tag.RowsAffected(), nil
}
