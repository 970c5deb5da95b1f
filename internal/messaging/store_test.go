package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestInsertMessage(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs("5581999990000", DirectionInbound, "text", "Recife", "wamid.A").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

	got, err := store.InsertMessage(context.Background(), nil, MessageRecord{
		Phone:     "5581999990000",
		Direction: DirectionInbound,
		Kind:      "text",
		Body:      "Recife",
		EventID:   "wamid.A",
	})
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEventProcessedFirstDelivery(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO processed_events`).
		WithArgs("wamid.A").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	first, err := store.MarkEventProcessed(context.Background(), nil, "wamid.A")
	require.NoError(t, err)
	assert.True(t, first)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEventProcessedDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO processed_events`).
		WithArgs("wamid.A").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	first, err := store.MarkEventProcessed(context.Background(), nil, "wamid.A")
	require.NoError(t, err)
	assert.False(t, first)
}

func TestMarkEventProcessedEmptyID(t *testing.T) {
	store, mock := newMockStore(t)

	first, err := store.MarkEventProcessed(context.Background(), nil, "  ")
	require.NoError(t, err)
	assert.True(t, first)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentMessages(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	rows := pgxmock.NewRows([]string{"id", "phone", "direction", "kind", "body", "event_id", "created_at"}).
		AddRow(uuid.New(), "5581999990000", DirectionOutbound, "text", "olá", "", now)
	mock.ExpectQuery(`SELECT id, phone, direction, kind, body`).
		WithArgs("5581999990000", 10).
		WillReturnRows(rows)

	msgs, err := store.RecentMessages(context.Background(), "5581999990000", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "olá", msgs[0].Body)
}

func TestNewStoreNilPool(t *testing.T) {
	assert.Nil(t, NewStore(nil))
}
