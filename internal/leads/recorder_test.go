package leads

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopentrega/recruiting-ai-platform/internal/scoring"
)

type captureAppender struct {
	sheetID string
	rangeA1 string
	row     []any
	err     error
}

func (c *captureAppender) AppendRow(_ context.Context, sheetID, rangeA1 string, row []any) error {
	c.sheetID = sheetID
	c.rangeA1 = rangeA1
	c.row = row
	return c.err
}

func TestNewProtocolFormat(t *testing.T) {
	p := NewProtocol(time.UnixMilli(1724769123456))
	assert.Regexp(t, regexp.MustCompile(`^LEAD-\d{6}$`), p)
	assert.Equal(t, "LEAD-123456", p)
}

func TestRecordAppendsRow(t *testing.T) {
	appender := &captureAppender{}
	recorder := NewSheetsRecorder(appender, "sheet", "Leads")
	recorder.now = func() time.Time { return time.UnixMilli(1724769123456) }

	protocol, err := recorder.Record(context.Background(), Lead{
		Name:     "Maria Silva",
		Phone:    "5581999990000",
		Answers:  scoring.Answers{Q1: "a", Q2: "b", Q3: "c", Q4: "d", Q5: "e"},
		Approved: true,
		Score:    4,
		Summary:  "Rules: ...",
	})
	require.NoError(t, err)
	assert.Equal(t, "LEAD-123456", protocol)
	assert.Equal(t, "Leads!A1:Z1", appender.rangeA1)
	require.Len(t, appender.row, 13)
	assert.Equal(t, "Maria Silva", appender.row[1])
	assert.Equal(t, "Aprovado", appender.row[9])
	assert.Equal(t, 4, appender.row[10])
	assert.Equal(t, "LEAD-123456", appender.row[12])
	// both timestamp columns carry the same instant
	assert.Equal(t, appender.row[0], appender.row[3])
}

func TestRecordPropagatesAppendError(t *testing.T) {
	recorder := NewSheetsRecorder(&captureAppender{err: errors.New("quota")}, "sheet", "Leads")
	_, err := recorder.Record(context.Background(), Lead{})
	assert.Error(t, err)
}

type stubNotifier struct {
	called   bool
	protocol string
	err      error
}

func (s *stubNotifier) LeadCaptured(_ context.Context, _ Lead, protocol string) error {
	s.called = true
	s.protocol = protocol
	return s.err
}

type stubRecorder struct {
	protocol string
	err      error
}

func (s *stubRecorder) Record(context.Context, Lead) (string, error) { return s.protocol, s.err }

func TestNotifyingRecorderNotifiesApproved(t *testing.T) {
	notifier := &stubNotifier{}
	r := NewNotifyingRecorder(&stubRecorder{protocol: "LEAD-000001"}, notifier, nil)

	protocol, err := r.Record(context.Background(), Lead{Approved: true})
	require.NoError(t, err)
	assert.Equal(t, "LEAD-000001", protocol)
	assert.True(t, notifier.called)
	assert.Equal(t, "LEAD-000001", notifier.protocol)
}

func TestNotifyingRecorderSkipsRejected(t *testing.T) {
	notifier := &stubNotifier{}
	r := NewNotifyingRecorder(&stubRecorder{protocol: "LEAD-000002"}, notifier, nil)

	_, err := r.Record(context.Background(), Lead{Approved: false})
	require.NoError(t, err)
	assert.False(t, notifier.called)
}

func TestNotifyingRecorderSwallowsNotifyError(t *testing.T) {
	notifier := &stubNotifier{err: errors.New("smtp down")}
	r := NewNotifyingRecorder(&stubRecorder{protocol: "LEAD-000003"}, notifier, nil)

	protocol, err := r.Record(context.Background(), Lead{Approved: true})
	require.NoError(t, err)
	assert.Equal(t, "LEAD-000003", protocol)
}
