package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// RowAppender is the subset of the sheets client the recorder needs.
type RowAppender interface {
	AppendRow(ctx context.Context, spreadsheetID, rangeA1 string, row []any) error
}

// Recorder persists a lead and returns its protocol id.
type Recorder interface {
	Record(ctx context.Context, lead Lead) (string, error)
}

// Notifier is told about captured leads after they are persisted.
type Notifier interface {
	LeadCaptured(ctx context.Context, lead Lead, protocol string) error
}

// SheetsRecorder appends one row per lead to the lead spreadsheet.
type SheetsRecorder struct {
	appender RowAppender
	sheetID  string
	tab      string
	now      func() time.Time
}

// NewSheetsRecorder creates a recorder over the given spreadsheet tab.
func NewSheetsRecorder(appender RowAppender, sheetID, tab string) *SheetsRecorder {
	return &SheetsRecorder{appender: appender, sheetID: sheetID, tab: tab, now: time.Now}
}

// Record appends the lead row and returns the generated protocol id.
// Columns: DATA_ISO | NOME | TELEFONE | DATA_ISO | Q1..Q5 | PERFIL_APROVADO |
// PERFIL_NOTA | PERFIL_RESUMO | PROTOCOLO.
func (r *SheetsRecorder) Record(ctx context.Context, lead Lead) (string, error) {
	ts := r.now()
	protocol := NewProtocol(ts)
	iso := ts.UTC().Format(time.RFC3339)

	status := "Reprovado"
	if lead.Approved {
		status = "Aprovado"
	}
	row := []any{
		iso,
		lead.Name,
		lead.Phone,
		iso,
		lead.Answers.Q1,
		lead.Answers.Q2,
		lead.Answers.Q3,
		lead.Answers.Q4,
		lead.Answers.Q5,
		status,
		lead.Score,
		lead.Summary,
		protocol,
	}
	if err := r.appender.AppendRow(ctx, r.sheetID, r.tab+"!A1:Z1", row); err != nil {
		return "", fmt.Errorf("leads: append lead row: %w", err)
	}
	return protocol, nil
}

// NotifyingRecorder wraps a Recorder and notifies recruiters about approved
// leads. Notification failures are logged, never propagated: the lead is
// already persisted.
type NotifyingRecorder struct {
	inner    Recorder
	notifier Notifier
	logger   *logging.Logger
}

// NewNotifyingRecorder wraps inner with best-effort notifications.
func NewNotifyingRecorder(inner Recorder, notifier Notifier, logger *logging.Logger) *NotifyingRecorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &NotifyingRecorder{inner: inner, notifier: notifier, logger: logger}
}

// Record implements Recorder.
func (r *NotifyingRecorder) Record(ctx context.Context, lead Lead) (string, error) {
	protocol, err := r.inner.Record(ctx, lead)
	if err != nil {
		return "", err
	}
	if r.notifier != nil && lead.Approved {
		if err := r.notifier.LeadCaptured(ctx, lead, protocol); err != nil {
			r.logger.Warn("lead notification failed", "error", err, "protocol", protocol)
		}
	}
	return protocol, nil
}
