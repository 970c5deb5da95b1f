// Package outbound turns the router's abstract messages into channel sends:
// long text is segmented and paced into separate bubbles, menus are capped to
// the channel's limits, and rejected interactive payloads degrade to simpler
// renderings instead of being dropped.
package outbound

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/coopentrega/recruiting-ai-platform/internal/funnel"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// WhatsApp interactive limits.
const (
	MaxButtons     = 3
	ButtonTitleMax = 20
	MaxListRows    = 10
	ListTitleMax   = 24
	ListDescMax    = 72
	ListHeaderMax  = 60
	ButtonLabelMax = 20
	BodyMax        = 1024
)

// Pacing defaults.
const (
	DefaultSegmentMax  = 900
	DefaultBubbleDelay = 450 * time.Millisecond
)

var blankLineRe = regexp.MustCompile(`\n{2,}`)

// Button is a quick-reply button on the wire.
type Button struct {
	ID    string
	Title string
}

// Row is one list-picker row on the wire.
type Row struct {
	ID          string
	Title       string
	Description string
}

// List is a list-picker payload on the wire.
type List struct {
	Header      string
	Body        string
	ButtonLabel string
	Rows        []Row
}

// ChannelSender is the outbound side of the messaging channel.
type ChannelSender interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
	SendList(ctx context.Context, to string, list List) error
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBubbleDelay sets the pause between consecutive bubbles.
func WithBubbleDelay(d time.Duration) Option {
	return func(r *Renderer) { r.delay = d }
}

// WithSegmentMax sets the per-bubble character budget.
func WithSegmentMax(n int) Option {
	return func(r *Renderer) { r.segmentMax = n }
}

// WithSleep replaces the pacing sleep, for tests.
func WithSleep(sleep func(context.Context, time.Duration)) Option {
	return func(r *Renderer) { r.sleep = sleep }
}

// Renderer delivers abstract messages over a ChannelSender.
type Renderer struct {
	sender     ChannelSender
	delay      time.Duration
	segmentMax int
	sleep      func(context.Context, time.Duration)
	logger     *logging.Logger
}

// NewRenderer creates a renderer with WhatsApp defaults.
func NewRenderer(sender ChannelSender, logger *logging.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Renderer{
		sender:     sender,
		delay:      DefaultBubbleDelay,
		segmentMax: DefaultSegmentMax,
		sleep:      pause,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Deliver sends every message in order. Delivery is strictly sequential: the
// channel must receive bubbles in the order the router emitted them.
func (r *Renderer) Deliver(ctx context.Context, to string, msgs []funnel.Message) error {
	for i, m := range msgs {
		if i > 0 {
			r.sleep(ctx, r.delay)
		}
		var err error
		switch msg := m.(type) {
		case funnel.Text:
			err = r.deliverText(ctx, to, msg.Body)
		case funnel.ChoiceMenu:
			err = r.deliverChoices(ctx, to, msg)
		case funnel.ListMenu:
			err = r.deliverList(ctx, to, msg)
		default:
			r.logger.Warn("unrenderable message type", "type", fmt.Sprintf("%T", m))
			continue
		}
		if err != nil {
			return fmt.Errorf("outbound: deliver message %d: %w", i, err)
		}
	}
	return nil
}

func (r *Renderer) deliverText(ctx context.Context, to, body string) error {
	segments := SplitSegments(body, r.segmentMax)
	for i, seg := range segments {
		if i > 0 {
			r.sleep(ctx, r.delay)
		}
		if err := r.sender.SendText(ctx, to, seg); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) deliverChoices(ctx context.Context, to string, menu funnel.ChoiceMenu) error {
	body := menu.Body
	if body == "" {
		body = "Escolha uma opção:"
	}
	err := r.sender.SendButtons(ctx, to, truncate(body, BodyMax), capButtons(menu.Choices))
	if err == nil {
		return nil
	}
	r.logger.Warn("button payload rejected, degrading to text", "to", to, "error", err)
	return r.deliverText(ctx, to, enumerateChoices(body, menu.Choices))
}

func (r *Renderer) deliverList(ctx context.Context, to string, menu funnel.ListMenu) error {
	list := List{
		Header:      truncate(menu.Header, ListHeaderMax),
		Body:        truncate(menu.Body, BodyMax),
		ButtonLabel: truncate(defaultString(menu.ButtonLabel, "Ver opções"), ButtonLabelMax),
		Rows:        capRows(menu.Rows),
	}
	err := r.sender.SendList(ctx, to, list)
	if err == nil {
		return nil
	}
	r.logger.Warn("list payload rejected, degrading", "to", to, "rows", len(menu.Rows), "error", err)

	if len(menu.Rows) <= MaxButtons {
		choices := make([]funnel.Choice, 0, len(menu.Rows))
		for _, row := range menu.Rows {
			choices = append(choices, funnel.Choice{ID: row.ID, Title: row.Title})
		}
		return r.deliverChoices(ctx, to, funnel.ChoiceMenu{Body: menu.Body, Choices: choices})
	}
	return r.deliverText(ctx, to, enumerateRows(menu.Body, menu.Rows))
}

// capButtons applies the channel's button count and title limits.
func capButtons(choices []funnel.Choice) []Button {
	n := len(choices)
	if n > MaxButtons {
		n = MaxButtons
	}
	buttons := make([]Button, 0, n)
	for _, ch := range choices[:n] {
		buttons = append(buttons, Button{
			ID:    ch.ID,
			Title: truncate(defaultString(ch.Title, "Opção"), ButtonTitleMax),
		})
	}
	return buttons
}

// capRows applies the row cap, keeping a synthetic "more options" row when the
// menu overflows; the remaining rows stay reachable through navigation.
func capRows(rows []funnel.ListRow) []Row {
	overflow := len(rows) > MaxListRows
	n := len(rows)
	if overflow {
		n = MaxListRows - 1
	}
	out := make([]Row, 0, n+1)
	for _, row := range rows[:n] {
		out = append(out, Row{
			ID:          row.ID,
			Title:       truncate(row.Title, ListTitleMax),
			Description: truncate(row.Description, ListDescMax),
		})
	}
	if overflow {
		out = append(out, Row{ID: "next", Title: "Mais opções…", Description: "Ver as demais vagas"})
	}
	return out
}

// enumerateChoices renders a button menu as numbered plain text. Every choice
// appears, including any that the button cap would have dropped.
func enumerateChoices(body string, choices []funnel.Choice) string {
	var b strings.Builder
	b.WriteString(body)
	for i, ch := range choices {
		fmt.Fprintf(&b, "\n%d. %s", i+1, ch.Title)
	}
	b.WriteString("\n\nResponda com o número ou o ID da opção desejada.")
	return b.String()
}

// enumerateRows renders a list menu as numbered plain text, all rows included.
func enumerateRows(body string, rows []funnel.ListRow) string {
	var b strings.Builder
	b.WriteString(body)
	for i, row := range rows {
		fmt.Fprintf(&b, "\n%d. %s", i+1, row.Title)
		if row.Description != "" {
			fmt.Fprintf(&b, " — %s", row.Description)
		}
	}
	b.WriteString("\n\nResponda com o número ou o ID da opção desejada.")
	return b.String()
}

// SplitSegments splits long text into bubbles: blank-line boundaries first,
// then line-preserving hard wraps bounded by max characters.
func SplitSegments(text string, max int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if max <= 0 {
		max = DefaultSegmentMax
	}
	var segments []string
	for _, part := range splitBlankLines(text) {
		if len(part) <= max {
			segments = append(segments, part)
			continue
		}
		acc := ""
		for _, line := range strings.Split(part, "\n") {
			candidate := line
			if acc != "" {
				candidate = acc + "\n" + line
			}
			if len(candidate) > max {
				if acc != "" {
					segments = append(segments, acc)
				}
				acc = line
				continue
			}
			acc = candidate
		}
		if acc != "" {
			segments = append(segments, acc)
		}
	}
	return segments
}

func splitBlankLines(text string) []string {
	var parts []string
	for _, part := range blankLineRe.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
