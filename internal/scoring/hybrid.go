package scoring

import (
	"context"
	"time"

	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// Hybrid tries an AI scorer first and silently falls back to the
// deterministic rules on any failure. Score never returns an error.
type Hybrid struct {
	AI      Scorer
	Rules   *RulesScorer
	Timeout time.Duration
	Logger  *logging.Logger
}

// NewHybrid builds a hybrid scorer. ai may be nil, in which case only the
// rules engine runs.
func NewHybrid(ai Scorer, rules *RulesScorer, timeout time.Duration, logger *logging.Logger) *Hybrid {
	if rules == nil {
		rules = &RulesScorer{}
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Hybrid{AI: ai, Rules: rules, Timeout: timeout, Logger: logger}
}

// Score implements Scorer.
func (h *Hybrid) Score(ctx context.Context, a Answers) (Evaluation, error) {
	if h.AI != nil {
		aiCtx, cancel := context.WithTimeout(ctx, h.Timeout)
		eval, err := h.AI.Score(aiCtx, a)
		cancel()
		if err == nil {
			return eval, nil
		}
		h.Logger.Warn("ai scoring failed, using rules fallback", "error", err)
	}
	return h.Rules.Evaluate(a), nil
}
