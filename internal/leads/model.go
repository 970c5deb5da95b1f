package leads

import (
	"fmt"
	"time"

	"github.com/coopentrega/recruiting-ai-platform/internal/scoring"
)

// Lead is one completed funnel: candidate identity, raw screening answers and
// the scoring outcome. Leads are append-only; there is no update path.
type Lead struct {
	Name     string
	Phone    string
	Answers  scoring.Answers
	Approved bool
	Score    int
	Summary  string
}

// NewProtocol derives the candidate-facing receipt id from a timestamp: the
// last six digits of the unix-millisecond clock, which is monotonically
// increasing for practical purposes.
func NewProtocol(t time.Time) string {
	millis := fmt.Sprintf("%d", t.UnixMilli())
	return "LEAD-" + millis[len(millis)-6:]
}
