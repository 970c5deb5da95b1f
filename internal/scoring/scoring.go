// Package scoring evaluates the five behavioral screening answers collected
// during the funnel. A deterministic keyword-rubric engine is always
// available; an optional Gemini-backed scorer can run first with the rules as
// a silent fallback, so scoring as a whole never fails.
package scoring

import (
	"context"
	"fmt"
	"strings"
)

// DefaultThreshold is the minimum number of passing rubrics for approval.
const DefaultThreshold = 3

// Answers carries the raw free-text answers to the five screening questions.
type Answers struct {
	Q1 string `json:"q1"`
	Q2 string `json:"q2"`
	Q3 string `json:"q3"`
	Q4 string `json:"q4"`
	Q5 string `json:"q5"`
}

// Verdict is the outcome of a single rubric.
type Verdict struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// Evaluation aggregates the five verdicts.
type Evaluation struct {
	Approved    bool
	Score       int
	PerQuestion [5]Verdict
	// Source records which engine produced the evaluation ("rules" or
	// "gemini"). Kept for the audit trail, never shown to the candidate.
	Source string
}

// Summary renders the per-question audit line stored with the lead.
func (e Evaluation) Summary() string {
	parts := make([]string, 0, 5)
	for i, v := range e.PerQuestion {
		status := "Ajustar"
		if v.Passed {
			status = "OK"
		}
		parts = append(parts, fmt.Sprintf("Q%d: %s - %s", i+1, status, v.Reason))
	}
	label := "Rules"
	if e.Source == SourceGemini {
		label = "AI"
	}
	return fmt.Sprintf("%s: %s", label, strings.Join(parts, " | "))
}

// Evaluation sources.
const (
	SourceRules  = "rules"
	SourceGemini = "gemini"
)

// Scorer evaluates a set of answers. Implementations may fail; callers that
// need totality should wrap them in a Hybrid with a RulesScorer fallback.
type Scorer interface {
	Score(ctx context.Context, a Answers) (Evaluation, error)
}
