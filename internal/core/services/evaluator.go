package services

import (
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
)

// Ensure Evaluator implements the interface.
var _ driving.Evaluator = (*Evaluator)(nil)

// Evaluator scores generated answers against expected answers with a
// longest-common-subsequence ratio. Tolerant of paraphrase-level
// differences; intended for regression scoring of a test corpus, not
// for live gating.
type Evaluator struct{}

// NewEvaluator creates an evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns 2*LCS(answer, expected) / (len(answer) +
// len(expected)), a similarity in [0, 1]. Two empty strings score 1.
func (e *Evaluator) Evaluate(answer, expected string) float64 {
	a := []rune(answer)
	b := []rune(expected)

	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	return 2 * float64(lcsLength(a, b)) / float64(len(a)+len(b))
}

// lcsLength computes the longest-common-subsequence length with a
// rolling single-row table.
func lcsLength(a, b []rune) int {
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			current := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prev + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prev = current
		}
	}
	return row[len(b)]
}
