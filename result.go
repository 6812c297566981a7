package strata

import (
	"github.com/hscells/strata/search"
)

// ResultType is the type of result being returned through a pipeline channel.
type ResultType uint8

const (
	// Leaderboard is the ranked table of evaluated candidates.
	Leaderboard ResultType = iota
	// Selection is the candidate chosen for the final fit.
	Selection
	// TestEvaluation is the final metric computed on the held-out test data.
	TestEvaluation
	// Importance is the feature importance ranking of the final model.
	Importance
	// Error indicates an error was raised.
	Error
	// Done indicates the pipeline has completed.
	Done
)

// Result is the output of a strata pipeline. The RunID ties all results of
// one execution together.
type Result struct {
	RunID       string
	Type        ResultType
	Leaderboard []search.CandidateResult
	Selected    *search.CandidateResult
	Evaluation  map[string]float64
	Importances map[string]float64
	// Formatted carries the configured formatter outputs for this result.
	Formatted []string
	Error     error
}
