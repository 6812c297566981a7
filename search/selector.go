package search

import (
	"sort"

	"github.com/pkg/errors"
)

// TopN returns the n best candidates sorted descending by score. Ties break
// by grid-enumeration order (first-seen wins) so selection is deterministic.
// The input is not modified.
func TopN(results []CandidateResult, n int) []CandidateResult {
	ranked := make([]CandidateResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Index < ranked[j].Index
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Rank returns the full ranked table for inspection and reporting.
func Rank(results []CandidateResult) []CandidateResult {
	return TopN(results, len(results))
}

// SelectBest returns the single best candidate.
func SelectBest(results []CandidateResult) (CandidateResult, error) {
	if len(results) == 0 {
		return CandidateResult{}, errors.New("no candidates to select from")
	}
	return TopN(results, 1)[0], nil
}
