// Package output provides different formats of output for experiments.
package output

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/hscells/strata/search"
)

// LeaderboardFormatter is used in a strata pipeline to output the ranked
// candidate table.
type LeaderboardFormatter func(results []search.CandidateResult) (string, error)

// EvaluationFormatter is used in a strata pipeline to output final test
// evaluation results.
type EvaluationFormatter func(results map[string]float64) (string, error)

// leaderboardRow is the serializable view of one candidate.
type leaderboardRow struct {
	Rank   int                `json:"rank"`
	Index  int                `json:"index"`
	Score  float64            `json:"score"`
	Failed bool               `json:"failed"`
	Params map[string]float64 `json:"params"`
}

func leaderboardRows(results []search.CandidateResult) []leaderboardRow {
	ranked := search.Rank(results)
	rows := make([]leaderboardRow, len(ranked))
	for i, r := range ranked {
		score := r.Score
		failed := r.Err != nil || math.IsInf(score, -1)
		if failed {
			// JSON has no -Inf; failed candidates report a zero score and
			// the failed marker instead.
			score = 0
		}
		rows[i] = leaderboardRow{
			Rank:   i + 1,
			Index:  r.Index,
			Score:  score,
			Failed: failed,
			Params: r.Params,
		}
	}
	return rows
}

// JsonLeaderboardFormatter outputs the ranked candidates in a JSON format.
func JsonLeaderboardFormatter(results []search.CandidateResult) (string, error) {
	v, err := json.MarshalIndent(leaderboardRows(results), "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// CsvLeaderboardFormatter outputs the ranked candidates in a csv format.
func CsvLeaderboardFormatter(results []search.CandidateResult) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write([]string{"rank", "index", "score", "failed", "params"}); err != nil {
		return "", err
	}
	for _, row := range leaderboardRows(results) {
		record := []string{
			strconv.Itoa(row.Rank),
			strconv.Itoa(row.Index),
			strconv.FormatFloat(row.Score, 'f', -1, 64),
			strconv.FormatBool(row.Failed),
			learningParamsString(row.Params),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}

func learningParamsString(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.FormatFloat(params[k], 'f', -1, 64)
	}
	return strings.Join(parts, ";")
}

// JsonEvaluationFormatter outputs evaluation results in a JSON format.
func JsonEvaluationFormatter(results map[string]float64) (string, error) {
	v, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}
