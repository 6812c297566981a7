package output

import (
	"encoding/csv"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// ImportanceFormatter is used in a strata pipeline to output a feature
// importance ranking.
type ImportanceFormatter func(importances map[string]float64) (string, error)

// importanceRow is the serializable view of one feature's importance.
type importanceRow struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// importanceRows ranks features descending by importance; ties order by
// feature name so output is deterministic.
func importanceRows(importances map[string]float64) []importanceRow {
	rows := make([]importanceRow, 0, len(importances))
	for feature, importance := range importances {
		rows = append(rows, importanceRow{Feature: feature, Importance: importance})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Importance != rows[j].Importance {
			return rows[i].Importance > rows[j].Importance
		}
		return rows[i].Feature < rows[j].Feature
	})
	return rows
}

// JsonImportanceFormatter outputs the importance ranking in a JSON format.
func JsonImportanceFormatter(importances map[string]float64) (string, error) {
	v, err := json.MarshalIndent(importanceRows(importances), "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// CsvImportanceFormatter outputs the importance ranking in a csv format.
func CsvImportanceFormatter(importances map[string]float64) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write([]string{"feature", "importance"}); err != nil {
		return "", err
	}
	for _, row := range importanceRows(importances) {
		if err := w.Write([]string{row.Feature, strconv.FormatFloat(row.Importance, 'f', -1, 64)}); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
