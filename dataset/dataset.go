// Package dataset provides the record-oriented data model used by strata experiments.
package dataset

import (
	"sort"
)

// Kind is the kind of value a field contains.
type Kind uint8

const (
	// Numeric fields contain continuous values.
	Numeric Kind = iota
	// Categorical fields contain discrete string values.
	Categorical
)

// Field describes one column of a dataset.
type Field struct {
	Name string
	Kind Kind
}

// Value is a single cell of a record. Categorical values use Text, numeric
// values use Number. Missing values are marked explicitly rather than zeroed.
type Value struct {
	Text    string
	Number  float64
	Missing bool
}

// Record is one observation: a mapping from feature name to value plus a
// label. Records are never mutated once loaded; the ID identifies the record
// across splits and samples.
type Record struct {
	ID     int
	Values map[string]Value
	Label  string
}

// Dataset is an ordered sequence of records sharing a schema.
type Dataset struct {
	Fields     []Field
	LabelField string
	// Positive optionally names the label value treated as the positive
	// class. When empty, the lexicographically largest label is used.
	Positive string
	Records  []Record
}

// Len returns the number of records in the dataset.
func (d Dataset) Len() int {
	return len(d.Records)
}

// Labels returns the distinct label values in the dataset, sorted.
func (d Dataset) Labels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, r := range d.Records {
		if !seen[r.Label] {
			seen[r.Label] = true
			labels = append(labels, r.Label)
		}
	}
	sort.Strings(labels)
	return labels
}

// LabelCounts returns the number of records per label value.
func (d Dataset) LabelCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range d.Records {
		counts[r.Label]++
	}
	return counts
}

// Proportions returns the fraction of records per label value.
func (d Dataset) Proportions() map[string]float64 {
	props := make(map[string]float64)
	if d.Len() == 0 {
		return props
	}
	for label, count := range d.LabelCounts() {
		props[label] = float64(count) / float64(d.Len())
	}
	return props
}

// PositiveLabel returns the label value treated as the positive class.
func (d Dataset) PositiveLabel() string {
	if len(d.Positive) > 0 {
		return d.Positive
	}
	labels := d.Labels()
	if len(labels) == 0 {
		return ""
	}
	return labels[len(labels)-1]
}

// ByLabel returns the indices of records in the dataset grouped by label.
func (d Dataset) ByLabel() map[string][]int {
	indices := make(map[string][]int)
	for i, r := range d.Records {
		indices[r.Label] = append(indices[r.Label], i)
	}
	return indices
}

// IDs returns the identities of the records in the dataset, sorted.
func (d Dataset) IDs() []int {
	ids := make([]int, len(d.Records))
	for i, r := range d.Records {
		ids[i] = r.ID
	}
	sort.Ints(ids)
	return ids
}

// Subset creates a new dataset containing the records at the given indices.
// The underlying records are shared; records are immutable so this is safe.
func (d Dataset) Subset(indices []int) Dataset {
	records := make([]Record, len(indices))
	for i, idx := range indices {
		records[i] = d.Records[idx]
	}
	return Dataset{
		Fields:     d.Fields,
		LabelField: d.LabelField,
		Positive:   d.Positive,
		Records:    records,
	}
}

// Concat creates a new dataset from the records of a followed by the records
// of b. Both datasets must share a schema.
func Concat(a, b Dataset) Dataset {
	records := make([]Record, 0, a.Len()+b.Len())
	records = append(records, a.Records...)
	records = append(records, b.Records...)
	return Dataset{
		Fields:     a.Fields,
		LabelField: a.LabelField,
		Positive:   a.Positive,
		Records:    records,
	}
}

// TrainingSet is a dataset that may be used to fit models. Only training
// sets can be downsampled; evaluation sets deliberately cannot.
type TrainingSet struct {
	Dataset
}

// EvaluationSet is a dataset used only for scoring fitted models. It exposes
// no balancing operations so that evaluation data can never be resampled.
type EvaluationSet struct {
	Dataset
}

// NewTrainingSet marks a dataset as usable for model fitting.
func NewTrainingSet(d Dataset) TrainingSet {
	return TrainingSet{Dataset: d}
}

// NewEvaluationSet marks a dataset as usable only for evaluation.
func NewEvaluationSet(d Dataset) EvaluationSet {
	return EvaluationSet{Dataset: d}
}

// Source models a way to load a dataset, e.g. from a file on disk.
type Source interface {
	Load() (Dataset, error)
}
