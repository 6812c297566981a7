// Package split partitions datasets into disjoint train/validation/test
// subsets while preserving the label distribution of the source.
package split

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/hscells/strata/dataset"
	"github.com/xtgo/set"
)

var (
	// InvalidFractionError indicates the requested fractions are not positive
	// or do not sum to at most 1.
	InvalidFractionError = errors.New("split fractions must be positive and sum to at most 1")
	// InsufficientDataError indicates a label class has fewer records than
	// needed to stratify into every subset.
	InsufficientDataError = errors.New("a label class has too few records to stratify into every subset")
)

// DefaultTolerance is the stratification tolerance the partitioner is
// documented to satisfy: each subset's label proportion is within ±2% of the
// proportion in the source dataset (per-label rounding accounts for the rest).
const DefaultTolerance = 0.02

// Fractions configures the size of each subset relative to the whole dataset.
type Fractions struct {
	Train      float64
	Validation float64
	Test       float64
}

// Sum returns the total of the three fractions.
func (f Fractions) Sum() float64 {
	return f.Train + f.Validation + f.Test
}

// Split is a partition of a dataset into named, disjoint subsets whose union
// is the original dataset. A split is never mutated after creation.
type Split struct {
	Train      dataset.TrainingSet
	Validation dataset.EvaluationSet
	Test       dataset.EvaluationSet
}

// Stratified partitions a dataset into train, validation, and test subsets.
// The split happens in two stages: first the test fraction is carved off the
// whole dataset, then the validation fraction is carved off the remaining
// pool. Both stages stratify independently by label value. The same seed and
// dataset always produce an identical split.
func Stratified(ds dataset.Dataset, f Fractions, seed int64) (Split, error) {
	if f.Train <= 0 || f.Validation <= 0 || f.Test <= 0 || f.Sum() > 1.0+1e-9 {
		return Split{}, InvalidFractionError
	}

	labels := ds.Labels()
	if len(labels) == 0 {
		return Split{}, InsufficientDataError
	}

	byLabel := ds.ByLabel()
	rng := rand.New(rand.NewSource(seed))

	// The validation fraction is given relative to the whole dataset, so it
	// must be rescaled to the pool remaining after the test stage.
	valFrac := f.Validation / (1.0 - f.Test)

	var trainIdx, valIdx, testIdx []int
	for _, label := range labels {
		indices := append([]int(nil), byLabel[label]...)
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(math.Round(f.Test * float64(len(indices))))
		nVal := int(math.Round(valFrac * float64(len(indices)-nTest)))
		nTrain := len(indices) - nTest - nVal
		if nTest < 1 || nVal < 1 || nTrain < 1 {
			return Split{}, InsufficientDataError
		}

		testIdx = append(testIdx, indices[:nTest]...)
		valIdx = append(valIdx, indices[nTest:nTest+nVal]...)
		trainIdx = append(trainIdx, indices[nTest+nVal:]...)
	}

	// Subsets are ordered by record identity so the split is stable
	// regardless of how labels interleave in the source.
	sort.Ints(trainIdx)
	sort.Ints(valIdx)
	sort.Ints(testIdx)

	return Split{
		Train:      dataset.NewTrainingSet(ds.Subset(trainIdx)),
		Validation: dataset.NewEvaluationSet(ds.Subset(valIdx)),
		Test:       dataset.NewEvaluationSet(ds.Subset(testIdx)),
	}, nil
}

// Verify checks that the split is a true partition of the source dataset:
// the subsets are pairwise disjoint, their union covers the source exactly,
// and each subset preserves the source label proportions within tolerance.
func (s Split) Verify(source dataset.Dataset, tolerance float64) error {
	subsets := []dataset.Dataset{s.Train.Dataset, s.Validation.Dataset, s.Test.Dataset}

	total := 0
	for i := range subsets {
		total += subsets[i].Len()
		for j := i + 1; j < len(subsets); j++ {
			if n := intersection(subsets[i].IDs(), subsets[j].IDs()); n > 0 {
				return errors.New("split subsets are not disjoint")
			}
		}
	}
	if total != source.Len() {
		return errors.New("split subsets do not cover the source dataset")
	}

	// Union of all subset identities must equal the source identities.
	var ids []int
	for _, sub := range subsets {
		ids = append(ids, sub.IDs()...)
	}
	sort.Ints(ids)
	ids = ids[:set.Uniq(sort.IntSlice(ids))]
	src := source.IDs()
	if len(ids) != len(src) {
		return errors.New("split subsets do not cover the source dataset")
	}
	for i := range ids {
		if ids[i] != src[i] {
			return errors.New("split subsets contain records not present in the source dataset")
		}
	}

	want := source.Proportions()
	for _, sub := range subsets {
		got := sub.Proportions()
		for label, p := range want {
			if math.Abs(got[label]-p) > tolerance {
				return errors.New("split subsets do not preserve the source label proportions")
			}
		}
	}
	return nil
}

// intersection computes the size of the intersection of two sorted id sets.
func intersection(a, b []int) int {
	data := append(append([]int(nil), a...), b...)
	return set.Inter(sort.IntSlice(data), len(a))
}
