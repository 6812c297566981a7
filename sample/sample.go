// Package sample provides resampling strategies applied to training data to
// counteract class imbalance. Samplers operate on training sets only; the
// type system prevents them from ever touching evaluation data.
package sample

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/hscells/strata/dataset"
)

// EmptyClassError indicates a label class has no records to sample from.
var EmptyClassError = errors.New("cannot downsample a class with no records")

// Sampler models a way to resample a training set.
type Sampler interface {
	Sample(train dataset.TrainingSet) (dataset.TrainingSet, error)
}

// DownSampler undersamples the majority label classes so every label ends up
// with exactly as many records as the smallest class. Selection is without
// replacement and stable given the same seed.
type DownSampler struct {
	seed int64
}

// NewDownSampler creates a downsampler with the given seed.
func NewDownSampler(seed int64) DownSampler {
	return DownSampler{seed: seed}
}

// Sample selects minCount records per label value, where minCount is the
// size of the smallest class. The output is a new training set; the input is
// never modified.
func (s DownSampler) Sample(train dataset.TrainingSet) (dataset.TrainingSet, error) {
	labels := train.Labels()
	if len(labels) == 0 {
		return dataset.TrainingSet{}, EmptyClassError
	}

	byLabel := train.ByLabel()
	minCount := -1
	for _, label := range labels {
		if n := len(byLabel[label]); minCount < 0 || n < minCount {
			minCount = n
		}
	}
	if minCount == 0 {
		return dataset.TrainingSet{}, EmptyClassError
	}

	rng := rand.New(rand.NewSource(s.seed))

	// Labels are visited in sorted order so the concatenation order is
	// stable for a given seed.
	var selected []int
	for _, label := range labels {
		indices := append([]int(nil), byLabel[label]...)
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		chosen := indices[:minCount]
		sort.Ints(chosen)
		selected = append(selected, chosen...)
	}

	return dataset.NewTrainingSet(train.Subset(selected)), nil
}
