// Package search evaluates a hyper-parameter grid for a model family and
// selects the best candidate configuration.
package search

import (
	"hash/fnv"
	"log"
	"math"
	"runtime"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/hscells/strata/dataset"
	"github.com/hscells/strata/eval"
	"github.com/hscells/strata/learning"
	"github.com/hscells/strata/sample"
)

// WorstScore is the sentinel recorded for a candidate whose fit failed, so a
// failing candidate can never be selected over one that fit.
var WorstScore = math.Inf(-1)

// maxConcurrency bounds the number of candidate fits running at once.
// http://jmoiron.net/blog/limiting-concurrency-in-go/
const maxConcurrency = 16

// CandidateResult is the outcome of evaluating one hyper-parameter
// combination: the candidate's grid position, its validation score, and the
// per-record validation predictions. Results are immutable once produced.
type CandidateResult struct {
	Index       int
	Params      learning.Params
	Score       float64
	Predictions []float64
	Err         error
}

// GridSearch fits one model per hyper-parameter combination on a freshly
// downsampled copy of the training data and scores each on the (unbalanced)
// validation data.
type GridSearch struct {
	Learner learning.Learner
	Grid    learning.Grid
	Measure eval.Evaluator
	// Seed is the outer experiment seed; each candidate derives its own seed
	// from it so runs are reproducible and candidates independent.
	Seed int64
	// Concurrency bounds the worker pool. Zero means NumCPU, capped.
	Concurrency int
	// Cache, when set, is consulted before fitting a candidate.
	Cache ScoreCacher
	// Sampler creates the balancer applied to each candidate's training
	// data. Nil means majority-class downsampling.
	Sampler func(seed int64) sample.Sampler
	// Progress draws a progress bar over the grid when set.
	Progress bool
}

func (g GridSearch) sampler(seed int64) sample.Sampler {
	if g.Sampler != nil {
		return g.Sampler(seed)
	}
	return sample.NewDownSampler(seed)
}

// fingerprint identifies the training data and model family for caching.
func (g GridSearch) fingerprint(train dataset.TrainingSet) uint64 {
	h := fnv.New64a()
	h.Write([]byte(g.Learner.Name()))
	for _, r := range train.Records {
		h.Write([]byte(strconv.Itoa(r.ID)))
		h.Write([]byte(r.Label))
	}
	return h.Sum64()
}

// positives converts record labels into the boolean form evaluators consume.
func positives(ds dataset.Dataset) []bool {
	labels := make([]bool, ds.Len())
	positive := ds.PositiveLabel()
	for i, r := range ds.Records {
		labels[i] = r.Label == positive
	}
	return labels
}

// Evaluate produces one CandidateResult per grid point, ordered by grid
// position regardless of completion order. A candidate whose fit fails is
// recorded with WorstScore rather than aborting the search; sibling
// candidates are unaffected.
func (g GridSearch) Evaluate(train dataset.TrainingSet, validation dataset.EvaluationSet) ([]CandidateResult, error) {
	if len(g.Grid) == 0 {
		return nil, errors.New("hyper-parameter grid is empty")
	}
	// Data-quality problems surface here, before any fitting begins.
	if train.Len() == 0 {
		return nil, sample.EmptyClassError
	}

	concurrency := g.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
		if concurrency > maxConcurrency {
			concurrency = maxConcurrency
		}
	}

	var bar *pb.ProgressBar
	if g.Progress {
		bar = pb.StartNew(len(g.Grid))
	}

	fingerprint := g.fingerprint(train)
	labels := positives(validation.Dataset)
	results := make([]CandidateResult, len(g.Grid))

	sem := make(chan bool, concurrency)
	for i := range g.Grid {
		sem <- true
		go func(i int, params learning.Params) {
			defer func() { <-sem }()
			results[i] = g.evaluate(i, params, train, validation, fingerprint, labels)
			if bar != nil {
				bar.Increment()
			}
		}(i, g.Grid[i])
	}
	// Wait for the remaining workers to drain.
	for i := 0; i < cap(sem); i++ {
		sem <- true
	}

	if bar != nil {
		bar.Finish()
	}
	return results, nil
}

// evaluate runs one candidate: balance the training data with a derived
// seed, fit, and score on the untouched validation data.
func (g GridSearch) evaluate(i int, params learning.Params, train dataset.TrainingSet, validation dataset.EvaluationSet, fingerprint uint64, labels []bool) CandidateResult {
	result := CandidateResult{Index: i, Params: params, Score: WorstScore}
	seed := g.Seed + int64(i) + 1

	key := candidateKey(params, fingerprint, g.Measure.Name())
	if g.Cache != nil {
		if score, err := g.Cache.Get(key); err == nil {
			result.Score = score
			return result
		}
	}

	balanced, err := g.sampler(seed).Sample(train)
	if err != nil {
		result.Err = err
		return result
	}

	model, err := g.Learner.Fit(balanced, params, seed)
	if err != nil {
		log.Printf("fit failed for candidate %d (%v): %v", i, params, err)
		result.Err = err
		return result
	}

	result.Predictions = model.Predict(validation.Records)
	result.Score = g.Measure.Score(result.Predictions, labels)

	if g.Cache != nil {
		if err := g.Cache.Set(key, result.Score); err != nil {
			log.Printf("could not cache score for candidate %d: %v", i, err)
		}
	}
	return result
}
