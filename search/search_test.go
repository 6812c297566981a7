package search_test

import (
	"math"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/hscells/strata/dataset"
	"github.com/hscells/strata/learning"
	"github.com/hscells/strata/search"
)

// stubLearner fits a model that scores every record with the candidate's
// `score` parameter, and fails outright when `fail` is set. It lets tests
// drive the grid search with predetermined metric outcomes.
type stubLearner struct {
	mu   sync.Mutex
	fits int
}

type stubModel struct {
	score float64
}

func (m stubModel) Predict(records []dataset.Record) []float64 {
	scores := make([]float64, len(records))
	for i := range scores {
		scores[i] = m.score
	}
	return scores
}

func (s *stubLearner) Name() string {
	return "stub"
}

func (s *stubLearner) Fit(train dataset.TrainingSet, params learning.Params, seed int64) (learning.Model, error) {
	s.mu.Lock()
	s.fits++
	s.mu.Unlock()
	if params.Get("fail", 0) == 1 {
		return nil, errors.Wrap(learning.FitError, "stub failure")
	}
	return stubModel{score: params.Get("score", 0)}, nil
}

// firstPrediction scores a candidate with whatever its model predicts.
type firstPrediction struct{}

func (firstPrediction) Name() string {
	return "FirstPrediction"
}

func (firstPrediction) Score(predictions []float64, labels []bool) float64 {
	return predictions[0]
}

func balanced(n int) dataset.Dataset {
	ds := dataset.Dataset{
		Fields:     []dataset.Field{{Name: "x", Kind: dataset.Numeric}},
		LabelField: "label",
	}
	for i := 0; i < n; i++ {
		label := "no"
		if i%2 == 0 {
			label = "yes"
		}
		ds.Records = append(ds.Records, dataset.Record{
			ID:     i,
			Values: map[string]dataset.Value{"x": {Number: float64(i)}},
			Label:  label,
		})
	}
	return ds
}

func scoreGrid(scores ...float64) learning.Grid {
	grid := make(learning.Grid, len(scores))
	for i, s := range scores {
		grid[i] = learning.Params{"score": s}
	}
	return grid
}

func TestSelectBestTieBreak(t *testing.T) {
	// Candidates 1 and 3 tie; the earlier-enumerated one must win.
	gs := search.GridSearch{
		Learner: &stubLearner{},
		Grid:    scoreGrid(0.81, 0.93, 0.76, 0.93),
		Measure: firstPrediction{},
		Seed:    42,
	}
	train := dataset.NewTrainingSet(balanced(20))
	validation := dataset.NewEvaluationSet(balanced(10))

	results, err := gs.Evaluate(train, validation)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	best, err := search.SelectBest(results)
	if err != nil {
		t.Fatal(err)
	}
	if best.Index != 1 {
		t.Fatalf("expected candidate 1 to win the tie, got %d", best.Index)
	}
	for _, r := range results {
		if best.Score < r.Score {
			t.Fatalf("candidate %d outscores the selected one", r.Index)
		}
	}
}

func TestFailedCandidateIsIsolated(t *testing.T) {
	// One failing candidate among 25 must not abort the grid.
	grid := scoreGrid(make([]float64, 25)...)
	for i := range grid {
		grid[i] = learning.Params{"score": float64(i) / 25}
	}
	grid[13] = learning.Params{"fail": 1}

	gs := search.GridSearch{
		Learner: &stubLearner{},
		Grid:    grid,
		Measure: firstPrediction{},
		Seed:    42,
	}
	results, err := gs.Evaluate(dataset.NewTrainingSet(balanced(20)), dataset.NewEvaluationSet(balanced(10)))
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 25 {
		t.Fatalf("expected 25 results, got %d", len(results))
	}
	if !math.IsInf(results[13].Score, -1) {
		t.Fatalf("failing candidate should carry the sentinel worst score, got %f", results[13].Score)
	}
	if results[13].Err == nil {
		t.Fatal("failing candidate should retain its error")
	}

	best, err := search.SelectBest(results)
	if err != nil {
		t.Fatal(err)
	}
	if best.Index == 13 {
		t.Fatal("a failed candidate must never be selected")
	}
}

func TestOrderingIndependentOfConcurrency(t *testing.T) {
	grid := make(learning.Grid, 16)
	for i := range grid {
		grid[i] = learning.Params{"score": float64(i) / 16}
	}
	train := dataset.NewTrainingSet(balanced(20))
	validation := dataset.NewEvaluationSet(balanced(10))

	serial := search.GridSearch{Learner: &stubLearner{}, Grid: grid, Measure: firstPrediction{}, Seed: 42, Concurrency: 1}
	parallel := search.GridSearch{Learner: &stubLearner{}, Grid: grid, Measure: firstPrediction{}, Seed: 42, Concurrency: 8}

	a, err := serial.Evaluate(train, validation)
	if err != nil {
		t.Fatal(err)
	}
	b, err := parallel.Evaluate(train, validation)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a {
		if a[i].Index != b[i].Index || a[i].Score != b[i].Score {
			t.Fatal("results differ between serial and parallel evaluation")
		}
	}
}

func TestCacheSkipsFitting(t *testing.T) {
	grid := scoreGrid(0.1, 0.2, 0.3)
	train := dataset.NewTrainingSet(balanced(20))
	validation := dataset.NewEvaluationSet(balanced(10))
	cache := search.NewMapScoreCache()
	learner := &stubLearner{}

	gs := search.GridSearch{Learner: learner, Grid: grid, Measure: firstPrediction{}, Seed: 42, Cache: cache}
	if _, err := gs.Evaluate(train, validation); err != nil {
		t.Fatal(err)
	}
	if learner.fits != 3 {
		t.Fatalf("expected 3 fits on a cold cache, got %d", learner.fits)
	}

	results, err := gs.Evaluate(train, validation)
	if err != nil {
		t.Fatal(err)
	}
	if learner.fits != 3 {
		t.Fatalf("expected a warm cache to skip fitting, got %d fits", learner.fits)
	}
	for i, r := range results {
		if r.Score != grid[i].Get("score", -1) {
			t.Fatalf("cached score for candidate %d is %f", i, r.Score)
		}
	}
}

func TestEmptyGrid(t *testing.T) {
	gs := search.GridSearch{Learner: &stubLearner{}, Measure: firstPrediction{}}
	if _, err := gs.Evaluate(dataset.NewTrainingSet(balanced(20)), dataset.NewEvaluationSet(balanced(10))); err == nil {
		t.Fatal("expected an error for an empty grid")
	}
}

func TestTopN(t *testing.T) {
	gs := search.GridSearch{
		Learner: &stubLearner{},
		Grid:    scoreGrid(0.1, 0.9, 0.5, 0.7),
		Measure: firstPrediction{},
		Seed:    42,
	}
	results, err := gs.Evaluate(dataset.NewTrainingSet(balanced(20)), dataset.NewEvaluationSet(balanced(10)))
	if err != nil {
		t.Fatal(err)
	}

	top := search.TopN(results, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 results, got %d", len(top))
	}
	if top[0].Index != 1 || top[1].Index != 3 {
		t.Fatalf("unexpected leaderboard order: %d, %d", top[0].Index, top[1].Index)
	}

	// The input order must be untouched.
	for i, r := range results {
		if r.Index != i {
			t.Fatal("ranking modified the input results")
		}
	}
}
