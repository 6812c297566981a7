// Package strata provides a framework for constructing reproducible
// model-comparison experiments over labeled tabular data: stratified
// splitting, training-only downsampling, seeded grid search, deterministic
// selection, and a final held-out test evaluation.
package strata

import (
	"log"
	"math"

	"github.com/google/uuid"
	perrors "github.com/pkg/errors"

	"github.com/hscells/strata/dataset"
	"github.com/hscells/strata/eval"
	"github.com/hscells/strata/learning"
	"github.com/hscells/strata/output"
	"github.com/hscells/strata/sample"
	"github.com/hscells/strata/search"
	"github.com/hscells/strata/split"
)

// Pipeline contains all the information for executing one model-comparison
// experiment.
type Pipeline struct {
	Source     dataset.Source
	Experiment Experiment
	Learner    learning.Learner
	Grid       learning.Grid
	Measure    eval.Evaluator
	Cache      search.ScoreCacher
	// Sampler creates the balancer applied to training data before every
	// fit. Nil means majority-class downsampling.
	Sampler               func(seed int64) sample.Sampler
	LeaderboardFormatters []output.LeaderboardFormatter
	EvaluationFormatters  []output.EvaluationFormatter
	ImportanceFormatters  []output.ImportanceFormatter
	// Verbose draws a progress bar over the candidate grid.
	Verbose bool
}

// LeaderboardOutput adds leaderboard formatters to the pipeline.
func LeaderboardOutput(formatter ...output.LeaderboardFormatter) func() interface{} {
	return func() interface{} {
		return formatter
	}
}

// EvaluationOutput adds test evaluation formatters to the pipeline.
func EvaluationOutput(formatter ...output.EvaluationFormatter) func() interface{} {
	return func() interface{} {
		return formatter
	}
}

// ImportanceOutput adds feature importance formatters to the pipeline.
func ImportanceOutput(formatter ...output.ImportanceFormatter) func() interface{} {
	return func() interface{} {
		return formatter
	}
}

// NewPipeline creates a new strata pipeline. The dataset source and the
// experiment configuration are required. Output formatters are provided via
// the optional functional arguments.
func NewPipeline(source dataset.Source, experiment Experiment, components ...func() interface{}) (Pipeline, error) {
	learner, err := learning.ByName(experiment.ModelFamily)
	if err != nil {
		return Pipeline{}, err
	}
	measure, err := eval.ByName(experiment.Metric)
	if err != nil {
		return Pipeline{}, err
	}
	grid, err := experiment.Grid()
	if err != nil {
		return Pipeline{}, err
	}

	p := Pipeline{
		Source:     source,
		Experiment: experiment,
		Learner:    learner,
		Grid:       grid,
		Measure:    measure,
	}
	if len(experiment.CacheDir) > 0 {
		p.Cache = search.NewDiskScoreCache(experiment.CacheDir)
	}

	for _, component := range components {
		val := component()
		switch v := val.(type) {
		case []output.LeaderboardFormatter:
			p.LeaderboardFormatters = v
		case []output.EvaluationFormatter:
			p.EvaluationFormatters = v
		case []output.ImportanceFormatter:
			p.ImportanceFormatters = v
		}
	}

	return p, nil
}

func (p Pipeline) sampler(seed int64) sample.Sampler {
	if p.Sampler != nil {
		return p.Sampler(seed)
	}
	return sample.NewDownSampler(seed)
}

func (p Pipeline) fail(c chan Result, runID string, err error) {
	c <- Result{
		RunID: runID,
		Type:  Error,
		Error: err,
	}
}

// Execute runs a strata pipeline, streaming results over the channel: the
// ranked leaderboard, the selected configuration, the held-out test
// evaluation, and the final model's feature importances.
func (p Pipeline) Execute(c chan Result) {
	defer close(c)
	runID := uuid.New().String()
	log.Println("starting strata pipeline...")

	ds, err := p.Source.Load()
	if err != nil {
		p.fail(c, runID, err)
		return
	}
	log.Printf("loaded %d records over %d fields", ds.Len(), len(ds.Fields))

	spl, err := split.Stratified(ds, p.Experiment.Fractions, p.Experiment.Seed)
	if err != nil {
		p.fail(c, runID, err)
		return
	}
	log.Printf("split dataset into %d train, %d validation, %d test records",
		spl.Train.Len(), spl.Validation.Len(), spl.Test.Len())

	gs := search.GridSearch{
		Learner:     p.Learner,
		Grid:        p.Grid,
		Measure:     p.Measure,
		Seed:        p.Experiment.Seed,
		Concurrency: p.Experiment.Concurrency,
		Cache:       p.Cache,
		Sampler:     p.Sampler,
		Progress:    p.Verbose,
	}
	log.Printf("evaluating %d candidates...", len(p.Grid))
	results, err := gs.Evaluate(spl.Train, spl.Validation)
	if err != nil {
		p.fail(c, runID, err)
		return
	}

	leaderboard := Result{
		RunID:       runID,
		Type:        Leaderboard,
		Leaderboard: search.Rank(results),
	}
	for _, format := range p.LeaderboardFormatters {
		s, err := format(results)
		if err != nil {
			p.fail(c, runID, err)
			return
		}
		leaderboard.Formatted = append(leaderboard.Formatted, s)
	}
	c <- leaderboard

	best, err := search.SelectBest(results)
	if err != nil {
		p.fail(c, runID, err)
		return
	}
	if best.Err != nil || math.IsInf(best.Score, -1) {
		p.fail(c, runID, perrors.Wrap(learning.FitError, "every candidate in the grid failed to fit"))
		return
	}
	log.Printf("selected candidate %d (%v) scoring %v", best.Index, best.Params, best.Score)
	c <- Result{
		RunID:    runID,
		Type:     Selection,
		Selected: &best,
	}

	// Refit the selected configuration on train+validation. Candidate seeds
	// are derived as seed+index+1, so using the experiment seed here cannot
	// collide with any candidate's seed.
	combined := dataset.NewTrainingSet(dataset.Concat(spl.Train.Dataset, spl.Validation.Dataset))
	balanced, err := p.sampler(p.Experiment.Seed).Sample(combined)
	if err != nil {
		p.fail(c, runID, err)
		return
	}
	model, err := p.Learner.Fit(balanced, best.Params, p.Experiment.Seed)
	if err != nil {
		// The comparison requires the exact selected configuration; there is
		// no fallback model.
		p.fail(c, runID, err)
		return
	}

	predictions := model.Predict(spl.Test.Records)
	labels := make([]bool, spl.Test.Len())
	positive := ds.PositiveLabel()
	for i, r := range spl.Test.Records {
		labels[i] = r.Label == positive
	}
	evaluation := map[string]float64{
		p.Measure.Name(): p.Measure.Score(predictions, labels),
	}
	log.Printf("test %s: %v", p.Measure.Name(), evaluation[p.Measure.Name()])

	testResult := Result{
		RunID:      runID,
		Type:       TestEvaluation,
		Evaluation: evaluation,
	}
	for _, format := range p.EvaluationFormatters {
		s, err := format(evaluation)
		if err != nil {
			p.fail(c, runID, err)
			return
		}
		testResult.Formatted = append(testResult.Formatted, s)
	}
	c <- testResult

	if reporter, ok := model.(learning.ImportanceReporter); ok {
		importances := Result{
			RunID:       runID,
			Type:        Importance,
			Importances: reporter.Importances(),
		}
		for _, format := range p.ImportanceFormatters {
			s, err := format(importances.Importances)
			if err != nil {
				p.fail(c, runID, err)
				return
			}
			importances.Formatted = append(importances.Formatted, s)
		}
		c <- importances
	}

	c <- Result{
		RunID: runID,
		Type:  Done,
	}
}
