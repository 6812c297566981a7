// Package learning provides the model families compared by strata
// experiments and the hyper-parameter grids used to tune them.
package learning

import (
	"errors"

	perrors "github.com/pkg/errors"

	"github.com/hscells/strata/dataset"
)

// FitError indicates a model could not be fit to the given training data.
var FitError = errors.New("model fitting failed")

// Learner is an abstract representation of a model family: an opaque
// capability that fits a model to training data under a set of
// hyper-parameters. The seed makes any internal randomness reproducible.
type Learner interface {
	// Name identifies the model family.
	Name() string
	// Fit must fit a model to the training data.
	Fit(train dataset.TrainingSet, params Params, seed int64) (Model, error)
}

// Model is a fitted model able to score unseen records.
type Model interface {
	// Predict returns a positive-class score in [0,1] for each record.
	Predict(records []dataset.Record) []float64
}

// ImportanceReporter is implemented by models that can rank the features
// they were fit on by relative importance.
type ImportanceReporter interface {
	// Importances returns a relative importance score per feature name,
	// normalised to sum to 1.
	Importances() map[string]float64
}

// ByName resolves a model family from its configuration key.
func ByName(name string) (Learner, error) {
	switch name {
	case "decision_tree":
		return DecisionTreeLearner{}, nil
	case "random_forest":
		return RandomForestLearner{}, nil
	}
	return nil, perrors.Errorf("unrecognised model family `%s`", name)
}
