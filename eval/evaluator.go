// Package eval provides evaluation measures for scoring fitted models.
package eval

import (
	"github.com/pkg/errors"
)

// Evaluator is an interface for scoring a model's predictions against the
// true labels. Predictions are positive-class scores aligned index-for-index
// with labels, where a true label marks a positive record.
type Evaluator interface {
	Score(predictions []float64, labels []bool) float64
	Name() string
}

// Evaluate scores predictions using all of the supplied evaluation measures.
func Evaluate(evaluators []Evaluator, predictions []float64, labels []bool) map[string]float64 {
	scores := make(map[string]float64, len(evaluators))
	for _, evaluator := range evaluators {
		scores[evaluator.Name()] = evaluator.Score(predictions, labels)
	}
	return scores
}

// ByName resolves an evaluation measure from its configuration key.
func ByName(name string) (Evaluator, error) {
	switch name {
	case "roc_auc":
		return ROCAUC, nil
	case "accuracy":
		return Accuracy, nil
	case "precision":
		return Precision, nil
	case "recall":
		return Recall, nil
	case "f1":
		return F1Measure, nil
	}
	return nil, errors.Errorf("unrecognised evaluation measure `%s`", name)
}
