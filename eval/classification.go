package eval

import (
	"fmt"
	"math"
)

// Threshold is the decision boundary applied to positive-class scores by the
// threshold-dependent measures below.
const Threshold = 0.5

type accuracyEvaluator struct{}
type precisionEvaluator struct{}
type recallEvaluator struct{}

// FMeasure computes f-measure, with the beta parameter controlling the
// precision and recall trade-off.
type FMeasure struct {
	beta float64
}

var (
	// Accuracy calculates the fraction of correctly classified records.
	Accuracy = accuracyEvaluator{}
	// Precision calculates the fraction of predicted positives that are positive.
	Precision = precisionEvaluator{}
	// Recall calculates the fraction of positives that are predicted positive.
	Recall = recallEvaluator{}

	// F1Measure is f-measure with beta=1.
	F1Measure = FMeasure{beta: 1}
	// F05Measure is f-measure with beta=0.5.
	F05Measure = FMeasure{beta: 0.5}
	// F3Measure is f-measure with beta=3.
	F3Measure = FMeasure{beta: 3}
)

func confusion(predictions []float64, labels []bool) (tp, fp, tn, fn float64) {
	for i, p := range predictions {
		predicted := p >= Threshold
		switch {
		case predicted && labels[i]:
			tp++
		case predicted && !labels[i]:
			fp++
		case !predicted && !labels[i]:
			tn++
		default:
			fn++
		}
	}
	return
}

func (accuracyEvaluator) Name() string {
	return "Accuracy"
}

func (accuracyEvaluator) Score(predictions []float64, labels []bool) float64 {
	if len(predictions) == 0 {
		return 0.0
	}
	tp, _, tn, _ := confusion(predictions, labels)
	return (tp + tn) / float64(len(predictions))
}

func (precisionEvaluator) Name() string {
	return "Precision"
}

func (precisionEvaluator) Score(predictions []float64, labels []bool) float64 {
	tp, fp, _, _ := confusion(predictions, labels)
	if tp+fp == 0 {
		return 0.0
	}
	return tp / (tp + fp)
}

func (recallEvaluator) Name() string {
	return "Recall"
}

func (recallEvaluator) Score(predictions []float64, labels []bool) float64 {
	tp, _, _, fn := confusion(predictions, labels)
	if tp+fn == 0 {
		return 0.0
	}
	return tp / (tp + fn)
}

// Score uses the beta parameter to compute f-measure.
func (f FMeasure) Score(predictions []float64, labels []bool) float64 {
	precision := Precision.Score(predictions, labels)
	recall := Recall.Score(predictions, labels)
	if precision == 0 || recall == 0 {
		return 0
	}
	betaSquared := math.Pow(f.beta, 2)
	return ((1 + betaSquared) * (precision * recall)) / ((betaSquared * precision) + recall)
}

// Name calculates the name of the f-measure with beta parameter.
func (f FMeasure) Name() string {
	return fmt.Sprintf("F%vMeasure", f.beta)
}
