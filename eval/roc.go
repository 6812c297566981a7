package eval

import (
	"sort"

	"gonum.org/v1/gonum/integrate"
)

type rocAUC struct{}

// ROCAUC calculates the area under the receiver-operating-characteristic
// curve for the positive class. It is threshold independent: 1.0 means the
// model ranks every positive record above every negative one, 0.5 is chance.
var ROCAUC = rocAUC{}

func (rocAUC) Name() string {
	return "ROC-AUC"
}

func (rocAUC) Score(predictions []float64, labels []bool) float64 {
	numPos, numNeg := 0.0, 0.0
	for _, l := range labels {
		if l {
			numPos++
		} else {
			numNeg++
		}
	}
	// The curve is undefined when only one class is present.
	if numPos == 0 || numNeg == 0 {
		return 0.0
	}

	// Sweep the decision threshold from high to low, grouping tied scores so
	// ties contribute a single point on the curve.
	order := make([]int, len(predictions))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return predictions[order[i]] > predictions[order[j]]
	})

	tpr := []float64{0}
	fpr := []float64{0}
	tp, fp := 0.0, 0.0
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && predictions[order[j]] == predictions[order[i]] {
			if labels[order[j]] {
				tp++
			} else {
				fp++
			}
			j++
		}
		tpr = append(tpr, tp/numPos)
		fpr = append(fpr, fp/numNeg)
		i = j
	}

	return integrate.Trapezoidal(fpr, tpr)
}
