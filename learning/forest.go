package learning

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/hscells/strata/dataset"
)

// RandomForestLearner fits a bagged ensemble of decision trees, each grown on
// a bootstrap sample of the training records with a random feature subset
// considered at every node.
//
// Hyper-parameters: num_trees (default 25), max_depth (default 12),
// min_samples_leaf (default 1), max_features (default sqrt of the number of
// feature fields).
type RandomForestLearner struct{}

// Name identifies the random forest model family.
func (RandomForestLearner) Name() string {
	return "random_forest"
}

// Fit grows the forest. The same seed always grows the same forest.
func (RandomForestLearner) Fit(train dataset.TrainingSet, params Params, seed int64) (Model, error) {
	if train.Len() == 0 {
		return nil, errors.Wrap(FitError, "training set contains no records")
	}
	if len(train.Fields) == 0 {
		return nil, errors.Wrap(FitError, "training set contains no feature fields")
	}

	numTrees := int(params.Get("num_trees", 25))
	if numTrees < 1 {
		return nil, errors.Wrap(FitError, "num_trees must be at least 1")
	}
	maxFeatures := int(params.Get("max_features", 0))
	if maxFeatures <= 0 {
		maxFeatures = int(math.Ceil(math.Sqrt(float64(len(train.Fields)))))
	}
	cfg := treeConfig{
		maxDepth:    int(params.Get("max_depth", 12)),
		minLeaf:     int(params.Get("min_samples_leaf", 1)),
		maxFeatures: maxFeatures,
	}
	if cfg.maxDepth < 1 || cfg.minLeaf < 1 {
		return nil, errors.Wrap(FitError, "max_depth and min_samples_leaf must be at least 1")
	}

	rng := rand.New(rand.NewSource(seed))
	positive := train.PositiveLabel()

	trees := make([]*treeNode, numTrees)
	importance := make(map[string]float64)
	for i := range trees {
		// Bootstrap sample: draw len(records) records with replacement.
		boot := make([]dataset.Record, train.Len())
		for j := range boot {
			boot[j] = train.Records[rng.Intn(train.Len())]
		}
		treeImportance := make(map[string]float64)
		trees[i] = buildTree(boot, train.Fields, positive, cfg, 0, rng, treeImportance)
		for k, v := range treeImportance {
			importance[k] += v
		}
	}

	return &RandomForest{
		trees:      trees,
		importance: normalizeImportance(importance),
	}, nil
}

// RandomForest is a fitted ensemble of decision trees.
type RandomForest struct {
	trees      []*treeNode
	importance map[string]float64
}

// Predict returns the mean positive-class score over all trees for each
// record.
func (f *RandomForest) Predict(records []dataset.Record) []float64 {
	scores := make([]float64, len(records))
	for i, r := range records {
		sum := 0.0
		for _, t := range f.trees {
			sum += t.predict(r)
		}
		scores[i] = sum / float64(len(f.trees))
	}
	return scores
}

// Importances returns the normalised gain-weighted importance of each
// feature, accumulated across all trees in the forest.
func (f *RandomForest) Importances() map[string]float64 {
	importance := make(map[string]float64, len(f.importance))
	for k, v := range f.importance {
		importance[k] = v
	}
	return importance
}
