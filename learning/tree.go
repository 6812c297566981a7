package learning

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/hscells/strata/dataset"
)

// maxSplitCandidates caps the number of candidate thresholds (or categories)
// considered per field at a node, to bound fitting cost on wide numeric
// columns.
const maxSplitCandidates = 32

type treeConfig struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int // 0 means consider every field at every node.
}

// treeNode is one node of a fitted decision tree. Leaves carry the
// positive-class fraction of the training records that reached them.
type treeNode struct {
	prob      float64
	field     string
	kind      dataset.Kind
	threshold float64
	category  string
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// goesLeft routes a record down the tree. Numeric values below the threshold
// go left; categorical values equal to the split category go left; missing
// values always go right.
func (n *treeNode) goesLeft(r dataset.Record) bool {
	v, ok := r.Values[n.field]
	if !ok || v.Missing {
		return false
	}
	if n.kind == dataset.Numeric {
		return v.Number < n.threshold
	}
	return v.Text == n.category
}

func (n *treeNode) predict(r dataset.Record) float64 {
	for !n.isLeaf() {
		if n.goesLeft(r) {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.prob
}

// Entropy computes the binary entropy of a class distribution.
func Entropy(positive, negative float64) float64 {
	if negative == 0 || positive == 0 {
		return 0
	}
	samples := positive + negative
	return -((positive / samples) * math.Log2(positive/samples)) - ((negative / samples) * math.Log2(negative/samples))
}

// candidateSplit is one possible way to partition the records at a node.
type candidateSplit struct {
	field     dataset.Field
	threshold float64
	category  string
	gain      float64
}

func (s candidateSplit) goesLeft(r dataset.Record) bool {
	v, ok := r.Values[s.field.Name]
	if !ok || v.Missing {
		return false
	}
	if s.field.Kind == dataset.Numeric {
		return v.Number < s.threshold
	}
	return v.Text == s.category
}

// InformationGain computes the reduction in entropy achieved by splitting
// the records with the candidate split.
func InformationGain(records []dataset.Record, positive string, s candidateSplit) float64 {
	var lhsPos, lhsNeg, rhsPos, rhsNeg float64
	for _, r := range records {
		if s.goesLeft(r) {
			if r.Label == positive {
				lhsPos++
			} else {
				lhsNeg++
			}
		} else {
			if r.Label == positive {
				rhsPos++
			} else {
				rhsNeg++
			}
		}
	}
	total := lhsPos + lhsNeg + rhsPos + rhsNeg
	before := Entropy(lhsPos+rhsPos, lhsNeg+rhsNeg)
	after := ((lhsPos+lhsNeg)/total)*Entropy(lhsPos, lhsNeg) +
		((rhsPos+rhsNeg)/total)*Entropy(rhsPos, rhsNeg)
	return before - after
}

// thresholds returns the candidate numeric thresholds for a field: midpoints
// between consecutive distinct values, strided down to the candidate cap.
func thresholds(records []dataset.Record, field string) []float64 {
	var values []float64
	for _, r := range records {
		if v, ok := r.Values[field]; ok && !v.Missing {
			values = append(values, v.Number)
		}
	}
	sort.Float64s(values)
	var mids []float64
	for i := 1; i < len(values); i++ {
		if values[i] != values[i-1] {
			mids = append(mids, (values[i]+values[i-1])/2)
		}
	}
	if len(mids) > maxSplitCandidates {
		stride := len(mids) / maxSplitCandidates
		strided := make([]float64, 0, maxSplitCandidates)
		for i := 0; i < len(mids) && len(strided) < maxSplitCandidates; i += stride {
			strided = append(strided, mids[i])
		}
		mids = strided
	}
	return mids
}

// categories returns the candidate split categories for a field, sorted for
// determinism and capped like numeric thresholds.
func categories(records []dataset.Record, field string) []string {
	seen := make(map[string]bool)
	var cats []string
	for _, r := range records {
		if v, ok := r.Values[field]; ok && !v.Missing && !seen[v.Text] {
			seen[v.Text] = true
			cats = append(cats, v.Text)
		}
	}
	sort.Strings(cats)
	if len(cats) > maxSplitCandidates {
		cats = cats[:maxSplitCandidates]
	}
	return cats
}

// bestSplit searches the (possibly subsampled) fields for the split with the
// highest information gain that leaves at least minLeaf records on each side.
func bestSplit(records []dataset.Record, fields []dataset.Field, positive string, cfg treeConfig, rng *rand.Rand) (candidateSplit, bool) {
	candidates := fields
	if cfg.maxFeatures > 0 && cfg.maxFeatures < len(fields) {
		perm := rng.Perm(len(fields))[:cfg.maxFeatures]
		sort.Ints(perm)
		candidates = make([]dataset.Field, len(perm))
		for i, idx := range perm {
			candidates[i] = fields[idx]
		}
	}

	var best candidateSplit
	found := false
	consider := func(s candidateSplit) {
		nLeft := 0
		for _, r := range records {
			if s.goesLeft(r) {
				nLeft++
			}
		}
		if nLeft < cfg.minLeaf || len(records)-nLeft < cfg.minLeaf {
			return
		}
		s.gain = InformationGain(records, positive, s)
		if s.gain > 0 && (!found || s.gain > best.gain) {
			best = s
			found = true
		}
	}

	for _, field := range candidates {
		if field.Kind == dataset.Numeric {
			for _, t := range thresholds(records, field.Name) {
				consider(candidateSplit{field: field, threshold: t})
			}
		} else {
			for _, c := range categories(records, field.Name) {
				consider(candidateSplit{field: field, category: c})
			}
		}
	}
	return best, found
}

func buildTree(records []dataset.Record, fields []dataset.Field, positive string, cfg treeConfig, depth int, rng *rand.Rand, importance map[string]float64) *treeNode {
	var pos float64
	for _, r := range records {
		if r.Label == positive {
			pos++
		}
	}
	node := &treeNode{prob: pos / float64(len(records))}

	if depth >= cfg.maxDepth || pos == 0 || pos == float64(len(records)) || len(records) < 2*cfg.minLeaf {
		return node
	}
	split, ok := bestSplit(records, fields, positive, cfg, rng)
	if !ok {
		return node
	}

	importance[split.field.Name] += split.gain * float64(len(records))

	var lhs, rhs []dataset.Record
	for _, r := range records {
		if split.goesLeft(r) {
			lhs = append(lhs, r)
		} else {
			rhs = append(rhs, r)
		}
	}

	node.field = split.field.Name
	node.kind = split.field.Kind
	node.threshold = split.threshold
	node.category = split.category
	node.left = buildTree(lhs, fields, positive, cfg, depth+1, rng, importance)
	node.right = buildTree(rhs, fields, positive, cfg, depth+1, rng, importance)
	return node
}

// normalizeImportance scales gain-weighted importances so they sum to 1.
func normalizeImportance(importance map[string]float64) map[string]float64 {
	values := make([]float64, 0, len(importance))
	for _, v := range importance {
		values = append(values, v)
	}
	sum := floats.Sum(values)
	normalized := make(map[string]float64, len(importance))
	for k, v := range importance {
		if sum > 0 {
			normalized[k] = v / sum
		} else {
			normalized[k] = 0
		}
	}
	return normalized
}

// DecisionTreeLearner fits a single CART-style decision tree on entropy /
// information gain.
//
// Hyper-parameters: max_depth (default 8), min_samples_leaf (default 1).
type DecisionTreeLearner struct{}

// Name identifies the decision tree model family.
func (DecisionTreeLearner) Name() string {
	return "decision_tree"
}

// Fit grows a decision tree on the training records.
func (DecisionTreeLearner) Fit(train dataset.TrainingSet, params Params, seed int64) (Model, error) {
	if train.Len() == 0 {
		return nil, errors.Wrap(FitError, "training set contains no records")
	}
	if len(train.Fields) == 0 {
		return nil, errors.Wrap(FitError, "training set contains no feature fields")
	}
	cfg := treeConfig{
		maxDepth: int(params.Get("max_depth", 8)),
		minLeaf:  int(params.Get("min_samples_leaf", 1)),
	}
	if cfg.maxDepth < 1 || cfg.minLeaf < 1 {
		return nil, errors.Wrap(FitError, "max_depth and min_samples_leaf must be at least 1")
	}
	rng := rand.New(rand.NewSource(seed))
	importance := make(map[string]float64)
	root := buildTree(train.Records, train.Fields, train.PositiveLabel(), cfg, 0, rng, importance)
	return &DecisionTree{
		root:       root,
		importance: normalizeImportance(importance),
	}, nil
}

// DecisionTree is a fitted decision tree.
type DecisionTree struct {
	root       *treeNode
	importance map[string]float64
}

// Predict returns the positive-class fraction of the leaf each record
// reaches.
func (t *DecisionTree) Predict(records []dataset.Record) []float64 {
	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = t.root.predict(r)
	}
	return scores
}

// Importances returns the normalised gain-weighted importance of each
// feature used by the tree.
func (t *DecisionTree) Importances() map[string]float64 {
	importance := make(map[string]float64, len(t.importance))
	for k, v := range t.importance {
		importance[k] = v
	}
	return importance
}
