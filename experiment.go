package strata

import (
	"strconv"
	"strings"

	"github.com/magiconair/properties"
	perrors "github.com/pkg/errors"

	"github.com/hscells/strata/learning"
	"github.com/hscells/strata/split"
)

// Experiment is the configuration surface of one model-comparison run. The
// pipeline consumes these parameters verbatim; nothing here is mutated while
// a pipeline executes.
type Experiment struct {
	// LabelField names the binary label column of the dataset.
	LabelField string
	// Positive names the label value treated as the positive class. Empty
	// means the lexicographically largest label value.
	Positive string
	// Fractions configures the three-way stratified split.
	Fractions split.Fractions
	// Seed makes the whole run reproducible.
	Seed int64
	// Metric names the evaluation measure candidates are scored with.
	Metric string
	// ModelFamily selects the learner to tune.
	ModelFamily string
	// GridAxes enumerates explicit hyper-parameter values. When set, the
	// full cartesian grid is evaluated.
	GridAxes map[string][]float64
	// GridSpace defines a sampled hyper-parameter space used when GridAxes
	// is empty, e.g. for the random forest family.
	GridSpace learning.Space
	// GridSize is the number of combinations drawn from GridSpace.
	GridSize int
	// Concurrency bounds the candidate worker pool. Zero means NumCPU.
	Concurrency int
	// CacheDir enables the on-disk candidate score cache when non-empty.
	CacheDir string
}

// Grid materialises the hyper-parameter grid for the experiment.
func (e Experiment) Grid() (learning.Grid, error) {
	if len(e.GridAxes) > 0 {
		return learning.CartesianGrid(e.GridAxes), nil
	}
	if len(e.GridSpace) == 0 {
		return nil, perrors.New("experiment configures neither grid axes nor a grid space")
	}
	if e.GridSize < 1 {
		return nil, perrors.New("a sampled grid needs a positive grid size")
	}
	return learning.RandomGrid(e.GridSize, e.Seed, e.GridSpace), nil
}

// Property keys understood by LoadExperiment. Grid axes and space dimensions
// use key suffixes: strata.grid.axis.<param> holds a comma-separated value
// list, strata.space.<param> holds "min,max" (float range), "int:min,max"
// (integer range), or "list:v1,v2,..." (value list).
const (
	labelKey       = "strata.label"
	positiveKey    = "strata.positive"
	trainKey       = "strata.fractions.train"
	validationKey  = "strata.fractions.validation"
	testKey        = "strata.fractions.test"
	seedKey        = "strata.seed"
	metricKey      = "strata.metric"
	modelKey       = "strata.model"
	gridSizeKey    = "strata.grid.size"
	gridAxisKey    = "strata.grid.axis."
	spaceKey       = "strata.space."
	concurrencyKey = "strata.concurrency"
	cacheKey       = "strata.cache"
)

// LoadExperiment reads an experiment configuration from a properties file.
func LoadExperiment(path string) (Experiment, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return Experiment{}, perrors.Wrap(err, "could not load experiment properties")
	}

	e := Experiment{
		LabelField: p.GetString(labelKey, ""),
		Positive:   p.GetString(positiveKey, ""),
		Fractions: split.Fractions{
			Train:      p.GetFloat64(trainKey, 0.64),
			Validation: p.GetFloat64(validationKey, 0.16),
			Test:       p.GetFloat64(testKey, 0.20),
		},
		Seed:        p.GetInt64(seedKey, 42),
		Metric:      p.GetString(metricKey, "roc_auc"),
		ModelFamily: p.GetString(modelKey, "decision_tree"),
		GridSize:    p.GetInt(gridSizeKey, 25),
		Concurrency: p.GetInt(concurrencyKey, 0),
		CacheDir:    p.GetString(cacheKey, ""),
	}
	if len(e.LabelField) == 0 {
		return Experiment{}, perrors.Errorf("experiment must set %s", labelKey)
	}

	for _, key := range p.Keys() {
		value := p.GetString(key, "")
		switch {
		case strings.HasPrefix(key, gridAxisKey):
			param := strings.TrimPrefix(key, gridAxisKey)
			axis, err := parseFloats(value)
			if err != nil {
				return Experiment{}, perrors.Wrapf(err, "could not parse grid axis %s", param)
			}
			if e.GridAxes == nil {
				e.GridAxes = make(map[string][]float64)
			}
			e.GridAxes[param] = axis
		case strings.HasPrefix(key, spaceKey):
			param := strings.TrimPrefix(key, spaceKey)
			dim, err := parseDimension(value)
			if err != nil {
				return Experiment{}, perrors.Wrapf(err, "could not parse space dimension %s", param)
			}
			if e.GridSpace == nil {
				e.GridSpace = make(learning.Space)
			}
			e.GridSpace[param] = dim
		}
	}

	return e, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	values := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func parseDimension(s string) (learning.Dimension, error) {
	switch {
	case strings.HasPrefix(s, "int:"):
		values, err := parseFloats(strings.TrimPrefix(s, "int:"))
		if err != nil {
			return nil, err
		}
		if len(values) != 2 {
			return nil, perrors.New("integer ranges need exactly a min and a max")
		}
		return learning.IntRange{int(values[0]), int(values[1])}, nil
	case strings.HasPrefix(s, "list:"):
		values, err := parseFloats(strings.TrimPrefix(s, "list:"))
		if err != nil {
			return nil, err
		}
		return learning.List(values), nil
	default:
		values, err := parseFloats(s)
		if err != nil {
			return nil, err
		}
		if len(values) == 1 {
			return learning.Value(values[0]), nil
		}
		if len(values) != 2 {
			return nil, perrors.New("float ranges need exactly a min and a max")
		}
		return learning.Range{values[0], values[1]}, nil
	}
}
