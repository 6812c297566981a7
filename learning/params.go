package learning

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Params is a set of hyper-parameters used to configure a model fit.
type Params map[string]float64

// Get returns the value of the parameter by name if it exists and the dflt
// value otherwise.
func (p Params) Get(name string, dflt float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return dflt
}

// String renders the parameters in sorted-key order, giving a stable
// identity for deduplication and caching.
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%s=%v", k, p[k])
	}
	return b.String()
}

// Grid is a set of hyper-parameter combinations to evaluate.
type Grid []Params

// Dimension is one axis of a hyper-parameter space that random grids sample
// combinations from.
type Dimension interface {
	sample(rng *rand.Rand) float64
}

// Range is an open float range specified by min and max values.
type Range [2]float64

func (r Range) sample(rng *rand.Rand) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}

// IntRange is a closed integer range specified by min and max values.
type IntRange [2]int

func (r IntRange) sample(rng *rand.Rand) float64 {
	return float64(r[0] + rng.Intn(r[1]-r[0]+1))
}

// List is a list of possible parameter values.
type List []float64

func (l List) sample(rng *rand.Rand) float64 {
	return l[rng.Intn(len(l))]
}

// Value is a single value parameter.
type Value float64

func (v Value) sample(*rand.Rand) float64 {
	return float64(v)
}

// Space is a hyper-parameter space too large to enumerate exactly, sampled
// by RandomGrid.
type Space map[string]Dimension

// CartesianGrid enumerates the full cartesian product of the given axes in
// deterministic (sorted-key, row-major) order.
func CartesianGrid(axes map[string][]float64) Grid {
	keys := make([]string, 0, len(axes))
	for k := range axes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	grid := Grid{Params{}}
	for _, k := range keys {
		var next Grid
		for _, p := range grid {
			for _, v := range axes[k] {
				q := make(Params, len(p)+1)
				for name, value := range p {
					q[name] = value
				}
				q[k] = v
				next = append(next, q)
			}
		}
		grid = next
	}
	if len(grid) == 1 && len(grid[0]) == 0 {
		return nil
	}
	return grid
}

// RandomGrid draws a fixed-size sample of n combinations from a
// hyper-parameter space using a seeded source, deduplicating repeated
// combinations. The same seed always yields the same grid.
func RandomGrid(n int, seed int64, space Space) Grid {
	keys := make([]string, 0, len(space))
	for k := range space {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rng := rand.New(rand.NewSource(seed))
	grid := make(Grid, 0, n)
	seen := make(map[string]bool)
	// Allow a bounded number of redraws when sampling collides, so small
	// discrete spaces cannot loop forever.
	for attempts := 0; len(grid) < n && attempts < n*100; attempts++ {
		p := make(Params, len(keys))
		for _, k := range keys {
			p[k] = space[k].sample(rng)
		}
		id := p.String()
		if seen[id] {
			continue
		}
		seen[id] = true
		grid = append(grid, p)
	}
	return grid
}
