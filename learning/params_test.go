package learning_test

import (
	"testing"

	"github.com/hscells/strata/learning"
)

func TestCartesianGridCoverage(t *testing.T) {
	grid := learning.CartesianGrid(map[string][]float64{
		"max_depth":        {2, 4, 8},
		"min_samples_leaf": {1, 5},
	})

	if len(grid) != 6 {
		t.Fatalf("expected 6 combinations, got %d", len(grid))
	}

	seen := make(map[string]bool)
	for _, p := range grid {
		seen[p.String()] = true
	}
	if len(seen) != 6 {
		t.Fatalf("grid contains duplicate combinations: %v", grid)
	}

	// Axes enumerate in sorted-key, row-major order.
	if grid[0].Get("max_depth", 0) != 2 || grid[0].Get("min_samples_leaf", 0) != 1 {
		t.Fatalf("unexpected first combination %v", grid[0])
	}
	if grid[1].Get("max_depth", 0) != 2 || grid[1].Get("min_samples_leaf", 0) != 5 {
		t.Fatalf("unexpected second combination %v", grid[1])
	}
}

func TestCartesianGridEmpty(t *testing.T) {
	if grid := learning.CartesianGrid(nil); grid != nil {
		t.Fatalf("expected no grid for no axes, got %v", grid)
	}
}

func TestRandomGridSizeAndDeterminism(t *testing.T) {
	space := learning.Space{
		"num_trees": learning.IntRange{5, 50},
		"max_depth": learning.IntRange{2, 12},
		"subsample": learning.Range{0.1, 1.0},
	}

	a := learning.RandomGrid(25, 42, space)
	if len(a) != 25 {
		t.Fatalf("expected 25 combinations, got %d", len(a))
	}

	b := learning.RandomGrid(25, 42, space)
	for i := range a {
		if a[i].String() != b[i].String() {
			t.Fatal("identical seeds produced different grids")
		}
	}

	for _, p := range a {
		if v := p.Get("num_trees", -1); v < 5 || v > 50 {
			t.Fatalf("num_trees %v out of range", v)
		}
		if v := p.Get("subsample", -1); v < 0.1 || v > 1.0 {
			t.Fatalf("subsample %v out of range", v)
		}
	}
}

func TestRandomGridDeduplicates(t *testing.T) {
	// A space with only four distinct combinations cannot yield more.
	space := learning.Space{
		"a": learning.List{1, 2},
		"b": learning.List{1, 2},
	}
	grid := learning.RandomGrid(25, 1, space)
	if len(grid) != 4 {
		t.Fatalf("expected 4 distinct combinations, got %d", len(grid))
	}
	seen := make(map[string]bool)
	for _, p := range grid {
		if seen[p.String()] {
			t.Fatalf("duplicate combination %v", p)
		}
		seen[p.String()] = true
	}
}

func TestParamsGet(t *testing.T) {
	p := learning.Params{"max_depth": 4}
	if p.Get("max_depth", 8) != 4 {
		t.Fatal("existing parameter not returned")
	}
	if p.Get("min_samples_leaf", 1) != 1 {
		t.Fatal("default not returned for a missing parameter")
	}
}
