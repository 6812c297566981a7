package split_test

import (
	"math"
	"testing"

	"github.com/hscells/strata/dataset"
	"github.com/hscells/strata/split"
)

// synthetic creates a dataset with the given number of records per label.
func synthetic(counts map[string]int) dataset.Dataset {
	ds := dataset.Dataset{
		Fields:     []dataset.Field{{Name: "x", Kind: dataset.Numeric}},
		LabelField: "label",
	}
	id := 0
	for _, label := range []string{"Not remote", "Remote"} {
		for i := 0; i < counts[label]; i++ {
			ds.Records = append(ds.Records, dataset.Record{
				ID:     id,
				Values: map[string]dataset.Value{"x": {Number: float64(id)}},
				Label:  label,
			})
			id++
		}
	}
	return ds
}

func ids(ds dataset.Dataset) []int {
	return ds.IDs()
}

func TestStratifiedDeterminism(t *testing.T) {
	ds := synthetic(map[string]int{"Remote": 80, "Not remote": 20})
	f := split.Fractions{Train: 0.64, Validation: 0.16, Test: 0.20}

	a, err := split.Stratified(ds, f, 42)
	if err != nil {
		t.Fatal(err)
	}
	b, err := split.Stratified(ds, f, 42)
	if err != nil {
		t.Fatal(err)
	}

	for name, pair := range map[string][2][]int{
		"train":      {ids(a.Train.Dataset), ids(b.Train.Dataset)},
		"validation": {ids(a.Validation.Dataset), ids(b.Validation.Dataset)},
		"test":       {ids(a.Test.Dataset), ids(b.Test.Dataset)},
	} {
		if len(pair[0]) != len(pair[1]) {
			t.Fatalf("%s subsets differ in size between identical runs", name)
		}
		for i := range pair[0] {
			if pair[0][i] != pair[1][i] {
				t.Fatalf("%s subsets differ between identical runs", name)
			}
		}
	}

	// A different seed should shuffle records differently.
	c, err := split.Stratified(ds, f, 43)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	ca, aa := ids(c.Train.Dataset), ids(a.Train.Dataset)
	if len(ca) != len(aa) {
		same = false
	} else {
		for i := range ca {
			if ca[i] != aa[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatal("different seeds produced identical train subsets")
	}
}

func TestStratifiedPartition(t *testing.T) {
	ds := synthetic(map[string]int{"Remote": 800, "Not remote": 200})
	f := split.Fractions{Train: 0.64, Validation: 0.16, Test: 0.20}

	s, err := split.Stratified(ds, f, 7)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Verify(ds, split.DefaultTolerance); err != nil {
		t.Fatal(err)
	}

	// 1000 records at 64/16/20 should land on 640/160/200 up to
	// stratification rounding.
	if n := s.Train.Len(); math.Abs(float64(n-640)) > 2 {
		t.Fatalf("expected ~640 train records, got %d", n)
	}
	if n := s.Validation.Len(); math.Abs(float64(n-160)) > 2 {
		t.Fatalf("expected ~160 validation records, got %d", n)
	}
	if n := s.Test.Len(); math.Abs(float64(n-200)) > 2 {
		t.Fatalf("expected ~200 test records, got %d", n)
	}
}

func TestStratifiedProportions(t *testing.T) {
	ds := synthetic(map[string]int{"Remote": 800, "Not remote": 200})
	s, err := split.Stratified(ds, split.Fractions{Train: 0.64, Validation: 0.16, Test: 0.20}, 7)
	if err != nil {
		t.Fatal(err)
	}

	want := ds.Proportions()
	for name, sub := range map[string]dataset.Dataset{
		"train":      s.Train.Dataset,
		"validation": s.Validation.Dataset,
		"test":       s.Test.Dataset,
	} {
		got := sub.Proportions()
		for label, p := range want {
			if math.Abs(got[label]-p) > split.DefaultTolerance {
				t.Fatalf("%s subset label %s proportion %f deviates from %f", name, label, got[label], p)
			}
		}
	}
}

func TestInvalidFractions(t *testing.T) {
	ds := synthetic(map[string]int{"Remote": 80, "Not remote": 20})
	for _, f := range []split.Fractions{
		{Train: 0.8, Validation: 0.2, Test: 0.2},
		{Train: 0.8, Validation: 0.2, Test: 0},
		{Train: -0.5, Validation: 0.2, Test: 0.2},
	} {
		if _, err := split.Stratified(ds, f, 1); err != split.InvalidFractionError {
			t.Fatalf("expected InvalidFractionError for %v, got %v", f, err)
		}
	}
}

func TestInsufficientData(t *testing.T) {
	ds := synthetic(map[string]int{"Remote": 100, "Not remote": 2})
	f := split.Fractions{Train: 0.64, Validation: 0.16, Test: 0.20}
	if _, err := split.Stratified(ds, f, 1); err != split.InsufficientDataError {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}
