package universe

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < tolerance }

func sampleEntities() []Entity {
	return []Entity{
		{Name: "A", MetricCount: 1000},
		{Name: "B", MetricCount: 500},
		{Name: "C", MetricCount: 250},
	}
}

func mustSet(t *testing.T, entities []Entity) *RankedEntitySet {
	t.Helper()
	set, err := NewRankedEntitySet(entities)
	if err != nil {
		t.Fatalf("failed to build set: %v", err)
	}
	return set
}

func TestRankedEntitySet(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		input := []Entity{{Name: "small", MetricCount: 1}, {Name: "big", MetricCount: 99}}
		set := mustSet(t, input)

		for i, want := range input {
			got, err := set.At(i)
			if err != nil {
				t.Fatalf("At(%d) error: %v", i, err)
			}
			if got != want {
				t.Errorf("At(%d) = %+v, want %+v", i, got, want)
			}
		}
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		_, err := NewRankedEntitySet([]Entity{{Name: "A", MetricCount: 1}, {Name: "A", MetricCount: 2}})
		if !errors.Is(err, ErrDuplicateName) {
			t.Errorf("expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("rejects negative counts", func(t *testing.T) {
		_, err := NewRankedEntitySet([]Entity{{Name: "A", MetricCount: -1}})
		if !errors.Is(err, ErrNegativeCount) {
			t.Errorf("expected ErrNegativeCount, got %v", err)
		}
	})

	t.Run("lookups", func(t *testing.T) {
		set := mustSet(t, sampleEntities())

		if i, ok := set.IndexOf("C"); !ok || i != 2 {
			t.Errorf("IndexOf(C) = %d, %v", i, ok)
		}
		if _, ok := set.ByName("Z"); ok {
			t.Error("expected Z to be missing")
		}
		if _, err := set.At(3); !errors.Is(err, ErrInvalidIndex) {
			t.Errorf("expected ErrInvalidIndex, got %v", err)
		}
		if set.MaxCount() != 1000 {
			t.Errorf("expected max count 1000, got %d", set.MaxCount())
		}
		if set.Total() != 1750 {
			t.Errorf("expected total 1750, got %d", set.Total())
		}
	})

	t.Run("entities returns a copy", func(t *testing.T) {
		set := mustSet(t, sampleEntities())
		out := set.Entities()
		out[0].Name = "mutated"

		if e, _ := set.At(0); e.Name != "A" {
			t.Errorf("set was mutated through Entities(): %q", e.Name)
		}
	})
}

func TestLabel(t *testing.T) {
	got := Label(Entity{Name: "Radiohead", MetricCount: 1234567})
	want := "Radiohead : 1,234,567 total Last.fm scrobbles"
	if got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
}
