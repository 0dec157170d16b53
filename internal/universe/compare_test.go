package universe

import (
	"errors"
	"testing"
)

func newComparison(t *testing.T, entities []Entity) (*ComparisonController, *[]ComparisonPair) {
	t.Helper()
	c := NewComparisonController(mustSet(t, entities), ComparisonOptions{BaseDiameter: 400})
	var published []ComparisonPair
	c.Observe(ComparisonObserverFunc(func(p ComparisonPair) { published = append(published, p) }))
	return c, &published
}

func TestComparisonController(t *testing.T) {
	t.Run("selected is the reference when larger", func(t *testing.T) {
		c, _ := newComparison(t, sampleEntities())

		pair, err := c.Open(Entity{Name: "A", MetricCount: 1000})
		if err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		if pair.Right.Name != "B" {
			t.Errorf("expected initial target B, got %s", pair.Right.Name)
		}
		if !approx(pair.LeftDiameter, 400) || !approx(pair.RightDiameter, 200) {
			t.Errorf("expected 400/200, got %v/%v", pair.LeftDiameter, pair.RightDiameter)
		}
		if !pair.LeftIsReference || pair.RightIsReference() {
			t.Error("expected left to be the reference")
		}
		if pair.Indicator(RightSide) != "(50% of reference)" {
			t.Errorf("unexpected indicator %q", pair.Indicator(RightSide))
		}
	})

	t.Run("target is the reference when larger", func(t *testing.T) {
		c, _ := newComparison(t, sampleEntities())

		pair, err := c.Open(Entity{Name: "B"})
		if err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		if pair.Right.Name != "A" {
			t.Fatalf("expected initial target A, got %s", pair.Right.Name)
		}
		if pair.LeftIsReference {
			t.Error("expected right to be the reference")
		}
		if !approx(pair.RightDiameter, 400) || !approx(pair.LeftDiameter, 200) {
			t.Errorf("expected 200/400, got %v/%v", pair.LeftDiameter, pair.RightDiameter)
		}
		if pair.Percent(LeftSide) != 50 {
			t.Errorf("expected 50%%, got %d", pair.Percent(LeftSide))
		}
	})

	t.Run("SetComparisonTarget recomputes", func(t *testing.T) {
		c, published := newComparison(t, sampleEntities())
		_, _ = c.Open(Entity{Name: "B"})

		pair, err := c.SetComparisonTarget(Entity{Name: "C"})
		if err != nil {
			t.Fatalf("SetComparisonTarget() error: %v", err)
		}
		if !pair.LeftIsReference || !approx(pair.RightDiameter, 200) {
			t.Errorf("unexpected pair %+v", pair)
		}
		if len(*published) != 2 {
			t.Errorf("expected two published pairs, got %d", len(*published))
		}
		if i, ok := c.TargetIndex(); !ok || i != 2 {
			t.Errorf("TargetIndex() = %d, %v", i, ok)
		}
	})

	t.Run("SetComparisonTargetIndex", func(t *testing.T) {
		c, _ := newComparison(t, sampleEntities())
		_, _ = c.Open(Entity{Name: "C"})

		pair, err := c.SetComparisonTargetIndex(0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pair.Right.Name != "A" || !approx(pair.LeftDiameter, 100) {
			t.Errorf("unexpected pair %+v", pair)
		}
		if _, err := c.SetComparisonTargetIndex(9); !errors.Is(err, ErrInvalidIndex) {
			t.Errorf("expected ErrInvalidIndex, got %v", err)
		}
	})

	t.Run("single entity compares with itself", func(t *testing.T) {
		c, _ := newComparison(t, []Entity{{Name: "solo", MetricCount: 42}})

		pair, err := c.Open(Entity{Name: "solo"})
		if err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		if !pair.Degenerate() {
			t.Error("expected degenerate pair")
		}
		if pair.LeftDiameter != 400 || pair.RightDiameter != 400 {
			t.Errorf("expected both diameters 400, got %v/%v", pair.LeftDiameter, pair.RightDiameter)
		}
		if !pair.IsReference(LeftSide) || !pair.IsReference(RightSide) {
			t.Error("expected both sides to be the reference")
		}
	})

	t.Run("empty set is a no-op", func(t *testing.T) {
		c, published := newComparison(t, nil)
		pair, err := c.Open(Entity{Name: "anything"})
		if err != nil || pair != nil {
			t.Errorf("expected nil pair and error, got %v, %v", pair, err)
		}
		pair, err = c.SetComparisonTarget(Entity{Name: "anything"})
		if err != nil || pair != nil {
			t.Errorf("expected nil pair and error from SetComparisonTarget, got %v, %v", pair, err)
		}
		pair, err = c.SetComparisonTargetIndex(0)
		if err != nil || pair != nil {
			t.Errorf("expected nil pair and error from SetComparisonTargetIndex, got %v, %v", pair, err)
		}
		if c.Pair() != nil {
			t.Error("expected comparison to stay closed")
		}
		if len(*published) != 0 {
			t.Error("expected nothing published")
		}
	})

	t.Run("target before open", func(t *testing.T) {
		c, _ := newComparison(t, sampleEntities())
		if _, err := c.SetComparisonTarget(Entity{Name: "A"}); !errors.Is(err, ErrComparisonClosed) {
			t.Errorf("expected ErrComparisonClosed, got %v", err)
		}
	})

	t.Run("unknown entities", func(t *testing.T) {
		c, _ := newComparison(t, sampleEntities())
		if _, err := c.Open(Entity{Name: "nope"}); !errors.Is(err, ErrUnknownEntity) {
			t.Errorf("expected ErrUnknownEntity, got %v", err)
		}
		_, _ = c.Open(Entity{Name: "A"})
		if _, err := c.SetComparisonTarget(Entity{Name: "nope"}); !errors.Is(err, ErrUnknownEntity) {
			t.Errorf("expected ErrUnknownEntity, got %v", err)
		}
	})

	t.Run("zero plays on both sides", func(t *testing.T) {
		c, _ := newComparison(t, []Entity{{Name: "x", MetricCount: 0}, {Name: "y", MetricCount: 0}})
		if _, err := c.Open(Entity{Name: "x"}); !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("expected ErrDivisionByZero, got %v", err)
		}
		if c.IsOpen() {
			t.Error("failed open should leave the comparison closed")
		}
	})

	t.Run("Close", func(t *testing.T) {
		c, _ := newComparison(t, sampleEntities())
		_, _ = c.Open(Entity{Name: "A"})
		c.Close()
		if c.IsOpen() || c.Pair() != nil {
			t.Error("expected closed comparison")
		}
	})
}

func TestSession(t *testing.T) {
	s, err := New(Dataset{Entities: sampleEntities()}, Options{Viewport: Viewport{Width: 1000, Height: 600}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := s.Focus.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	_ = s.Focus.Next()

	pair, err := s.CompareFocused()
	if err != nil {
		t.Fatalf("CompareFocused() error: %v", err)
	}
	if pair.Left.Name != "B" || pair.Right.Name != "A" {
		t.Errorf("unexpected pair %s vs %s", pair.Left.Name, pair.Right.Name)
	}

	if _, err := New(Dataset{Entities: []Entity{{Name: "d"}, {Name: "d"}}}, Options{}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}
