package universe

import (
	"errors"
	"testing"
)

func TestDiameter(t *testing.T) {
	ref := Entity{Name: "ref", MetricCount: 800}

	t.Run("reference gets the reference diameter", func(t *testing.T) {
		d, err := Diameter(ref, ref, 350)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 350 {
			t.Errorf("expected 350, got %v", d)
		}
	})

	t.Run("equal counts get the reference diameter", func(t *testing.T) {
		d, err := Diameter(Entity{Name: "twin", MetricCount: 800}, ref, 350)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !approx(d, 350) {
			t.Errorf("expected 350, got %v", d)
		}
	})

	t.Run("scales by ratio", func(t *testing.T) {
		tt := []struct {
			count int64
			want  float64
		}{
			{0, 0},
			{200, 87.5},
			{400, 175},
			{1600, 700},
		}
		for _, tc := range tt {
			d, err := Diameter(Entity{Name: "x", MetricCount: tc.count}, ref, 350)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !approx(d, tc.want) {
				t.Errorf("count %d: expected %v, got %v", tc.count, tc.want, d)
			}
		}
	})

	t.Run("monotonic in count", func(t *testing.T) {
		prev := -1.0
		for count := int64(0); count <= 2000; count += 37 {
			d, err := Diameter(Entity{Name: "x", MetricCount: count}, ref, 350)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d < prev {
				t.Fatalf("diameter decreased at count %d: %v < %v", count, d, prev)
			}
			prev = d
		}
	})

	t.Run("zero reference fails", func(t *testing.T) {
		zero := Entity{Name: "zero", MetricCount: 0}
		if _, err := Diameter(Entity{Name: "x", MetricCount: 5}, zero, 350); !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("expected ErrDivisionByZero, got %v", err)
		}

		d, err := Diameter(zero, zero, 350)
		if err != nil || d != 350 {
			t.Errorf("zero reference against itself = %v, %v", d, err)
		}
	})

	t.Run("Diameters uses the given policy", func(t *testing.T) {
		double := func(e, r Entity, d float64) (float64, error) { return 2 * d, nil }
		out, err := Diameters(sampleEntities(), sampleEntities()[0], 10, double)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, d := range out {
			if d != 20 {
				t.Errorf("diameter %d = %v, want 20", i, d)
			}
		}
	})
}
