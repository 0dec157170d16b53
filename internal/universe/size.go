package universe

import "fmt"

// SizeFunc maps an entity to a diameter relative to a reference entity.
type SizeFunc func(entity, reference Entity, referenceDiameter float64) (float64, error)

var _ SizeFunc = Diameter

// Diameter scales referenceDiameter by the ratio of play counts.
//
// The reference entity itself always gets referenceDiameter. A reference with zero
// plays cannot scale anything else and fails with [ErrDivisionByZero].
func Diameter(entity, reference Entity, referenceDiameter float64) (float64, error) {
	if entity.Name == reference.Name {
		return referenceDiameter, nil
	}
	if reference.MetricCount == 0 {
		return 0, fmt.Errorf("%w: %q", ErrDivisionByZero, reference.Name)
	}
	return referenceDiameter * (float64(entity.MetricCount) / float64(reference.MetricCount)), nil
}

// Diameters applies size to every entity against the same reference.
func Diameters(entities []Entity, reference Entity, referenceDiameter float64, size SizeFunc) ([]float64, error) {
	if size == nil {
		size = Diameter
	}

	out := make([]float64, len(entities))
	for i, e := range entities {
		d, err := size(e, reference, referenceDiameter)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
