package universe

import "fmt"

const (
	DefaultStartX = 100.0
	DefaultGap    = 50.0
	DefaultMargin = 100.0
)

// Point is a top-left position in viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Offset is the translation applied to the whole planet group.
type Offset struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Viewport is the visible area the layout is centered in.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LayoutResult holds one diameter and one position per entity, in set order, plus
// the group offset that centers the focused entity.
type LayoutResult struct {
	Diameters       []float64 `json:"diameters"`
	Positions       []Point   `json:"positions"`
	CenteringOffset Offset    `json:"centering_offset"`
}

// Len returns the number of placed entities.
func (r LayoutResult) Len() int { return len(r.Positions) }

// Translated returns the position of entity i with the group offset applied.
func (r LayoutResult) Translated(i int) Point {
	p := r.Positions[i]
	return Point{X: p.X + r.CenteringOffset.DX, Y: p.Y + r.CenteringOffset.DY}
}

// Center returns the on-screen center of entity i.
func (r LayoutResult) Center(i int) Point {
	p := r.Translated(i)
	half := r.Diameters[i] / 2
	return Point{X: p.X + half, Y: p.Y + half}
}

// Width returns the untranslated horizontal extent of the group.
func (r LayoutResult) Width() float64 {
	n := len(r.Positions)
	if n == 0 {
		return 0
	}
	return r.Positions[n-1].X + r.Diameters[n-1] - r.Positions[0].X
}

// LayoutEngine places planets left to right with their bottoms on a shared
// baseline.
type LayoutEngine struct {
	StartX float64 // x of the first planet before translation
	Gap    float64 // fixed space between planet edges
	Margin float64 // distance from the viewport bottom to the baseline
}

// NewLayoutEngine returns an engine with the default spacing.
func NewLayoutEngine() LayoutEngine {
	return LayoutEngine{StartX: DefaultStartX, Gap: DefaultGap, Margin: DefaultMargin}
}

// Layout positions every entity and computes the offset that brings the focused
// entity to the viewport center. Diameters must already be relative to the focused
// entity.
func (e LayoutEngine) Layout(entities []Entity, diameters []float64, focusIndex int, vp Viewport) (LayoutResult, error) {
	if len(entities) == 0 {
		return LayoutResult{Diameters: []float64{}, Positions: []Point{}}, nil
	}
	if len(diameters) != len(entities) {
		return LayoutResult{}, fmt.Errorf("%w: %d diameters for %d entities", ErrLayoutMismatch, len(diameters), len(entities))
	}
	if focusIndex < 0 || focusIndex >= len(entities) {
		return LayoutResult{}, fmt.Errorf("%w: focus %d (have %d)", ErrInvalidIndex, focusIndex, len(entities))
	}

	baselineY := vp.Height - e.Margin
	result := LayoutResult{
		Diameters: make([]float64, len(diameters)),
		Positions: make([]Point, len(diameters)),
	}
	copy(result.Diameters, diameters)

	x := e.StartX
	for i, d := range diameters {
		result.Positions[i] = Point{X: x, Y: baselineY - d}
		x += d + e.Gap
	}

	focused := result.Positions[focusIndex]
	half := diameters[focusIndex] / 2
	cx, cy := focused.X+half, focused.Y+half
	result.CenteringOffset = Offset{DX: vp.Width/2 - cx, DY: vp.Height/2 - cy}

	return result, nil
}
