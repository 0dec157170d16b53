package universe

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
)

// DefaultComparisonDiameter is the reference diameter inside the comparison view.
const DefaultComparisonDiameter = 400.0

// Side names one half of a [ComparisonPair].
type Side int

const (
	LeftSide Side = iota
	RightSide
)

// ComparisonPair is the two-up view of the selected planet (left) against a target
// (right). Pairs are recreated on every change.
type ComparisonPair struct {
	Left            Entity  `json:"left"`
	Right           Entity  `json:"right"`
	LeftDiameter    float64 `json:"left_diameter"`
	RightDiameter   float64 `json:"right_diameter"`
	LeftIsReference bool    `json:"left_is_reference"`
	BaseDiameter    float64 `json:"base_diameter"`
}

// Degenerate reports whether both sides are the same entity.
func (p ComparisonPair) Degenerate() bool { return p.Left.Name == p.Right.Name }

// RightIsReference reports whether the right planet is drawn at the base diameter.
func (p ComparisonPair) RightIsReference() bool { return !p.LeftIsReference || p.Degenerate() }

// IsReference reports whether side s is drawn at the base diameter.
func (p ComparisonPair) IsReference(s Side) bool {
	if s == LeftSide {
		return p.LeftIsReference
	}
	return p.RightIsReference()
}

// Percent returns the size of side s as a rounded percentage of the base diameter.
func (p ComparisonPair) Percent(s Side) int {
	if p.BaseDiameter == 0 {
		return 0
	}
	d := p.LeftDiameter
	if s == RightSide {
		d = p.RightDiameter
	}
	return int(math.Round(d / p.BaseDiameter * 100))
}

// Indicator is the caption shown under side s.
func (p ComparisonPair) Indicator(s Side) string {
	if p.IsReference(s) {
		return "(Reference Size)"
	}
	return fmt.Sprintf("(%d%% of reference)", p.Percent(s))
}

// ComparisonOptions configures a [ComparisonController].
type ComparisonOptions struct {
	BaseDiameter float64
	Size         SizeFunc
	Logger       *log.Logger
}

// ComparisonController owns the pair shown in the comparison view.
type ComparisonController struct {
	set       *RankedEntitySet
	base      float64
	size      SizeFunc
	logger    *log.Logger
	selected  *Entity
	pair      *ComparisonPair
	observers []ComparisonObserver
}

// NewComparisonController creates a closed comparison controller.
func NewComparisonController(set *RankedEntitySet, opts ComparisonOptions) *ComparisonController {
	if opts.BaseDiameter <= 0 {
		opts.BaseDiameter = DefaultComparisonDiameter
	}
	if opts.Size == nil {
		opts.Size = Diameter
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &ComparisonController{
		set:    set,
		base:   opts.BaseDiameter,
		size:   opts.Size,
		logger: opts.Logger,
	}
}

// Observe registers o for every subsequent pair.
func (c *ComparisonController) Observe(o ComparisonObserver) {
	c.observers = append(c.observers, o)
}

// Open starts a comparison for selected against the first other entity in the set.
// With a single entity the pair compares it with itself. An empty set yields a nil
// pair and no error.
func (c *ComparisonController) Open(selected Entity) (*ComparisonPair, error) {
	if c.set.Empty() {
		c.logger.Debug("comparison ignored, no planets")
		return nil, nil
	}

	sel, ok := c.set.ByName(selected.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, selected.Name)
	}

	target := c.set.entities[0]
	for _, e := range c.set.entities {
		if e.Name != sel.Name {
			target = e
			break
		}
	}

	pair, err := c.compute(sel, target)
	if err != nil {
		return nil, err
	}

	c.selected = &sel
	c.commit(pair)
	return c.Pair(), nil
}

// SetComparisonTarget swaps the right-hand entity and recomputes the pair. Like
// [ComparisonController.Open] it is a no-op on an empty set.
func (c *ComparisonController) SetComparisonTarget(target Entity) (*ComparisonPair, error) {
	if c.set.Empty() {
		c.logger.Debug("comparison target ignored, no planets")
		return nil, nil
	}
	if c.selected == nil {
		return nil, ErrComparisonClosed
	}

	t, ok := c.set.ByName(target.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, target.Name)
	}

	pair, err := c.compute(*c.selected, t)
	if err != nil {
		return nil, err
	}

	c.commit(pair)
	return c.Pair(), nil
}

// SetComparisonTargetIndex selects the target by its position in the set.
func (c *ComparisonController) SetComparisonTargetIndex(i int) (*ComparisonPair, error) {
	if c.set.Empty() {
		c.logger.Debug("comparison target ignored, no planets")
		return nil, nil
	}
	t, err := c.set.At(i)
	if err != nil {
		c.logger.Debug("invalid comparison target", "index", i)
		return nil, err
	}
	return c.SetComparisonTarget(t)
}

// Pair returns a copy of the current pair, or nil when closed.
func (c *ComparisonController) Pair() *ComparisonPair {
	if c.pair == nil {
		return nil
	}
	p := *c.pair
	return &p
}

// IsOpen reports whether a comparison is active.
func (c *ComparisonController) IsOpen() bool { return c.pair != nil }

// TargetIndex returns the set index of the current right-hand entity.
func (c *ComparisonController) TargetIndex() (int, bool) {
	if c.pair == nil {
		return 0, false
	}
	return c.set.IndexOf(c.pair.Right.Name)
}

// Close discards the current pair.
func (c *ComparisonController) Close() {
	c.selected = nil
	c.pair = nil
}

// compute scales both sides against whichever has more plays. Ties keep the
// selected (left) entity as the reference.
func (c *ComparisonController) compute(left, right Entity) (ComparisonPair, error) {
	leftIsReference := left.MetricCount >= right.MetricCount
	reference := right
	if leftIsReference {
		reference = left
	}

	ld, err := c.size(left, reference, c.base)
	if err != nil {
		return ComparisonPair{}, err
	}
	rd, err := c.size(right, reference, c.base)
	if err != nil {
		return ComparisonPair{}, err
	}

	return ComparisonPair{
		Left:            left,
		Right:           right,
		LeftDiameter:    ld,
		RightDiameter:   rd,
		LeftIsReference: leftIsReference,
		BaseDiameter:    c.base,
	}, nil
}

func (c *ComparisonController) commit(pair ComparisonPair) {
	c.pair = &pair
	for _, o := range c.observers {
		o.OnComparisonComputed(pair)
	}
}
