package universe

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// DefaultSelectedDiameter is the diameter of the focused planet.
const DefaultSelectedDiameter = 350.0

// FocusState is the index of the zoomed planet. Valid is false only for an empty set.
type FocusState struct {
	Index int
	Valid bool
}

// FocusOptions configures a [FocusController].
type FocusOptions struct {
	SelectedDiameter float64
	Engine           *LayoutEngine // nil uses NewLayoutEngine
	Size             SizeFunc
	Viewport         Viewport
	Logger           *log.Logger
}

// FocusController owns the focus state and drives the size model and layout engine
// on every focus change.
type FocusController struct {
	set       *RankedEntitySet
	diameter  float64
	engine    LayoutEngine
	size      SizeFunc
	viewport  Viewport
	logger    *log.Logger
	state     FocusState
	layout    LayoutResult
	computed  bool
	observers []LayoutObserver
}

// NewFocusController creates a controller focused on index 0. Call [FocusController.Init]
// to compute and publish the first layout.
func NewFocusController(set *RankedEntitySet, opts FocusOptions) *FocusController {
	if opts.SelectedDiameter <= 0 {
		opts.SelectedDiameter = DefaultSelectedDiameter
	}
	engine := NewLayoutEngine()
	if opts.Engine != nil {
		engine = *opts.Engine
	}
	if opts.Size == nil {
		opts.Size = Diameter
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &FocusController{
		set:      set,
		diameter: opts.SelectedDiameter,
		engine:   engine,
		size:     opts.Size,
		viewport: opts.Viewport,
		logger:   opts.Logger,
		state:    FocusState{Index: 0, Valid: !set.Empty()},
	}
}

// Observe registers o for every subsequent layout.
func (c *FocusController) Observe(o LayoutObserver) {
	c.observers = append(c.observers, o)
}

// Init computes and publishes the layout for the initial focus.
func (c *FocusController) Init() error {
	if c.set.Empty() {
		c.logger.Debug("no planets to lay out")
		return nil
	}
	return c.ZoomTo(c.state.Index)
}

// State returns the current focus.
func (c *FocusController) State() FocusState { return c.state }

// Viewport returns the viewport layouts are centered in.
func (c *FocusController) Viewport() Viewport { return c.viewport }

// Focused returns the focused entity.
func (c *FocusController) Focused() (Entity, bool) {
	if !c.state.Valid {
		return Entity{}, false
	}
	e, err := c.set.At(c.state.Index)
	return e, err == nil
}

// Layout returns the most recently published layout.
func (c *FocusController) Layout() (LayoutResult, bool) {
	return c.layout, c.computed
}

// Label returns the headline for the focused entity, or "" for an empty set.
func (c *FocusController) Label() string {
	e, ok := c.Focused()
	if !ok {
		return ""
	}
	return Label(e)
}

// ZoomTo focuses entity i, resizes every planet relative to it and recomputes the
// layout. Out of range indexes leave the state untouched.
func (c *FocusController) ZoomTo(i int) error {
	if c.set.Empty() {
		c.logger.Debug("zoom ignored, no planets", "index", i)
		return nil
	}
	if i < 0 || i >= c.set.Len() {
		c.logger.Debug("invalid planet index", "index", i, "count", c.set.Len())
		return fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, i, c.set.Len())
	}

	result, err := c.compute(i)
	if err != nil {
		c.logger.Warn("layout failed", "index", i, "err", err)
		return err
	}

	c.state = FocusState{Index: i, Valid: true}
	c.layout = result
	c.computed = true
	c.publish()

	c.logger.Debug("zoomed to planet", "index", i, "name", c.set.entities[i].Name)
	return nil
}

// Next moves focus one planet right. It does nothing on the last planet.
func (c *FocusController) Next() error {
	if c.set.Empty() || c.state.Index >= c.set.Len()-1 {
		return nil
	}
	return c.ZoomTo(c.state.Index + 1)
}

// Prev moves focus one planet left. It does nothing on the first planet.
func (c *FocusController) Prev() error {
	if c.set.Empty() || c.state.Index <= 0 {
		return nil
	}
	return c.ZoomTo(c.state.Index - 1)
}

// First focuses the first planet.
func (c *FocusController) First() error { return c.ZoomTo(0) }

// Last focuses the last planet.
func (c *FocusController) Last() error {
	if c.set.Empty() {
		return nil
	}
	return c.ZoomTo(c.set.Len() - 1)
}

// Resize re-derives the layout for the current focus in a new viewport.
func (c *FocusController) Resize(vp Viewport) error {
	c.viewport = vp
	if c.set.Empty() {
		return nil
	}
	return c.ZoomTo(c.state.Index)
}

func (c *FocusController) compute(i int) (LayoutResult, error) {
	reference := c.set.entities[i]
	diameters, err := Diameters(c.set.entities, reference, c.diameter, c.size)
	if err != nil {
		return LayoutResult{}, err
	}
	return c.engine.Layout(c.set.entities, diameters, i, c.viewport)
}

func (c *FocusController) publish() {
	label := c.Label()
	for _, o := range c.observers {
		o.OnLayoutComputed(c.layout, c.state.Index, label)
	}
}
