package universe

import (
	"io"

	"github.com/charmbracelet/log"
)

// Options configures a [Session].
type Options struct {
	SelectedDiameter   float64
	ComparisonDiameter float64
	Engine             *LayoutEngine
	Size               SizeFunc
	Viewport           Viewport
	Logger             *log.Logger
}

// Session is the state owned by one loaded dataset: the ranked set plus the focus
// and comparison controllers. It lives until the view is torn down.
type Session struct {
	Set        *RankedEntitySet
	Focus      *FocusController
	Comparison *ComparisonController
}

// New validates the dataset and wires both controllers to it.
func New(data Dataset, opts Options) (*Session, error) {
	set, err := NewRankedEntitySet(data.Entities)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Session{
		Set: set,
		Focus: NewFocusController(set, FocusOptions{
			SelectedDiameter: opts.SelectedDiameter,
			Engine:           opts.Engine,
			Size:             opts.Size,
			Viewport:         opts.Viewport,
			Logger:           opts.Logger.WithPrefix("focus"),
		}),
		Comparison: NewComparisonController(set, ComparisonOptions{
			BaseDiameter: opts.ComparisonDiameter,
			Size:         opts.Size,
			Logger:       opts.Logger.WithPrefix("compare"),
		}),
	}, nil
}

// CompareFocused opens the comparison view for the focused entity.
func (s *Session) CompareFocused() (*ComparisonPair, error) {
	e, ok := s.Focus.Focused()
	if !ok {
		return nil, nil
	}
	return s.Comparison.Open(e)
}
