// Package universe implements the layout and interaction engine behind the planet view.
//
// A loaded [Dataset] becomes a [RankedEntitySet]. Every planet's diameter is derived
// from a single reference entity through the size model ([Diameter]), and the
// [LayoutEngine] places the planets along a shared baseline before translating the
// whole group so the focused planet sits in the middle of the viewport.
//
// # Controllers
//
//   - [FocusController] : owns the focus index, handles zoom/next/prev/first/last
//   - [ComparisonController] : owns the two-up comparison pair shown in the modal
//
// Both controllers recompute their state wholesale on every input and publish the
// result to observers. Rendering layers (the TUI, the SVG sink, the JSON API) are
// projections of that state and never feed sizes back into it.
//
// # Errors
//
//   - [ErrInvalidIndex] : out of range navigation, ignored and logged
//   - [ErrDivisionByZero] : reference entity with zero plays, surfaced to the caller
//   - [ErrEmptyDataSet] : no entities; navigation and comparison become no-ops
//
// Controllers are not safe for concurrent use. A [Session] belongs to exactly one
// event loop.
package universe
