// Package render draws universe layouts as standalone SVG documents.
//
// [RenderSVG] projects a [universe.LayoutResult] exactly as computed: every planet is
// a circle at its translated position, so the focused planet sits at the viewport
// center. [RenderComparisonSVG] draws the two planets of a [universe.ComparisonPair]
// side by side with their size indicators.
//
// Rendering is pure: no layout or sizing happens here.
package render
