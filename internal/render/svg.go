package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/desertthunder/universe/internal/universe"
)

const planetCSS = `
    .planet { fill: #1f2937; stroke: #6b7280; stroke-width: 2; }
    .planet.focused { stroke: #1db954; stroke-width: 4; }
    .planet-name { fill: #e5e7eb; font: 14px sans-serif; text-anchor: middle; }
    .focus-label { fill: #f9fafb; font: bold 20px sans-serif; text-anchor: middle; }
    .indicator { fill: #9ca3af; font: 14px sans-serif; text-anchor: middle; }`

// Palette holds the colors used for the background and planets.
type Palette struct {
	Background string
	Planet     string
	Focus      string
}

// DefaultPalette is the dark space theme.
var DefaultPalette = Palette{Background: "#0b0f19", Planet: "#1f2937", Focus: "#1db954"}

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	palette Palette
	label   string
	images  bool
	names   bool
	title   string
}

func WithPalette(p Palette) SVGOption { return func(r *svgRenderer) { r.palette = p } }
func WithLabel(l string) SVGOption    { return func(r *svgRenderer) { r.label = l } }
func WithImages() SVGOption           { return func(r *svgRenderer) { r.images = true } }
func WithNames() SVGOption            { return func(r *svgRenderer) { r.names = true } }
func WithTitle(t string) SVGOption    { return func(r *svgRenderer) { r.title = t } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{palette: DefaultPalette}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws entities placed by l in a viewport-sized document. focus marks the focused planet; pass -1 for none.
func RenderSVG(entities []universe.Entity, l universe.LayoutResult, vp universe.Viewport, focus int, opts ...SVGOption) ([]byte, error) {
	if len(entities) != l.Len() {
		return nil, fmt.Errorf("%w: %d entities, %d positions", universe.ErrLayoutMismatch, len(entities), l.Len())
	}

	r := newSVGRenderer(opts...)

	var buf bytes.Buffer
	r.open(&buf, vp)

	if r.images {
		renderClipPaths(&buf, l)
	}

	for i, e := range entities {
		r.renderPlanet(&buf, l, i, e, i == focus)
	}

	if r.names {
		for i, e := range entities {
			c := l.Center(i)
			fmt.Fprintf(&buf, `  <text class="planet-name" x="%.1f" y="%.1f">%s</text>`+"\n",
				c.X, l.Translated(i).Y+l.Diameters[i]+20, html.EscapeString(e.Name))
		}
	}

	if r.label != "" {
		fmt.Fprintf(&buf, `  <text class="focus-label" x="%.1f" y="40">%s</text>`+"\n", vp.Width/2, html.EscapeString(r.label))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func (r svgRenderer) open(buf *bytes.Buffer, vp universe.Viewport) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		vp.Width, vp.Height, vp.Width, vp.Height)
	if r.title != "" {
		fmt.Fprintf(buf, "  <title>%s</title>\n", html.EscapeString(r.title))
	}
	fmt.Fprintf(buf, "  <style>%s\n    .planet { fill: %s; }\n    .planet.focused { stroke: %s; }\n  </style>\n",
		planetCSS, r.palette.Planet, r.palette.Focus)
	fmt.Fprintf(buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.palette.Background)
}

func renderClipPaths(buf *bytes.Buffer, l universe.LayoutResult) {
	buf.WriteString("  <defs>\n")
	for i := range l.Len() {
		c := l.Center(i)
		fmt.Fprintf(buf, `    <clipPath id="clip-%d"><circle cx="%.1f" cy="%.1f" r="%.1f"/></clipPath>`+"\n",
			i, c.X, c.Y, l.Diameters[i]/2)
	}
	buf.WriteString("  </defs>\n")
}

func (r svgRenderer) renderPlanet(buf *bytes.Buffer, l universe.LayoutResult, i int, e universe.Entity, focused bool) {
	class := "planet"
	if focused {
		class += " focused"
	}

	c := l.Center(i)
	d := l.Diameters[i]
	fmt.Fprintf(buf, `  <circle id="planet-%d" class="%s" cx="%.1f" cy="%.1f" r="%.1f"><title>%s</title></circle>`+"\n",
		i, class, c.X, c.Y, d/2, html.EscapeString(universe.Label(e)))

	if r.images && e.ImagePath != "" {
		p := l.Translated(i)
		fmt.Fprintf(buf, `  <image href="/%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" clip-path="url(#clip-%d)" preserveAspectRatio="xMidYMid slice"/>`+"\n",
			html.EscapeString(e.ImagePath), p.X, p.Y, d, d, i)
	}
}

// RenderComparisonSVG draws a comparison pair centered in vp, bottoms aligned, each with its size indicator.
func RenderComparisonSVG(pair universe.ComparisonPair, vp universe.Viewport, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	var buf bytes.Buffer
	r.open(&buf, vp)

	gap := universe.DefaultGap
	total := pair.LeftDiameter + gap + pair.RightDiameter
	left := vp.Width/2 - total/2
	baseline := vp.Height/2 + max(pair.LeftDiameter, pair.RightDiameter)/2

	sides := []struct {
		side universe.Side
		e    universe.Entity
		x, d float64
	}{
		{universe.LeftSide, pair.Left, left, pair.LeftDiameter},
		{universe.RightSide, pair.Right, left + pair.LeftDiameter + gap, pair.RightDiameter},
	}

	for _, s := range sides {
		cx, cy := s.x+s.d/2, baseline-s.d/2
		class := "planet"
		if pair.IsReference(s.side) {
			class += " focused"
		}
		fmt.Fprintf(&buf, `  <circle class="%s" cx="%.1f" cy="%.1f" r="%.1f"><title>%s</title></circle>`+"\n",
			class, cx, cy, s.d/2, html.EscapeString(universe.Label(s.e)))
		fmt.Fprintf(&buf, `  <text class="planet-name" x="%.1f" y="%.1f">%s</text>`+"\n",
			cx, baseline+24, html.EscapeString(s.e.Name))
		fmt.Fprintf(&buf, `  <text class="indicator" x="%.1f" y="%.1f">%s</text>`+"\n",
			cx, baseline+44, html.EscapeString(pair.Indicator(s.side)))
	}

	if r.label != "" {
		fmt.Fprintf(&buf, `  <text class="focus-label" x="%.1f" y="40">%s</text>`+"\n", vp.Width/2, html.EscapeString(r.label))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
