package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/universe/internal/universe"
)

// Terminal cells are roughly twice as tall as they are wide.
const (
	DefaultCellWidth  = 10.0
	DefaultCellHeight = 20.0
)

const (
	emptyCell = -1
	textCell  = -2
)

type cell struct {
	r    rune
	kind int // planet index, emptyCell or textCell
}

// canvas rasterizes layout pixels onto a grid of terminal cells.
type canvas struct {
	cols, rows int
	cellW      float64
	cellH      float64
	grid       [][]cell
}

func newCanvas(cols, rows int, cellW, cellH float64) *canvas {
	cols, rows = max(cols, 0), max(rows, 0)
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x] = cell{r: ' ', kind: emptyCell}
		}
	}
	return &canvas{cols: cols, rows: rows, cellW: cellW, cellH: cellH, grid: grid}
}

// viewport returns the pixel area the canvas covers.
func (c *canvas) viewport() universe.Viewport {
	return universe.Viewport{Width: float64(c.cols) * c.cellW, Height: float64(c.rows) * c.cellH}
}

// disc fills every cell whose center lies inside the circle of diameter d at center.
func (c *canvas) disc(kind int, center universe.Point, d float64) {
	if d <= 0 {
		return
	}
	r := d / 2
	x0 := max(int(math.Floor((center.X-r)/c.cellW)), 0)
	x1 := min(int(math.Ceil((center.X+r)/c.cellW)), c.cols-1)
	y0 := max(int(math.Floor((center.Y-r)/c.cellH)), 0)
	y1 := min(int(math.Ceil((center.Y+r)/c.cellH)), c.rows-1)

	for y := y0; y <= y1; y++ {
		py := (float64(y) + 0.5) * c.cellH
		for x := x0; x <= x1; x++ {
			px := (float64(x) + 0.5) * c.cellW
			if (px-center.X)*(px-center.X)+(py-center.Y)*(py-center.Y) <= r*r {
				c.grid[y][x] = cell{r: '█', kind: kind}
			}
		}
	}

	// Planets smaller than a cell still get a dot.
	cx, cy := int(center.X/c.cellW), int(center.Y/c.cellH)
	if cx >= 0 && cx < c.cols && cy >= 0 && cy < c.rows && c.grid[cy][cx].kind != kind {
		c.grid[cy][cx] = cell{r: '•', kind: kind}
	}
}

// text writes s centered on pixel x in the row containing pixel y, clipped to the canvas.
func (c *canvas) text(s string, x, y float64) {
	row := int(math.Floor(y / c.cellH))
	if row < 0 || row >= c.rows {
		return
	}
	runes := []rune(s)
	start := int(math.Round(x/c.cellW)) - len(runes)/2
	for i, r := range runes {
		col := start + i
		if col >= 0 && col < c.cols {
			c.grid[row][col] = cell{r: r, kind: textCell}
		}
	}
}

// render joins the grid into lines, styling runs of cells with style(kind).
func (c *canvas) render(style func(kind int) lipgloss.Style) string {
	var b strings.Builder
	for y, row := range c.grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < len(row); {
			kind := row[x].kind
			var run strings.Builder
			for ; x < len(row) && row[x].kind == kind; x++ {
				run.WriteRune(row[x].r)
			}
			if kind == emptyCell {
				b.WriteString(run.String())
			} else {
				b.WriteString(style(kind).Render(run.String()))
			}
		}
	}
	return b.String()
}

// drawLayout places every planet of l, with names under those that fit.
func (c *canvas) drawLayout(entities []universe.Entity, l universe.LayoutResult) {
	for i := range l.Len() {
		c.disc(i, l.Center(i), l.Diameters[i])
	}
	for i, e := range entities {
		if i >= l.Len() {
			break
		}
		if l.Diameters[i] < c.cellW*float64(len([]rune(e.Name)))/2 {
			continue
		}
		p := l.Translated(i)
		c.text(e.Name, l.Center(i).X, p.Y+l.Diameters[i]+c.cellH/2)
	}
}

// pairLayout positions a comparison pair side by side, bottoms aligned, centered in vp.
// The pair is shrunk uniformly when it does not fit.
func pairLayout(pair universe.ComparisonPair, vp universe.Viewport) universe.LayoutResult {
	ld, rd, gap := pair.LeftDiameter, pair.RightDiameter, universe.DefaultGap
	total := ld + gap + rd
	tallest := max(ld, rd)

	scale := 1.0
	if total > 0 && total > vp.Width*0.9 {
		scale = vp.Width * 0.9 / total
	}
	if tallest > 0 && tallest*scale > vp.Height*0.8 {
		scale = vp.Height * 0.8 / tallest
	}
	ld, rd, gap, total, tallest = ld*scale, rd*scale, gap*scale, total*scale, tallest*scale

	left := vp.Width/2 - total/2
	baseline := vp.Height/2 + tallest/2

	return universe.LayoutResult{
		Diameters: []float64{ld, rd},
		Positions: []universe.Point{
			{X: left, Y: baseline - ld},
			{X: left + ld + gap, Y: baseline - rd},
		},
	}
}
