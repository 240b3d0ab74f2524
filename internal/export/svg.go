package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/lscsim/internal/analysis"
	"github.com/san-kum/lscsim/internal/viz"
)

const background = "#0a0a0a"

// CanvasToSVG draws every lit dot of a braille canvas as a circle. One dot
// is scale pixels wide.
func CanvasToSVG(canvas *viz.Canvas, scale float64, fill string) string {
	if canvas == nil {
		return ""
	}

	cols, rows := 2*canvas.Width, 4*canvas.Height
	width := float64(cols) * scale
	height := float64(rows) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, fill)

	r := scale * 0.4
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if !canvas.Dot(x, y) {
				continue
			}
			cx := (float64(x) + 0.5) * scale
			cy := (float64(y) + 0.5) * scale
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// PortraitToSVG plots a phase portrait over one period on a cols×rows
// braille canvas, η symmetric about zero, and renders it with CanvasToSVG.
func PortraitToSVG(p *analysis.PhasePortrait2D, period float64, cols, rows int, fill string) string {
	canvas := viz.NewCanvas(cols, rows)
	mid := rows * 2
	canvas.DrawLine(0, mid, cols*2-1, mid)

	if p != nil && len(p.Points) > 0 {
		etaMax := 0.0
		for _, pt := range p.Points {
			etaMax = math.Max(etaMax, math.Abs(pt.Y))
		}
		if etaMax == 0 {
			etaMax = 1
		}
		ymax := 1.1 * etaMax
		for _, pt := range p.Points {
			canvas.Plot(pt.X, pt.Y, 0, period, -ymax, ymax)
		}
	}
	return CanvasToSVG(canvas, 4, fill)
}
