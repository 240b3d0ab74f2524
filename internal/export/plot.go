package export

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	spreadColor   = color.RGBA{R: 0x00, G: 0x99, B: 0x88, A: 0xff}
	bunchingColor = color.RGBA{R: 0xcc, G: 0x33, B: 0x77, A: 0xff}
)

// SpreadPlot draws σ_η/σ_η0 against z and, when bunching is non-nil, |b1|
// on the same axes.
func SpreadPlot(title string, z, spread, bunching []float64) (*plot.Plot, error) {
	if len(z) < 2 {
		return nil, fmt.Errorf("need at least 2 snapshots, got %d", len(z))
	}
	if len(spread) != len(z) {
		return nil, fmt.Errorf("spread has %d values for %d snapshots", len(spread), len(z))
	}
	if bunching != nil && len(bunching) != len(z) {
		return nil, fmt.Errorf("bunching has %d values for %d snapshots", len(bunching), len(z))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "z (m)"
	p.Y.Label.Text = "σ_η/σ_η0, |b1|"
	p.Add(plotter.NewGrid())

	s, err := line(z, spread, spreadColor)
	if err != nil {
		return nil, err
	}
	p.Add(s)
	p.Legend.Add("σ_η/σ_η0", s)

	if bunching != nil {
		b, err := line(z, bunching, bunchingColor)
		if err != nil {
			return nil, err
		}
		b.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(b)
		p.Legend.Add("|b1|", b)
	}
	p.Legend.Top = true
	return p, nil
}

func line(x, y []float64, c color.Color) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Color = c
	return l, nil
}

// SavePlot writes p at 8×4 inches; the format follows the file extension
// (.svg, .png, .pdf, .eps, ...).
func SavePlot(p *plot.Plot, path string) error {
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
