package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/lscsim/internal/analysis"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/viz"
)

const (
	width       = 70
	height      = 16
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the phase space on a plain terminal as snapshots
// arrive. Frames are dropped above frameRate; the last snapshot is always
// drawn.
type LiveRenderer struct {
	out       io.Writer
	info      viz.Info
	frameRate int
	lastFrame time.Time
	spread    []float64
}

var _ dynamo.Observer = (*LiveRenderer)(nil)

func NewLiveRenderer(out io.Writer, info viz.Info, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 10
	}
	return &LiveRenderer{
		out:       out,
		info:      info,
		frameRate: frameRate,
		spread:    make([]float64, 0, info.Points),
	}
}

func (r *LiveRenderer) OnSnapshot(index int, z float64, e *dynamo.Ensemble) {
	spread := 0.0
	if e.Len() > 0 && r.info.Sigma0 > 0 {
		spread = stat.PopStdDev(e.Eta, nil) / r.info.Sigma0
	}
	r.spread = append(r.spread, spread)

	last := index == r.info.Points-1
	if !last && time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()
	r.render(index, z, e)
}

func (r *LiveRenderer) render(index int, z float64, e *dynamo.Ensemble) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  %s  z=%.4g/%.4g m  [%d/%d]\n",
		accent.Render("lscsim"), muted.Render(r.info.Title), z, r.info.Length, index+1, r.info.Points))
	b.WriteString("  " + faint.Render(strings.Repeat("─", width)) + "\n")

	portrait := analysis.EnsemblePortrait(e, z, 4*width*height)
	for _, row := range strings.Split(analysis.PhasePortraitToASCII(portrait, r.info.Period, width, height), "\n") {
		if row == "" {
			continue
		}
		b.WriteString("  " + row + "\n")
	}

	b.WriteString("  " + faint.Render(strings.Repeat("─", width)) + "\n")
	b1 := analysis.EnsembleBunching(e, r.info.Period, 1)[0]
	b.WriteString(fmt.Sprintf("  %s %s  %s %s  %s\n",
		muted.Render("spread"), text.Render(fmt.Sprintf("%.5f", r.spread[len(r.spread)-1])),
		muted.Render("|b1|"), text.Render(fmt.Sprintf("%.4f", b1)),
		viz.SparklineChart(r.spread, 30)))

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

// Spread is the spread ratio of every snapshot seen so far.
func (r *LiveRenderer) Spread() []float64 { return r.spread }
