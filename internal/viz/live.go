package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/lscsim/internal/analysis"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/experiment"
)

const (
	width          = 64
	height         = 20
	portraitPoints = 4000
)

// SnapshotMsg delivers one evaluation point of a running drift. Positions
// in Ens are wrapped.
type SnapshotMsg struct {
	Index int
	Z     float64
	Ens   *dynamo.Ensemble
}

// DoneMsg reports the end of the drift.
type DoneMsg struct {
	Result *experiment.Result
	Err    error
}

type TickMsg time.Time

// Snapshot is what the view keeps of every evaluation point for replay.
type Snapshot struct {
	Z        float64
	Spread   float64
	Bunching float64
	Portrait *analysis.PhasePortrait2D
}

// Info describes the drift being shown.
type Info struct {
	Title     string
	Length    float64
	Points    int
	Particles int
	Sigma0    float64
	Period    float64
	Coord     dynamo.Coordinate
}

func InfoFor(exp *experiment.Experiment) Info {
	cfg, p := exp.Config(), exp.Params()
	return Info{
		Title:     fmt.Sprintf("%s / %s", exp.Solver().Name(), cfg.Integrator),
		Length:    cfg.Drift.Length,
		Points:    cfg.Drift.EvalPoints,
		Particles: p.N,
		Sigma0:    p.SigmaEta,
		Period:    p.Period(),
		Coord:     p.Coord,
	}
}

// Model shows the longitudinal phase space of the newest snapshot next to
// the spread history.
type Model struct {
	info   Info
	events <-chan tea.Msg
	cancel context.CancelFunc

	history  []Snapshot
	etaMax   float64
	playHead int
	theme    int
	showHelp bool

	done    bool
	result  *experiment.Result
	err     error
	started time.Time
	elapsed time.Duration
	canvas  *Canvas
}

// NewModel reads snapshots from events until it is closed. cancel, if not
// nil, is called when the user quits.
func NewModel(info Info, events <-chan tea.Msg, cancel context.CancelFunc) Model {
	return Model{
		info:     info,
		events:   events,
		cancel:   cancel,
		history:  make([]Snapshot, 0, max(info.Points, 1)),
		playHead: -1,
		started:  time.Now(),
		canvas:   NewCanvas(width, height),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func waitFor(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitFor(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "end":
			m.playHead = -1
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		case "?":
			m.showHelp = !m.showHelp
		}
	case SnapshotMsg:
		m.observe(msg)
		return m, waitFor(m.events)
	case DoneMsg:
		m.done = true
		m.result, m.err = msg.Result, msg.Err
		m.elapsed = time.Since(m.started)
		return m, waitFor(m.events)
	case TickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Since(m.started)
		return m, tick()
	}
	return m, nil
}

func (m *Model) observe(msg SnapshotMsg) {
	snap := Snapshot{Z: msg.Z}
	if msg.Ens != nil && msg.Ens.Len() > 0 {
		if m.info.Sigma0 > 0 {
			snap.Spread = stat.PopStdDev(msg.Ens.Eta, nil) / m.info.Sigma0
		}
		snap.Bunching = analysis.EnsembleBunching(msg.Ens, m.info.Period, 1)[0]
		snap.Portrait = analysis.EnsemblePortrait(msg.Ens, msg.Z, portraitPoints)
		m.etaMax = math.Max(m.etaMax, math.Max(floats.Max(msg.Ens.Eta), -floats.Min(msg.Ens.Eta)))
	}
	m.history = append(m.history, snap)
}

// scrub moves the replay position; stepping past the newest snapshot
// returns to live.
func (m *Model) scrub(dir int) {
	if len(m.history) == 0 {
		return
	}
	if m.playHead == -1 {
		m.playHead = len(m.history) - 1
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m Model) current() (Snapshot, int, bool) {
	if len(m.history) == 0 {
		return Snapshot{}, -1, false
	}
	if m.playHead >= 0 {
		return m.history[m.playHead], m.playHead, true
	}
	return m.history[len(m.history)-1], len(m.history) - 1, true
}

// Result is the finished run, once the drift has ended.
func (m Model) Result() (*experiment.Result, error) { return m.result, m.err }

func (m Model) draw(snap Snapshot) {
	m.canvas.Clear()
	w := m.canvas.Width*2 - 1
	mid := m.canvas.Height * 2
	m.canvas.DrawLine(0, mid, w, mid)
	if snap.Portrait == nil || m.etaMax == 0 {
		return
	}
	ymax := 1.1 * m.etaMax
	for _, p := range snap.Portrait.Points {
		m.canvas.Plot(p.X, p.Y, 0, m.info.Period, -ymax, ymax)
	}
}

func (m Model) View() string {
	pal := Themes[m.theme].palette()
	snap, idx, ok := m.current()
	m.draw(snap)

	axis := fmt.Sprintf("η vs %s in [0, %.3g)", m.info.Coord, m.info.Period)
	canvasView := lipgloss.NewStyle().Padding(1, 2).Render(m.canvas.String() + pal.muted.Render(axis))

	var s strings.Builder
	s.WriteString(pal.header.Render(strings.ToUpper(m.info.Title)) + "\n")

	status := pal.running.Render("● DRIFTING")
	switch {
	case m.done && m.err != nil:
		status = pal.failed.Render("✕ FAILED")
	case m.done:
		status = pal.done.Render("✓ DONE")
	}
	if m.playHead >= 0 {
		status += pal.muted.Render(fmt.Sprintf("  replay %d/%d", idx+1, len(m.history)))
	}
	s.WriteString(status + "\n\n")

	fraction := 0.0
	if ok && m.info.Length > 0 {
		fraction = snap.Z / m.info.Length
	}
	s.WriteString(ProgressBar(fraction, 30, pal.running) + pal.muted.Render(fmt.Sprintf(" %3.0f%%", 100*fraction)) + "\n")

	spread := make([]float64, 0, len(m.history))
	bunching := make([]float64, 0, len(m.history))
	for _, h := range m.history[:idx+1] {
		spread = append(spread, h.Spread)
		bunching = append(bunching, h.Bunching)
	}
	if len(spread) > 1 {
		chart := asciigraph.Plot(spread, asciigraph.Height(6), asciigraph.Width(30), asciigraph.Caption("σ_η/σ_η0"))
		s.WriteString(pal.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(pal.label.Render(label) + pal.value.Render(value) + "\n")
	}
	row("z", fmt.Sprintf("%.4g / %.4g m", snap.Z, m.info.Length))
	row("snapshot", fmt.Sprintf("%d / %d", idx+1, m.info.Points))
	row("spread", fmt.Sprintf("%.5f", snap.Spread))
	row("|b1|", fmt.Sprintf("%.4f", snap.Bunching))
	row("particles", fmt.Sprintf("%d", m.info.Particles))
	row("elapsed", m.elapsed.Round(10*time.Millisecond).String())
	if len(bunching) > 1 {
		s.WriteString(pal.label.Render("|b1| hist") + SparklineChart(bunching, 24) + "\n")
	}
	if m.done && m.err != nil {
		s.WriteString("\n" + pal.failed.Render(m.err.Error()) + "\n")
	}

	s.WriteString(pal.help.Render("\n" + Separator(30, pal.muted) + "\n[ ]:Replay  End:Live  T:Theme\n?:Help  Q:Quit"))

	statsView := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(Themes[m.theme].Muted).
		Padding(1, 2).
		Width(48).
		Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  [        - Previous snapshot        ║
║  ]        - Next snapshot            ║
║  End      - Back to live             ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q / Esc  - Stop the drift and quit  ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// RunLive runs exp in the background under the live view. Quitting the view
// stops the drift; the result is whatever the drift returned by then.
func RunLive(ctx context.Context, exp *experiment.Experiment, opts ...tea.ProgramOption) (*experiment.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tea.Msg, 8)
	finished := make(chan DoneMsg, 1)
	go func() {
		defer close(events)
		res, err := exp.RunWithCallback(ctx, func(i int, z float64, ens *dynamo.Ensemble) bool {
			select {
			case events <- SnapshotMsg{Index: i, Z: z, Ens: ens}:
				return true
			case <-ctx.Done():
				return false
			}
		})
		done := DoneMsg{Result: res, Err: err}
		finished <- done
		select {
		case events <- done:
		case <-ctx.Done():
		}
	}()

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(NewModel(InfoFor(exp), events, cancel), opts...).Run()
	cancel()
	done := <-finished
	if err != nil {
		return nil, err
	}
	return done.Result, done.Err
}
