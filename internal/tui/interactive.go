package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/lscsim/internal/config"
)

// Palette shared by the launcher and the live view.
var (
	accent = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	text   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	muted  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	faint  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	good   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warn   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	value  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const defaultPreset = "default"

var presetInfo = map[string]string{
	defaultPreset: "modulated beam, harmonic solver",
	"hghg":        "strong seeding, optimal b1",
	"quiet":       "unmodulated quiet start",
	"cold":        "low energy, high current",
	"grid-fine":   "fine grid, 100k particles",
}

// tunable is a parameter shown on the config screen; ←→ move it by step.
type tunable struct {
	name string
	step float64
}

var tunables = []tunable{
	{"beam.particles", 100},
	{"beam.current", 10},
	{"beam.gamma", 10},
	{"laser.modulation", 0.1},
	{"laser.compression", 0.05},
	{"drift.length", 0.1},
	{"drift.eval_points", 10},
}

type screen int

const (
	screenPresets screen = iota
	screenTune
)

type model struct {
	screen      screen
	cursor      int
	presets     []string
	integrators []string
	selected    string
	cfg         *config.Config

	field int
	editing     bool
	input     string
	message     string

	chosen *config.Config

	width  int
	height int
}

// NewInteractiveApp lists every preset; integrators are the names the config
// screen cycles through.
func NewInteractiveApp(integrators []string) *model {
	return &model{
		screen:      screenPresets,
		presets:     append([]string{defaultPreset}, config.ListPresets()...),
		integrators: integrators,
		width:       80,
		height:      24,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch {
	case m.screen == screenPresets:
		return m.menuKey(msg)
	case m.editing:
		return m.editKey(msg), nil
	default:
		return m.configKey(msg)
	}
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = presetConfig(m.selected)
		m.screen = screenTune
		m.field = 0
		m.message = ""
	}
	return m, nil
}

func presetConfig(name string) *config.Config {
	if cfg := config.GetPreset(name); cfg != nil {
		return cfg
	}
	return config.DefaultConfig()
}

// editKey feeds one key to the numeric input line of the focused tunable.
func (m model) editKey(msg tea.KeyMsg) model {
	switch key := msg.String(); key {
	case "enter":
		if v, err := strconv.ParseFloat(m.input, 64); err == nil {
			m.set(tunables[m.field].name, v)
		}
		m.editing, m.input = false, ""
	case "esc":
		m.editing, m.input = false, ""
	case "backspace":
		m.input = m.input[:max(len(m.input)-1, 0)]
	default:
		if len(key) == 1 && strings.ContainsAny(key, "0123456789.-+e") {
			m.input += key
		}
	}
	return m
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	name := tunables[m.field].name
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.screen = screenPresets
	case "up", "k":
		if m.field > 0 {
			m.field--
		}
	case "down", "j":
		if m.field < len(tunables)-1 {
			m.field++
		}
	case "enter", " ":
		m.editing = true
		m.input = strconv.FormatFloat(m.get(name), 'g', -1, 64)
	case "left", "h":
		m.set(name, m.get(name)-tunables[m.field].step)
	case "right", "l":
		m.set(name, m.get(name)+tunables[m.field].step)
	case "g":
		if m.cfg.Solver == config.SolverHarmonic {
			m.cfg.Solver = config.SolverGrid
		} else {
			m.cfg.Solver = config.SolverHarmonic
		}
	case "i":
		m.cfg.Integrator = next(m.integrators, m.cfg.Integrator)
	case "s":
		if err := m.cfg.Validate(); err != nil {
			m.message = err.Error()
			return m, nil
		}
		m.chosen = m.cfg.Clone()
		return m, tea.Quit
	}
	return m, nil
}

func next(names []string, cur string) string {
	if len(names) == 0 {
		return cur
	}
	for i, n := range names {
		if n == cur {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func (m model) get(name string) float64 {
	v, _ := m.cfg.Param(name)
	return v
}

func (m *model) set(name string, v float64) {
	if err := m.cfg.SetParam(name, v); err != nil {
		m.message = err.Error()
		return
	}
	m.message = ""
}

func (m model) View() string {
	if m.screen == screenTune {
		return m.viewConfig()
	}
	return m.viewMenu()
}

// row renders one list entry; the focused one gets a marker and brighter
// colors.
func row(focused bool, label string, width int, detail string, detailStyle lipgloss.Style) string {
	label = fmt.Sprintf("%-*s", width, label)
	if focused {
		return "      " + accent.Render("▸ ") + text.Render(label) + detailStyle.Render(detail) + "\n"
	}
	return "        " + muted.Render(label) + faint.Render(detail) + "\n"
}

func (m model) viewMenu() string {
	rule := faint.Render("    " + strings.Repeat("━", 26))
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n           %s\n%s\n\n", rule, accent.Render("l s c s i m"), rule)
	for i, name := range m.presets {
		b.WriteString(row(i == m.cursor, name, 16, presetInfo[name], muted))
	}
	b.WriteString("\n" + muted.Render("      ↑↓ select   enter configure   q quit") + "\n")
	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n      %s  %s\n", accent.Render(m.selected), muted.Render(presetInfo[m.selected]))
	b.WriteString(faint.Render("      "+strings.Repeat("─", 36)) + "\n\n")

	for i, t := range tunables {
		val := fmt.Sprintf("%10.4g", m.get(t.name))
		if m.editing && i == m.field {
			val = fmt.Sprintf("%10s", m.input+"▋")
		}
		b.WriteString(row(i == m.field, t.name, 18, val, value))
	}

	fmt.Fprintf(&b, "\n        %s%s\n", muted.Render(fmt.Sprintf("%-18s", "solver")), good.Render(m.cfg.Solver))
	fmt.Fprintf(&b, "        %s%s\n", muted.Render(fmt.Sprintf("%-18s", "integrator")), good.Render(m.cfg.Integrator))
	if m.message != "" {
		b.WriteString("\n      " + warn.Render(m.message) + "\n")
	}
	b.WriteString("\n" + muted.Render("      ↑↓ select  ←→ adjust  enter edit  g solver  i integrator") + "\n")
	b.WriteString(muted.Render("      s start  esc back") + "\n")
	return b.String()
}

// RunInteractive lets the user pick a preset and tune it. It returns nil
// when the user quits without starting a drift.
func RunInteractive(integrators []string) (*config.Config, error) {
	final, err := tea.NewProgram(*NewInteractiveApp(integrators), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(model); ok {
		return m.chosen, nil
	}
	return nil, nil
}
