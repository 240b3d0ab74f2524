package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// ProgressBar renders fraction (clamped to [0,1]) as a bar of width cells.
func ProgressBar(fraction float64, width int, fill lipgloss.Style) string {
	filled := min(max(int(fraction*float64(width)), 0), width)
	return fill.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

// SparklineChart draws values as one row of block glyphs, colored by level.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	// ends on the newest value
	step := max((len(values)+width-1)/width, 1)

	var result strings.Builder
	for i := len(values) - 1 - step*(width-1); i < len(values); i += step {
		if i < 0 {
			continue
		}
		norm := (values[i] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			result.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			result.WriteString(SparkMid.Render(c))
		default:
			result.WriteString(SparkLow.Render(c))
		}
	}

	return result.String()
}

// Separator is a muted rule with a centre mark.
func Separator(width int, style lipgloss.Style) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return style.Render(left + " ◆ " + right)
}
