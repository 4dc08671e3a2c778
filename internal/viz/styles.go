package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Hint    lipgloss.Style
	Running lipgloss.Style
	Paused  lipgloss.Style
	Warn    lipgloss.Style
	Canvas  lipgloss.Style
	Panel   lipgloss.Style
	Graph   lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).MarginBottom(1),
		Label:   lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:   lipgloss.NewStyle().Foreground(t.Text),
		Hint:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		Running: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Paused:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Warn:    lipgloss.NewStyle().Foreground(t.Error),
		Canvas:  lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 2),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(46),
		Graph: lipgloss.NewStyle().Foreground(t.Accent),
	}
}

// ProgressBar renders v in [0, 1] as a filled bar.
func ProgressBar(v float64, width int) string {
	filled := int(math.Round(clampUnit(v) * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// CenterBar renders v in [-1, 1] as a bar growing out from the middle.
func CenterBar(v float64, width int) string {
	half := width / 2
	v = math.Max(-1, math.Min(1, v))
	n := int(math.Round(math.Abs(v) * float64(half)))
	left := strings.Repeat("░", half)
	right := strings.Repeat("░", width-half)
	if v < 0 {
		left = strings.Repeat("░", half-n) + strings.Repeat("█", n)
	} else {
		right = strings.Repeat("█", n) + strings.Repeat("░", width-half-n)
	}
	return left + "│" + right
}

// FormatAngle prints degrees with a fixed width.
func FormatAngle(deg float64) string {
	return fmt.Sprintf("%7.2f°", deg)
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
