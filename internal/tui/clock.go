package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/parser"
)

const logo = `
 ██████╗██╗  ██╗██╗   ██╗███╗   ███╗ ██████╗
██╔════╝██║  ██║██║   ██║████╗ ████║██╔═══██╗
██║     ███████║██║   ██║██╔████╔██║██║   ██║
██║     ██╔══██║██║   ██║██║╚██╔╝██║██║   ██║
╚██████╗██║  ██║╚██████╔╝██║ ╚═╝ ██║╚██████╔╝
 ╚═════╝╚═╝  ╚═╝ ╚═════╝ ╚═╝     ╚═╝ ╚═════╝`

// glyphs are 5x5 block digits for the big clock.
var glyphs = map[rune][5]string{
	'0': {" ███ ", "█   █", "█   █", "█   █", " ███ "},
	'1': {"  █  ", " ██  ", "  █  ", "  █  ", "█████"},
	'2': {" ███ ", "█   █", "   █ ", "  █  ", "█████"},
	'3': {" ███ ", "█   █", "  ██ ", "█   █", " ███ "},
	'4': {"█   █", "█   █", "█████", "    █", "    █"},
	'5': {"█████", "█    ", "████ ", "    █", "████ "},
	'6': {" ███ ", "█    ", "████ ", "█   █", " ███ "},
	'7': {"█████", "    █", "   █ ", "  █  ", " █   "},
	'8': {" ███ ", "█   █", " ███ ", "█   █", " ███ "},
	'9': {" ███ ", "█   █", " ████", "    █", " ███ "},
	':': {"     ", "  █  ", "     ", "  █  ", "     "},
}

// clockText is MM:SS under an hour and H:MM:SS after.
func clockText(d time.Duration) string {
	sec := int64(d / time.Second)
	if sec < 3600 {
		return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
	}
	return parser.FormatSeconds(sec)
}

// bigClock renders d in block digits.
func bigClock(d time.Duration) string {
	var lines [5]strings.Builder
	for _, r := range clockText(d) {
		g, ok := glyphs[r]
		if !ok {
			continue
		}
		for i := range lines {
			lines[i].WriteString(g[i])
			lines[i].WriteString(" ")
		}
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	out := make([]string, len(lines))
	for i := range lines {
		out[i] = style.Render(lines[i].String())
	}
	return strings.Join(out, "\n")
}

// truncate shortens s to width display cells.
func truncate(s string, width int) string {
	if width <= 3 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// padding fills s up to width display cells.
func padding(s string, width int) string {
	return strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}

func dateOrEmpty(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return parser.FormatDate(t, loc)
}
