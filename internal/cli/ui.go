package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stdout receives command output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// Palette.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// Shared styles.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// status lines pair an icon with a message.
type status struct {
	icon  string
	color lipgloss.Color
	body  func(...string) string
}

var (
	statusSuccess = status{iconSuccess, colorGreen, nil}
	statusError   = status{iconError, colorRed, nil}
	statusWarning = status{iconWarning, colorYellow, StyleWarning.Render}
	statusInfo    = status{iconInfo, colorGray, nil}
)

func (s status) print(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.body != nil {
		msg = s.body(msg)
	}
	fmt.Fprintln(stdout, lipgloss.NewStyle().Foreground(s.color).Render(s.icon)+" "+msg)
}

func printSuccess(format string, args ...any) { statusSuccess.print(format, args...) }
func printError(format string, args ...any)   { statusError.print(format, args...) }
func printWarning(format string, args ...any) { statusWarning.print(format, args...) }
func printInfo(format string, args ...any)    { statusInfo.print(format, args...) }

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path of a written file.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints "N people · M edges · cached|fresh". Zero counts are
// left out.
func printStats(people, edges int, cached bool) {
	var parts []string
	if people > 0 {
		parts = append(parts, StyleDim.Render(plural(people, "person", "people")))
	}
	if edges > 0 {
		parts = append(parts, StyleDim.Render(plural(edges, "edge", "edges")))
	}
	if cached {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorGreen).Render("cached"))
	} else {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorGray).Render("fresh"))
	}
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() { fmt.Fprintln(stdout) }

// userColor converts a stored user colour ("#rrggbb" or "hsl(h, s%, l%)")
// to a terminal colour. Anything else renders white.
func userColor(s string) lipgloss.TerminalColor {
	if strings.HasPrefix(s, "#") {
		return lipgloss.Color(s)
	}
	var h, sat, l float64
	if _, err := fmt.Sscanf(s, "hsl(%g, %g%%, %g%%)", &h, &sat, &l); err == nil {
		return lipgloss.Color(hslToHex(h, sat/100, l/100))
	}
	return colorWhite
}

func hslToHex(h, s, l float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	to8 := func(v float64) int { return int(math.Round((v + m) * 255)) }
	return fmt.Sprintf("#%02X%02X%02X", to8(r), to8(g), to8(b))
}
