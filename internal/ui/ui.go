package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Brand colors
var (
	Brand  = color.New(color.FgHiBlue, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

// Kind colors, matching the viewer legend.
var kindColors = map[string]*color.Color{
	"Class":      color.New(color.FgBlue),
	"Individual": color.New(color.FgGreen),
	"Property":   color.New(color.FgYellow),
	"Unknown":    color.New(color.FgHiBlack),
}

const Mark = "◉"

// SetColor turns colored output on or off.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// Banner prints the ontoview banner.
func Banner(subtitle string) {
	fmt.Printf("%s %s — %s\n\n", Brand.Sprint(Mark), Brand.Sprint("ontoview"), subtitle)
}

// Kind renders a node kind in its legend color.
func Kind(kind string) string {
	if c, ok := kindColors[kind]; ok {
		return c.Sprint(kind)
	}
	return kind
}

// Table prints a simple aligned table.
func Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Println(headerLine)
	Subtle.Println(sepLine)

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Println(line)
	}
}

// StatusIcon returns a status icon string.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

// WarnIcon returns a warning icon.
func WarnIcon() string {
	return Warn.Sprint("⚠")
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// Paint adapts a color to a plain string formatter.
func Paint(c *color.Color) func(string) string {
	return func(s string) string { return c.Sprint(s) }
}
