// Package styles holds the lipgloss styles for the status lines that
// assetpipe writes alongside task output.
package styles

import (
	"fmt"
	"io"

	"github.com/amonks/assetpipe/internal/color"
	"github.com/charmbracelet/lipgloss"
)

var (
	Log = lipgloss.NewStyle().
		Foreground(color.XXXLight).
		Italic(true)

	Error = lipgloss.NewStyle().
		Foreground(color.Red).
		Italic(true)

	Success = lipgloss.NewStyle().
		Foreground(color.Green).
		Italic(true)

	Header = lipgloss.NewStyle().
		Bold(true).
		Underline(true)
)

// Fprintf writes one styled line to w. A nil w discards it.
func Fprintf(w io.Writer, style lipgloss.Style, f string, args ...any) {
	if w == nil {
		return
	}
	fmt.Fprintln(w, style.Render(fmt.Sprintf(f, args...)))
}
