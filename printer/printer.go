// Package printer provides a [runner.MultiWriter] which interleaves the
// output of every task onto a single stream, with a gutter naming the task
// each run of lines came from.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/amonks/assetpipe/internal/color"
	"github.com/amonks/assetpipe/internal/mutex"
	"github.com/amonks/assetpipe/runner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type Printer struct {
	mu          *mutex.Mutex
	stdout      io.Writer
	renderer    *lipgloss.Renderer
	gutterWidth int
	lastKey     string
}

// New creates a Printer writing to stdout. The gutter is wide enough for the
// longest ID it will print; profile decides whether, and how richly, the
// gutter is colored.
func New(gutterWidth int, stdout io.Writer, profile termenv.Profile) *Printer {
	r := lipgloss.NewRenderer(stdout)
	r.SetColorProfile(profile)
	return &Printer{
		mu:          mutex.New("printer"),
		gutterWidth: gutterWidth,
		stdout:      stdout,
		renderer:    r,
	}
}

func (p *Printer) Write(key, message string) {
	defer p.mu.Lock("Write:" + key).Unlock()

	if p.stdout == nil {
		panic("nil stdout in printer")
	}

	keyStyle := p.renderer.NewStyle().
		Height(1).
		Align(lipgloss.Right).
		Margin(0, 2).
		Width(p.gutterWidth).
		Foreground(color.Hash(key))
	if strings.HasPrefix(key, "@") {
		keyStyle = keyStyle.Italic(true)
	}

	for _, l := range strings.Split(message, "\n") {
		if l == "" {
			continue
		}
		k, space := "", ""
		if key != p.lastKey {
			if p.lastKey != "" {
				space = "\n"
			}
			k, p.lastKey = key, key
		}
		fmt.Fprintln(p.stdout, space+lipgloss.JoinHorizontal(
			lipgloss.Top,
			keyStyle.Render(k),
			l,
		))
	}
}

var _ runner.MultiWriter = &Printer{}

func (p *Printer) Writer(id string) io.Writer {
	return printerWriter{p, id}
}

var _ io.Writer = printerWriter{}

type printerWriter struct {
	printer *Printer
	id      string
}

func (w printerWriter) Write(bs []byte) (int, error) {
	w.printer.Write(w.id, string(bs))
	return len(bs), nil
}
