package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amonks/assetpipe/internal/color"
	"github.com/amonks/assetpipe/internal/styles"
	"github.com/amonks/assetpipe/pipeline"
	"github.com/amonks/assetpipe/runner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var italicStyle = lipgloss.NewStyle().Italic(true)

// colorProfile resolves the --color flag. In auto mode, color is used only
// when w is a terminal, and then only as much as the environment allows.
func colorProfile(mode string, w io.Writer) (termenv.Profile, error) {
	switch mode {
	case "never":
		return termenv.Ascii, nil
	case "always":
		return termenv.TrueColor, nil
	case "auto", "":
		f, ok := w.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return termenv.Ascii, nil
		}
		return termenv.NewOutput(f).EnvColorProfile(), nil
	}
	return termenv.Ascii, fmt.Errorf("invalid value '%s' for --color; legal values are auto, always and never", mode)
}

func listText(p *pipeline.Pipeline) string {
	b := &strings.Builder{}
	lib := p.Library()

	fmt.Fprintln(b, styles.Header.Render("TASKS"))
	for i, id := range lib.IDs() {
		if i != 0 {
			b.WriteString("\n")
		}
		meta := lib.Task(id).Metadata()

		fmt.Fprintf(b, "  %s\n", color.RenderHash(id))
		if meta.Description != "" {
			desc := wordwrap.String(meta.Description, 66)
			b.WriteString(indent.String(italicStyle.Render(desc), 4) + "\n")
		}
		if len(meta.Inputs) != 0 {
			fmt.Fprintf(b, "    Inputs:\n")
			for _, in := range meta.Inputs {
				fmt.Fprintf(b, "      - %s\n", in)
			}
		}
		if meta.Output != "" {
			fmt.Fprintf(b, "    Output: %s\n", meta.Output)
		}
	}

	fmt.Fprintln(b)
	fmt.Fprintln(b, styles.Header.Render("GRAPHS"))
	fmt.Fprintf(b, "  build: %s\n", wrapGraph(runner.Describe(p.Build())))
	fmt.Fprintf(b, "  dev:   %s\n", wrapGraph(runner.Describe(p.Dev())))

	fmt.Fprintln(b)
	fmt.Fprintln(b, styles.Header.Render("WATCHES"))
	reload := map[string]bool{}
	for _, pattern := range p.Config().Server.Reload {
		reload[pattern] = true
	}
	for _, pattern := range lib.Watches() {
		fmt.Fprintf(b, "  %s\n", pattern)
		for _, id := range lib.WithWatch(pattern) {
			fmt.Fprintf(b, "    - %s\n", color.RenderHash(id))
		}
		if reload[pattern] {
			fmt.Fprintf(b, "    - reload\n")
		}
	}
	for _, pattern := range p.Config().Server.Reload {
		if !lib.HasWatch(pattern) {
			fmt.Fprintf(b, "  %s\n    - reload\n", pattern)
		}
	}
	return b.String()
}

// wrapGraph wraps a graph description to the width of the list, lining
// continuation lines up under the first.
func wrapGraph(s string) string {
	wrapped := wordwrap.String(s, 60)
	lines := strings.SplitN(wrapped, "\n", 2)
	if len(lines) == 1 {
		return wrapped
	}
	return lines[0] + "\n" + indent.String(lines[1], 9)
}
