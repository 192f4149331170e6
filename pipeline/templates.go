package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/amonks/assetpipe/internal/fsutil"
	"github.com/amonks/assetpipe/internal/markup"
	"github.com/amonks/assetpipe/tasks"
)

func (p *Pipeline) templateInputs() []string {
	c := p.cfg.Templates
	return []string{path.Join(c.Pages, "*.html"), path.Join(c.Partials, "**/*.html")}
}

func (p *Pipeline) templatesTask() tasks.Task {
	c := p.cfg.Templates
	inputs := p.templateInputs()
	return tasks.NewTaskFromFunc(tasks.TaskMetadata{
		ID:          IDTemplates,
		Description: fmt.Sprintf("Render the pages in %s, with the partials in %s, into %s.", c.Pages, c.Partials, c.Dest),
		Inputs:      inputs,
		Output:      c.Dest,
		Watch:       inputs,
	}, p.templates)
}

func (p *Pipeline) templates(ctx context.Context, w io.Writer) error {
	var (
		c        = p.cfg.Templates
		pages    = p.cfg.Path(c.Pages)
		partials = p.cfg.Path(c.Partials)
		dest     = p.cfg.Path(c.Dest)
	)

	partialNames, err := fsutil.Glob(partials, "**/*.html")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceMissing, err)
	}
	set, err := markup.ParsePartials(partials, partialNames)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransform, err)
	}

	pageNames, err := fsutil.Glob(pages, "*.html")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceMissing, err)
	}
	for _, name := range pageNames {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(fsutil.Dest(pages, name, ""))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSourceMissing, err)
		}
		out, err := set.Render(name, src, c.Data)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTransform, err)
		}
		to := fsutil.Dest(dest, name, "")
		if err := fsutil.WriteFile(to, out); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		logf(w, "%s -> %s", path.Join(c.Pages, name), p.project(to))
	}
	return nil
}
