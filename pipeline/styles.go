package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/amonks/assetpipe/internal/bundle"
	"github.com/amonks/assetpipe/internal/fsutil"
	"github.com/amonks/assetpipe/internal/stylesheet"
	"github.com/amonks/assetpipe/tasks"
)

func (p *Pipeline) stylesTask() tasks.Task {
	c := p.cfg.Styles
	return tasks.NewTaskFromFunc(tasks.TaskMetadata{
		ID:          IDStyles,
		Description: fmt.Sprintf("Compile %s into %s/%s.", c.Entry, c.Dest, c.Name),
		Inputs:      c.Watch,
		Output:      c.Dest,
		Watch:       c.Watch,
	}, p.styles)
}

func (p *Pipeline) styles(ctx context.Context, w io.Writer) error {
	c := p.cfg.Styles
	entry := p.cfg.Path(c.Entry)
	if _, err := os.Stat(entry); err != nil {
		return fmt.Errorf("%w: %w", ErrSourceMissing, err)
	}

	css, err := stylesheet.Compile(ctx, entry, stylesheet.Options{
		Compiler: c.Compiler,
		Targets:  c.Targets,
		Dir:      p.cfg.Dir,
	}, w)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrTransform, err)
	}

	return p.publish(w, fsutil.Dest(p.cfg.Path(c.Dest), c.Name, ""), css)
}

func (p *Pipeline) scriptsTask() tasks.Task {
	c := p.cfg.Scripts
	return tasks.NewTaskFromFunc(tasks.TaskMetadata{
		ID:          IDScripts,
		Description: fmt.Sprintf("Bundle %s into %s/%s.", c.Entry, c.Dest, c.Name),
		Inputs:      c.Watch,
		Output:      c.Dest,
		Watch:       c.Watch,
	}, p.scripts)
}

func (p *Pipeline) scripts(ctx context.Context, w io.Writer) error {
	c := p.cfg.Scripts
	entry := p.cfg.Path(c.Entry)
	if _, err := os.Stat(entry); err != nil {
		return fmt.Errorf("%w: %w", ErrSourceMissing, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	js, err := bundle.Bundle(entry, bundle.Options{Target: c.Target}, w)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransform, err)
	}

	return p.publish(w, fsutil.Dest(p.cfg.Path(c.Dest), c.Name, ""), js)
}

// publish writes a single-file output and streams it to connected pages.
func (p *Pipeline) publish(w io.Writer, name string, data []byte) error {
	if err := fsutil.WriteFile(name, data); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	logf(w, "wrote %s (%d bytes)", p.project(name), len(data))
	p.notifier.Stream(p.served(name))
	return nil
}
