package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/amonks/assetpipe/internal/fsutil"
	"github.com/amonks/assetpipe/tasks"
)

func (p *Pipeline) cleanTask() tasks.Task {
	return tasks.NewTaskFromFunc(tasks.TaskMetadata{
		ID:          IDClean,
		Description: fmt.Sprintf("Remove %s.", p.cfg.Dist),
		Output:      p.cfg.Dist,
	}, p.clean)
}

func (p *Pipeline) clean(ctx context.Context, w io.Writer) error {
	dist := p.cfg.Path(p.cfg.Dist)
	if !fsutil.Exists(dist) {
		logf(w, "%s does not exist", p.cfg.Dist)
		return nil
	}
	if err := os.RemoveAll(dist); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	logf(w, "removed %s", p.cfg.Dist)
	return nil
}

func (p *Pipeline) collectTask() tasks.Task {
	return tasks.NewTaskFromFunc(tasks.TaskMetadata{
		ID:          IDCollect,
		Description: fmt.Sprintf("Copy the build outputs in %s into %s.", p.cfg.Base, p.cfg.Dist),
		Inputs:      p.collectPatterns(),
		Output:      p.cfg.Dist,
	}, p.collect)
}

// collectPatterns returns the configured patterns, plus the outputs of the
// optional tasks, minus their sources, all relative to the base directory.
func (p *Pipeline) collectPatterns() []string {
	patterns := append([]string{}, p.cfg.Collect.Include...)
	include := func(dir string, globs ...string) {
		if rel, ok := p.underBase(dir); ok {
			for _, g := range globs {
				patterns = append(patterns, path.Join(rel, g))
			}
		}
	}
	exclude := func(dir, glob string) {
		if rel, ok := p.underBase(dir); ok {
			patterns = append(patterns, "!"+path.Join(rel, glob))
		}
	}

	if c := p.cfg.Images; c != nil {
		include(c.Dest, "**/*.{avif,webp,jpg,jpeg,png,svg}")
		exclude(c.Src, "**")
	}
	if c := p.cfg.Fonts; c != nil {
		include(c.Dest, "**/*.{woff,woff2,ttf}")
		exclude(c.Src, "**")
	}
	if c := p.cfg.Sprite; c != nil {
		include(c.Dir, c.Name)
		exclude(c.Dir, p.spritePage())
	}
	if c := p.cfg.Templates; c != nil {
		exclude(c.Pages, "**")
		exclude(c.Partials, "**")
	}
	exclude(p.cfg.Dist, "**")
	return patterns
}

// collect copies outputs into the distribution directory. Patterns which
// match nothing are not an error: optional outputs are collected only when
// they exist.
func (p *Pipeline) collect(ctx context.Context, w io.Writer) error {
	var (
		base = p.cfg.Path(p.cfg.Base)
		dist = p.cfg.Path(p.cfg.Dist)
	)
	names, err := fsutil.Glob(base, p.collectPatterns()...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceMissing, err)
	}
	if err := os.MkdirAll(dist, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fsutil.CopyFile(fsutil.Dest(base, name, ""), fsutil.Dest(dist, name, "")); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		logf(w, "%s", path.Join(p.cfg.Dist, name))
	}
	logf(w, "collected %d files into %s", len(names), p.cfg.Dist)
	return nil
}
