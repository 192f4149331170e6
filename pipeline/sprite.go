package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/amonks/assetpipe/internal/fsutil"
	"github.com/amonks/assetpipe/internal/sprite"
	"github.com/amonks/assetpipe/tasks"
)

func (p *Pipeline) spriteInputs() []string {
	c := p.cfg.Sprite
	return []string{path.Join(c.Dir, "*.svg"), "!" + path.Join(c.Dir, c.Name)}
}

// spritePage is the name of the reference page written next to the sprite.
func (p *Pipeline) spritePage() string {
	return stem(p.cfg.Sprite.Name) + ".html"
}

func (p *Pipeline) spriteTask() tasks.Task {
	c := p.cfg.Sprite
	return tasks.NewTaskFromFunc(tasks.TaskMetadata{
		ID:          IDSprite,
		Description: fmt.Sprintf("Combine the svgs in %s into %s, with a reference page.", c.Dir, path.Join(c.Dir, c.Name)),
		Inputs:      p.spriteInputs(),
		Output:      c.Dir,
	}, p.sprite)
}

func (p *Pipeline) sprite(ctx context.Context, w io.Writer) error {
	var (
		c   = p.cfg.Sprite
		dir = p.cfg.Path(c.Dir)
	)
	names, err := fsutil.Glob(dir, "*.svg", "!"+c.Name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceMissing, err)
	}
	if len(names) == 0 {
		logf(w, "no svgs in %s", c.Dir)
		return nil
	}

	icons := make([]sprite.Icon, len(names))
	ids := make([]string, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(fsutil.Dest(dir, name, ""))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSourceMissing, err)
		}
		ids[i] = stem(name)
		icons[i] = sprite.Icon{ID: ids[i], Data: data}
	}

	svg, err := sprite.Build(icons)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransform, err)
	}
	page, err := sprite.Page(c.Name, ids)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransform, err)
	}

	for name, data := range map[string][]byte{c.Name: svg, p.spritePage(): page} {
		if err := fsutil.WriteFile(fsutil.Dest(dir, name, ""), data); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	logf(w, "combined %d svgs into %s", len(icons), path.Join(c.Dir, c.Name))
	return nil
}
