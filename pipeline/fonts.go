package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/amonks/assetpipe/internal/fsutil"
	"github.com/amonks/assetpipe/internal/sfnt"
	"github.com/amonks/assetpipe/tasks"
)

var fontSources = []string{"**/*.{ttf,otf,TTF,OTF}"}

func (p *Pipeline) fontsTask() tasks.Task {
	c := p.cfg.Fonts
	inputs := []string{path.Join(c.Src, fontSources[0])}
	return tasks.NewTaskFromFunc(tasks.TaskMetadata{
		ID:          IDFonts,
		Description: fmt.Sprintf("Convert the fonts in %s into woff, ttf and woff2 in %s.", c.Src, c.Dest),
		Inputs:      inputs,
		Output:      c.Dest,
		Watch:       inputs,
	}, p.fonts)
}

// fonts converts in two stages. The first writes woff and ttf files; the
// second reads back exactly the ttf files the first wrote and converts
// them to woff2.
func (p *Pipeline) fonts(ctx context.Context, w io.Writer) error {
	ttfs, err := p.fontsStageOne(ctx, w)
	if err != nil {
		return err
	}
	return p.fontsStageTwo(ctx, w, ttfs)
}

func (p *Pipeline) fontsStageOne(ctx context.Context, w io.Writer) ([]string, error) {
	var (
		c    = p.cfg.Fonts
		src  = p.cfg.Path(c.Src)
		dest = p.cfg.Path(c.Dest)
	)
	sources, err := fsutil.Glob(src, fontSources...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceMissing, err)
	}

	var written []string
	for _, rel := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(fsutil.Dest(src, rel, ""))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceMissing, err)
		}
		font, err := sfnt.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTransform, rel, err)
		}
		woff, err := font.WOFF()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTransform, rel, err)
		}

		woffPath, ttfPath := fsutil.Dest(dest, rel, ".woff"), fsutil.Dest(dest, rel, ".ttf")
		for name, data := range map[string][]byte{woffPath: woff, ttfPath: font.SFNT()} {
			if err := fsutil.WriteFile(name, data); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrWrite, err)
			}
		}
		logf(w, "%s -> %s, %s", rel, p.project(woffPath), p.project(ttfPath))
		written = append(written, ttfPath)
	}
	return written, nil
}

func (p *Pipeline) fontsStageTwo(ctx context.Context, w io.Writer, ttfs []string) error {
	for _, ttf := range ttfs {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := os.ReadFile(ttf)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSourceMissing, err)
		}
		font, err := sfnt.Parse(data)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrTransform, p.project(ttf), err)
		}
		woff2, err := font.WOFF2()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrTransform, p.project(ttf), err)
		}

		to := fsutil.Dest(filepath.Dir(ttf), filepath.Base(ttf), ".woff2")
		if err := fsutil.WriteFile(to, woff2); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		logf(w, "%s -> %s", p.project(ttf), p.project(to))
	}
	return nil
}
