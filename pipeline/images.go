package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/amonks/assetpipe/internal/fsutil"
	"github.com/amonks/assetpipe/internal/imaging"
	"github.com/amonks/assetpipe/tasks"
)

// Report counts the sources an image run looked at. A source is processed
// if at least one of its outputs was re-encoded, and skipped if every
// output was already up to date.
type Report struct {
	Processed int
	Skipped   int
}

func (r Report) String() string {
	return fmt.Sprintf("processed %d, skipped %d", r.Processed, r.Skipped)
}

func (p *Pipeline) imageInputs() []string {
	c := p.cfg.Images
	var patterns []string
	for _, inc := range c.Include {
		patterns = append(patterns, path.Join(c.Src, inc))
	}
	return patterns
}

func (p *Pipeline) imagesTask() tasks.Task {
	c := p.cfg.Images
	inputs := p.imageInputs()
	return tasks.NewTaskFromFunc(tasks.TaskMetadata{
		ID:          IDImages,
		Description: fmt.Sprintf("Convert the images in %s into %v in %s.", c.Src, c.Formats, c.Dest),
		Inputs:      inputs,
		Output:      c.Dest,
		Watch:       inputs,
	}, func(ctx context.Context, w io.Writer) error {
		report, err := p.Images(ctx, w)
		if err != nil {
			return err
		}
		logf(w, "%s", report)
		return nil
	})
}

// Images converts every image source whose outputs are missing or older
// than it.
func (p *Pipeline) Images(ctx context.Context, w io.Writer) (Report, error) {
	var (
		c       = p.cfg.Images
		src     = p.cfg.Path(c.Src)
		dest    = p.cfg.Path(c.Dest)
		report  Report
		quality = imaging.Quality{AVIF: c.AVIFQuality, WebP: c.WebPQuality, JPEG: c.JPEGQuality}
	)

	sources, err := fsutil.Glob(src, c.Include...)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrSourceMissing, err)
	}
	if err := p.checkCollisions(sources); err != nil {
		return report, err
	}

	for _, rel := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var (
			from = fsutil.Dest(src, rel, "")
			data []byte
			did  bool
		)
		for _, f := range p.formats(rel) {
			to := fsutil.Dest(dest, rel, imaging.Ext(rel, f))
			stale, err := fsutil.Stale(from, to)
			if err != nil {
				return report, fmt.Errorf("%w: %w", ErrSourceMissing, err)
			}
			if !stale {
				continue
			}

			if data == nil {
				if data, err = os.ReadFile(from); err != nil {
					return report, fmt.Errorf("%w: %w", ErrSourceMissing, err)
				}
			}
			out, err := imaging.Encode(rel, data, f, quality)
			if err != nil {
				return report, fmt.Errorf("%w: %w", ErrTransform, err)
			}
			if err := fsutil.WriteFile(to, out); err != nil {
				return report, fmt.Errorf("%w: %w", ErrWrite, err)
			}
			logf(w, "%s -> %s", rel, p.project(to))
			did = true
		}

		if did {
			report.Processed++
		} else {
			report.Skipped++
		}
	}
	return report, nil
}

// checkCollisions fails if two sources would write the same output, as
// hero.png and hero.jpg both would for hero.webp.
func (p *Pipeline) checkCollisions(sources []string) error {
	owners := map[string]string{}
	for _, rel := range sources {
		for _, f := range p.formats(rel) {
			out := fsutil.Dest("", rel, imaging.Ext(rel, f))
			if other, ok := owners[out]; ok && other != rel {
				return fmt.Errorf("%w: '%s' and '%s' both produce '%s'", ErrTransform, other, rel, filepath.ToSlash(out))
			}
			owners[out] = rel
		}
	}
	return nil
}

// formats returns the formats which a source gets.
func (p *Pipeline) formats(rel string) []imaging.Format {
	c := p.cfg.Images
	modern := true
	for _, pattern := range c.SkipModern {
		if fsutil.Match(pattern, rel) {
			modern = false
		}
	}
	var out []imaging.Format
	for _, f := range c.Formats {
		f := imaging.Format(f)
		if f != imaging.Original && !modern {
			continue
		}
		out = append(out, f)
	}
	return out
}
