// Package pipeline defines assetpipe's tasks and the graphs that run them.
//
// Each task reads the sources it is configured with, hands them to one
// transform, and writes what the transform produces into its destination
// directory. Tasks never share a destination except through the ordering of
// the graphs: clean finishes before anything writes, images before sprite,
// and sprite before collect.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/amonks/assetpipe/config"
	"github.com/amonks/assetpipe/internal/fsutil"
	"github.com/amonks/assetpipe/livereload"
	"github.com/amonks/assetpipe/runner"
	"github.com/amonks/assetpipe/tasks"
	"github.com/amonks/assetpipe/tasks/script"
)

const (
	IDStyles    = "styles"
	IDScripts   = "scripts"
	IDImages    = "images"
	IDFonts     = "fonts"
	IDSprite    = "sprite"
	IDTemplates = "templates"
	IDClean     = "clean"
	IDCollect   = "collect"
)

// The kinds of failure a task can have. Tasks wrap them, so use errors.Is.
var (
	// ErrSourceMissing means an input could not be found or read.
	ErrSourceMissing = errors.New("source missing")
	// ErrTransform means a transform rejected its input.
	ErrTransform = errors.New("transform failed")
	// ErrWrite means an output could not be written.
	ErrWrite = errors.New("write failed")
)

type Pipeline struct {
	cfg      config.Config
	notifier livereload.Notifier

	lib tasks.Library
}

// New builds the tasks for a project. Tasks publish what they write to n;
// pass [livereload.Nop] outside of a dev session.
func New(cfg config.Config, n livereload.Notifier) *Pipeline {
	if n == nil {
		n = livereload.Nop
	}
	p := &Pipeline{cfg: cfg, notifier: n}

	ts := []tasks.Task{p.stylesTask(), p.scriptsTask()}
	if cfg.Images != nil {
		ts = append(ts, p.imagesTask())
	}
	if cfg.Fonts != nil {
		ts = append(ts, p.fontsTask())
	}
	if cfg.Sprite != nil {
		ts = append(ts, p.spriteTask())
	}
	if cfg.Templates != nil {
		ts = append(ts, p.templatesTask())
	}
	ts = append(ts, p.cleanTask(), p.collectTask())
	for _, t := range cfg.Tasks {
		ts = append(ts, p.customTask(t))
	}
	p.lib = tasks.NewLibrary(ts...)
	return p
}

// Library returns every task, built-in and custom.
func (p *Pipeline) Library() tasks.Library { return p.lib }

// Config returns the configuration the pipeline was built from.
func (p *Pipeline) Config() config.Config { return p.cfg }

// convert runs every transform which reads sources and writes into the base
// directory. They have distinct destinations, so they run together.
func (p *Pipeline) convert() runner.Parallel {
	ids := []string{IDStyles, IDScripts, IDImages, IDFonts, IDTemplates}
	for _, t := range p.cfg.Tasks {
		ids = append(ids, t.ID)
	}
	var out runner.Parallel
	for _, id := range ids {
		if t := p.lib.Task(id); t != nil {
			out = append(out, runner.Run(t))
		}
	}
	return out
}

// Build is the full build: clean the distribution directory, convert every
// source, combine the sprite, and copy the outputs into the distribution
// directory.
func (p *Pipeline) Build() runner.Node {
	g := runner.Series{runner.Run(p.lib.Task(IDClean)), p.convert()}
	if t := p.lib.Task(IDSprite); t != nil {
		g = append(g, runner.Run(t))
	}
	return append(g, runner.Run(p.lib.Task(IDCollect)))
}

// Dev is the build a dev session starts with. It writes nothing into the
// distribution directory.
func (p *Pipeline) Dev() runner.Node {
	g := runner.Series{p.convert()}
	if t := p.lib.Task(IDSprite); t != nil {
		g = append(g, runner.Run(t))
	}
	return g
}

// Tasks returns a graph running the given tasks one after another, in the
// order given.
func (p *Pipeline) Tasks(ids ...string) (runner.Node, error) {
	ts, err := p.lib.Lookup(ids...)
	if err != nil {
		return nil, err
	}
	return runner.Series(runner.Tasks(ts...)), nil
}

func (p *Pipeline) customTask(t config.Task) tasks.Task {
	description := t.Description
	if description == "" && !strings.Contains(t.CMD, "\n") {
		description = fmt.Sprintf(`"%s"`, t.CMD)
	}
	return script.New(tasks.TaskMetadata{
		ID:          t.ID,
		Description: description,
		Watch:       t.Watch,
	}, p.cfg.Path(t.Dir), t.Env, t.CMD)
}

// served returns the url path, relative to the server root, at which the
// dev server serves the file at name. Files outside the base directory are
// named relative to the project.
func (p *Pipeline) served(name string) string {
	if rel, err := fsutil.Rel(p.cfg.Path(p.cfg.Base), name); err == nil && local(rel) {
		return rel
	}
	rel, _ := fsutil.Rel(p.cfg.Dir, name)
	return rel
}

// project returns name relative to the project directory, for logging.
func (p *Pipeline) project(name string) string {
	rel, err := fsutil.Rel(p.cfg.Dir, name)
	if err != nil {
		return name
	}
	return rel
}

// underBase returns dir relative to the base directory, if it is inside it.
func (p *Pipeline) underBase(dir string) (string, bool) {
	rel, err := fsutil.Rel(p.cfg.Path(p.cfg.Base), p.cfg.Path(dir))
	if err != nil || !local(rel) {
		return "", false
	}
	return rel, true
}

func local(rel string) bool {
	return filepath.IsLocal(filepath.FromSlash(rel))
}

func stem(name string) string {
	base := path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(base, path.Ext(base))
}

func logf(w io.Writer, f string, args ...any) {
	fmt.Fprintf(w, f+"\n", args...)
}
