// Package script provides a [tasks.Task] that runs a shell command. It backs
// the `[[task]]` entries of assets.toml, which let a project hook its own
// steps (a sitemap generator, a copy of vendored files) into the graph.
package script

import (
	"context"
	"fmt"
	"io"

	"github.com/amonks/assetpipe/internal/script"
	"github.com/amonks/assetpipe/tasks"
)

type Task struct {
	metadata tasks.TaskMetadata
	script   script.Script
}

// New creates a new Script Task with the given working directory, environment,
// and text. If dir is the empty string, the script is run in the current
// working directory. Env is appended to the current environment. Script is
// evaluated in a new bash process. Effectively, it is equivalent to
//
//	$ cd $DIR && $ENV bash -c "$TEXT"
func New(metadata tasks.TaskMetadata, dir string, env map[string]string, text string) Task {
	return Task{
		metadata: metadata,
		script:   script.New(dir, env, text),
	}
}

// Dir returns the directory that the script will execute in.
func (t Task) Dir() string { return t.script.Dir }

var _ tasks.Task = Task{}

// Metadata implements [tasks.Task].
func (t Task) Metadata() tasks.TaskMetadata { return t.metadata }

// Start implements [tasks.Task]. It executes the script and does not return
// until the script is done executing. Stdout and stderr are both written to w.
// A task with no script succeeds immediately.
func (t Task) Start(ctx context.Context, w io.Writer) error {
	if t.script.Text == "" {
		return nil
	}
	if err := t.script.Start(ctx, w, w); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}
