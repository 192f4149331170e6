package tasks

import (
	"context"
	"io"
)

// Anything implementing Task can be put into a [Library] and run by the
// runner, either on its own or as a step of a larger graph.
//
// A Task must be safe to start concurrently from multiple goroutines, and
// must not keep state between runs: each call to Start is independent.
type Task interface {
	Metadata() TaskMetadata
	Start(ctx context.Context, w io.Writer) error
}

// TaskMetadata describes the facts about a task that are used for
// orchestration and display, as opposed to its execution.
type TaskMetadata struct {
	// ID identifies a task, for example,
	//   - for command line invocation, as in `$ assetpipe task <id>`
	//   - in the gutter of the printed output.
	ID string

	// Description optionally provides additional information about a
	// task, which is displayed by `assetpipe list`. It can be one line or
	// many lines.
	Description string

	// Inputs are the path patterns, relative to the project directory,
	// which the task reads. They are informational: each task resolves
	// its own inputs when it starts.
	Inputs []string

	// Output is the directory, relative to the project directory, which
	// the task writes into.
	Output string

	// Watch specifies path patterns where, during a dev session, a
	// change should rerun the task. Watch supports globs, including `**`
	// for any number of directories.
	//
	// For example,
	//  - `"app/scss/**/*.scss"` watches for changes to any stylesheet
	//    under app/scss.
	//  - `"app/*.html"` watches for changes to markup files directly
	//    inside app, but not in its subdirectories.
	Watch []string
}
