// Package runner executes task graphs. A graph is built from [Step], [Series]
// and [Parallel] nodes; the [Runner] walks it, runs each task with its own
// output writer, and records each task's status as it goes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/amonks/assetpipe/internal/executor"
	"github.com/amonks/assetpipe/internal/mutex"
	"github.com/amonks/assetpipe/internal/styles"
	"github.com/amonks/assetpipe/tasks"
	"github.com/charmbracelet/lipgloss"
)

// InternalTaskPipeline is the ID of the stream the Runner uses for messages
// about the run itself, as opposed to any one task.
const InternalTaskPipeline = "@pipeline"

type Runner struct {
	mw *lineBufferedMultiWriter

	// Take mu to touch status.
	mu     *mutex.Mutex
	status map[string]TaskStatus
}

func New(mw MultiWriter) *Runner {
	return &Runner{
		mw:     wrapMultiWriter(mw),
		mu:     mutex.New("runner"),
		status: map[string]TaskStatus{},
	}
}

// A TaskError is returned when a task fails. Series return their failing
// child's TaskError unchanged, so the first failure of a run can always be
// traced to a task with errors.As.
type TaskError struct {
	ID  string
	Err error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task '%s': %s", e.ID, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Execute runs the graph and does not return until it's done. The returned
// error is nil only if every task in the graph succeeded.
func (r *Runner) Execute(ctx context.Context, n Node) error {
	r.mu.Lock("Execute")
	for _, id := range IDs(n) {
		r.status[id] = TaskStatusNotStarted
	}
	r.mu.Unlock()

	err := r.execute(ctx, n)

	switch {
	case err == nil:
		r.printf(InternalTaskPipeline, styles.Success, "done")
	case errors.Is(err, context.Canceled):
		r.printf(InternalTaskPipeline, styles.Log, "canceled")
	default:
		r.printf(InternalTaskPipeline, styles.Error, "failed")
		for _, te := range Failures(err) {
			r.printf(InternalTaskPipeline, styles.Error, "  %s", te)
		}
	}
	r.mw.flush(InternalTaskPipeline)

	return err
}

// Status returns a snapshot of the status of every task the Runner has seen.
func (r *Runner) Status() map[string]TaskStatus {
	defer r.mu.Lock("Status").Unlock()

	out := make(map[string]TaskStatus, len(r.status))
	for id, s := range r.status {
		out[id] = s
	}
	return out
}

// TaskStatus returns the status of a single task.
func (r *Runner) TaskStatus(id string) TaskStatus {
	defer r.mu.Lock("TaskStatus").Unlock()
	return r.status[id]
}

func (r *Runner) execute(ctx context.Context, n Node) error {
	switch n := n.(type) {
	case Step:
		return r.runStep(ctx, n.Task)

	case Series:
		for i, child := range n {
			if err := ctx.Err(); err != nil {
				r.skip(n[i:])
				return err
			}
			if err := r.execute(ctx, child); err != nil {
				r.skip(n[i+1:])
				return err
			}
		}
		return nil

	case Parallel:
		var (
			wg   sync.WaitGroup
			errs = make([]error, len(n))
		)
		for i, child := range n {
			wg.Add(1)
			go func(i int, child Node) {
				defer wg.Done()
				errs[i] = r.execute(ctx, child)
			}(i, child)
		}
		wg.Wait()
		return errors.Join(errs...)
	}

	panic(fmt.Errorf("unknown node type %T", n))
}

func (r *Runner) runStep(ctx context.Context, t tasks.Task) error {
	id := t.Metadata().ID

	r.setStatus(id, TaskStatusRunning)
	r.printf(id, styles.Log, "starting")

	w := r.mw.Writer(id)
	x := executor.New(ctx, func(ctx context.Context) error {
		return t.Start(ctx, w)
	})
	x.Execute()
	err := <-x.Wait()
	r.mw.flush(id)

	if err != nil {
		r.setStatus(id, TaskStatusFailed)
		r.printf(id, styles.Error, "exit: %s", err)
		return &TaskError{ID: id, Err: err}
	}

	r.setStatus(id, TaskStatusDone)
	r.printf(id, styles.Log, "exit ok")
	return nil
}

func (r *Runner) skip(ns []Node) {
	for _, n := range ns {
		for _, id := range IDs(n) {
			r.setStatus(id, TaskStatusSkipped)
			r.printf(id, styles.Log, "skipped")
		}
	}
}

func (r *Runner) setStatus(id string, s TaskStatus) {
	defer r.mu.Lock("setStatus").Unlock()
	r.status[id] = s
}

func (r *Runner) printf(id string, style lipgloss.Style, f string, args ...any) {
	w := r.mw.Writer(id)
	s := fmt.Sprintf(f, args...)
	w.Write([]byte(style.Render(s) + "\n"))
}

// Failures returns every TaskError contained in err, including those joined
// together by a Parallel node.
func Failures(err error) []*TaskError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*TaskError); ok {
		return []*TaskError{te}
	}
	var out []*TaskError
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			out = append(out, Failures(inner)...)
		}
	case interface{ Unwrap() error }:
		out = append(out, Failures(e.Unwrap())...)
	}
	return out
}

type TaskStatus int

const (
	taskStatusInvalid TaskStatus = iota
	TaskStatusNotStarted
	TaskStatusRunning
	TaskStatusFailed
	TaskStatusDone
	TaskStatusSkipped
)

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusNotStarted:
		return "not started"
	case TaskStatusRunning:
		return "running"
	case TaskStatusFailed:
		return "failed"
	case TaskStatusDone:
		return "done"
	case TaskStatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("TaskStatus(%d)", int(s))
}
