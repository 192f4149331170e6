package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/amonks/assetpipe/tasks"
)

// Task is a configurable [tasks.Task] for tests. It announces what it does on
// its writer with lines prefixed by "!", so that tests can assert on the
// order of events.
type Task struct {
	meta tasks.TaskMetadata

	output   []string
	onCancel *error
	delay    time.Duration
	exit     <-chan error

	calls atomic.Int32
}

var _ tasks.Task = &Task{}

func NewTask(id string) *Task { return &Task{meta: tasks.TaskMetadata{ID: id}} }

func (t *Task) Metadata() tasks.TaskMetadata { return t.meta }

func (t *Task) WithWatch(ws ...string) *Task       { t.meta.Watch = ws; return t }
func (t *Task) WithDescription(d string) *Task     { t.meta.Description = d; return t }
func (t *Task) WithOutput(output ...string) *Task  { t.output = output; return t }
func (t *Task) WithExit(ex <-chan error) *Task     { t.exit = ex; return t }
func (t *Task) WithCancel(err error) *Task         { t.onCancel = &err; return t }
func (t *Task) WithDelay(d time.Duration) *Task    { t.delay = d; return t }

// WithImmediateFailure makes every run fail with the error "fail".
func (t *Task) WithImmediateFailure() *Task {
	return t.WithFailure(errors.New("fail"))
}

// WithFailure makes every run fail with err.
func (t *Task) WithFailure(err error) *Task {
	c := make(chan error)
	go func() {
		for {
			c <- err
		}
	}()
	return t.WithExit(c)
}

// Calls returns the number of times the task has been started.
func (t *Task) Calls() int { return int(t.calls.Load()) }

func (t *Task) Start(ctx context.Context, w io.Writer) error {
	t.calls.Add(1)

	if t.onCancel != nil {
		fmt.Fprintf(w, "! %s: start\n", t.meta.ID)
		<-ctx.Done()
		fmt.Fprintf(w, "! %s: canceled\n", t.meta.ID)
		return *t.onCancel
	}

	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			fmt.Fprintf(w, "! %s: canceled\n", t.meta.ID)
			return ctx.Err()
		}
	}

	if t.exit == nil {
		if t.output == nil {
			fmt.Fprintf(w, "! %s: execute\n", t.meta.ID)
		} else {
			for _, s := range t.output {
				fmt.Fprint(w, s)
			}
		}
		return nil
	}

	fmt.Fprintf(w, "! %s: start\n", t.meta.ID)
	if err := <-t.exit; err != nil {
		fmt.Fprintf(w, "! %s: triggered failure\n", t.meta.ID)
		return err
	}
	fmt.Fprintf(w, "! %s: triggered success\n", t.meta.ID)
	return nil
}

// Thunk binds the task to a writer, producing the function shape that
// [executor.New] expects.
func (t *Task) Thunk(w io.Writer) func(context.Context) error {
	return func(ctx context.Context) error {
		return t.Start(ctx, w)
	}
}
