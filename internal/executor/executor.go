// Executor takes the execution of a cancelable function and wraps it into an
// object that can be passed around, canceled, and waited for. The runner
// wraps every task invocation in one, and the dev session keeps one per watch
// binding so that a new file event can cancel a run that is still going.
package executor

import (
	"context"
	"sync"

	"github.com/amonks/assetpipe/internal/mutex"
)

type Executor struct {
	fn func(context.Context) error

	ctx    context.Context
	cancel func()
	token  int

	mu       *mutex.Mutex
	started  bool
	done     bool
	canceled bool
	err      error
	exited   chan struct{}
}

var tokenIncr = &incr{}

// New creates an Executor. The function does not run until Execute is called.
// ctx is the parent of the context that fn receives.
func New(ctx context.Context, fn func(ctx context.Context) error) *Executor {
	ctx, cancel := context.WithCancel(ctx)
	return &Executor{
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		token:  tokenIncr.Incr(),
		mu:     mutex.New("executor"),
		exited: make(chan struct{}),
	}
}

// Is reports whether two pointers refer to the same execution.
func (x *Executor) Is(other *Executor) bool {
	return other != nil && x.token == other.token
}

// Execute starts the function in a new goroutine. Calling it again is a no-op.
func (x *Executor) Execute() {
	defer x.mu.Lock("Execute").Unlock()

	if x.started {
		return
	}
	x.started = true

	go func() {
		err := x.fn(x.ctx)

		x.mu.Lock("exit")
		x.err = err
		x.done = true
		x.mu.Unlock()

		x.cancel()
		close(x.exited)
	}()
}

// Wait returns a channel which receives the function's error once it
// returns. If the execution was canceled, the channel is closed instead, so
// that waiters can tell a cancellation from an exit. Wait can be called any
// number of times.
func (x *Executor) Wait() <-chan error {
	c := make(chan error, 1)
	go func() {
		<-x.exited

		x.mu.Lock("Wait")
		canceled, err := x.canceled, x.err
		x.mu.Unlock()

		if canceled {
			close(c)
			return
		}
		c <- err
	}()
	return c
}

// Cancel cancels the function's context, waits for it to return, and returns
// its error.
func (x *Executor) Cancel() error {
	x.mu.Lock("Cancel")
	x.canceled = true
	if !x.started {
		x.started, x.done = true, true
		x.err = context.Canceled
		close(x.exited)
	}
	x.mu.Unlock()

	x.cancel()
	<-x.exited

	defer x.mu.Lock("Cancel 2").Unlock()
	return x.err
}

// IsDone reports whether the function has returned or been canceled.
func (x *Executor) IsDone() bool {
	defer x.mu.Lock("IsDone").Unlock()
	return x.done || x.canceled
}

type incr struct {
	n  int
	mu sync.Mutex
}

func (i *incr) Incr() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.n += 1
	return i.n
}
