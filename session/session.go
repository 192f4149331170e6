// Package session runs a dev session: it serves the site, builds it once,
// and then rebuilds whatever a file change affects until it is canceled.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/amonks/assetpipe/internal/executor"
	"github.com/amonks/assetpipe/internal/fsutil"
	"github.com/amonks/assetpipe/internal/mutex"
	"github.com/amonks/assetpipe/internal/styles"
	"github.com/amonks/assetpipe/internal/watcher"
	"github.com/amonks/assetpipe/livereload"
	"github.com/amonks/assetpipe/runner"
	"github.com/charmbracelet/lipgloss"
)

const (
	InternalTaskWatch  = "@watch"
	InternalTaskServer = "@server"
)

// ShutdownTimeout bounds how long the server has to finish its requests
// when the session ends.
var ShutdownTimeout = 5 * time.Second

// A Binding says what to do when files change. A change to a file matching
// any of Patterns runs Node, if there is one, and then, if Reload is set and
// Node succeeded, reloads every page. Patterns prefixed with "!" exclude
// files which the other patterns would match.
type Binding struct {
	Patterns []string
	Node     runner.Node
	Reload   bool
}

func (b Binding) String() string {
	switch {
	case b.Node == nil:
		return "reload"
	case b.Reload:
		return runner.Describe(b.Node) + " and reload"
	}
	return runner.Describe(b.Node)
}

// includes returns the patterns which need a watch.
func (b Binding) includes() []string {
	var out []string
	for _, p := range b.Patterns {
		if !strings.HasPrefix(p, "!") {
			out = append(out, p)
		}
	}
	return out
}

func (b Binding) excludes(path string) bool {
	for _, p := range b.Patterns {
		if strings.HasPrefix(p, "!") && fsutil.Match(strings.TrimPrefix(p, "!"), path) {
			return true
		}
	}
	return false
}

// Server is the http server a session owns. [livereload.Server] is one.
type Server interface {
	Listen() error
	Serve() error
	Shutdown(context.Context) error
}

type State int32

const (
	StateIdle State = iota
	StateWatching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	// Dir is the project directory. Patterns are relative to it.
	Dir string

	Output   runner.MultiWriter
	Server   Server
	Notifier livereload.Notifier

	// Initial runs once, before watching begins.
	Initial  runner.Node
	Bindings []Binding
}

type Session struct {
	opts  Options
	state atomic.Int32
	input chan any

	// done is closed when the event loop stops reading input.
	done chan struct{}

	// Take mu to touch executors or watchers.
	mu        *mutex.Mutex
	executors map[int]*executor.Executor
	watchers  map[string]func()
}

func New(opts Options) *Session {
	if opts.Notifier == nil {
		opts.Notifier = livereload.Nop
	}
	return &Session{
		opts:      opts,
		input:     make(chan any),
		mu:        mutex.New("session"),
		executors: map[int]*executor.Executor{},
		watchers:  map[string]func(){},
	}
}

// State returns whether the session is running.
func (s *Session) State() State { return State(s.state.Load()) }

// Run starts the server, runs the initial build, and then watches until ctx
// is canceled. It returns an error only if the server can't start or stops
// unexpectedly. A failing build is reported and the session keeps watching,
// so that saving a fix rebuilds.
func (s *Session) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateWatching)) {
		return errors.New("session is already running")
	}
	defer s.state.Store(int32(StateIdle))

	if err := s.opts.Server.Listen(); err != nil {
		s.printf(InternalTaskServer, styles.Error, "could not start: %s", err)
		return fmt.Errorf("starting server: %w", err)
	}
	served := make(chan error, 1)
	go func() { served <- s.opts.Server.Serve() }()

	if s.opts.Initial != nil {
		if err := runner.New(s.opts.Output).Execute(ctx, s.opts.Initial); err != nil && ctx.Err() == nil {
			s.printf(InternalTaskWatch, styles.Error, "initial build failed; watching for a fix")
		}
	}

	s.done = make(chan struct{})
	s.watch()

	err := func() error {
		for {
			select {
			case <-ctx.Done():
				s.printf(InternalTaskWatch, styles.Log, "stopping")
				return nil

			case err := <-served:
				if err == nil {
					err = errors.New("server stopped")
				}
				return err

			case msg := <-s.input:
				s.mu.Printf("msg turn: %T", msg)

				switch msg := msg.(type) {
				case msgFSEvent:
					s.handleFSEvent(ctx, msg)

				case msgRunBinding:
					s.runBinding(ctx, int(msg))

				case msgBindingExit:
					s.handleBindingExit(msg)
				}
			}
		}
	}()

	// Clean up.
	close(s.done)

	s.mu.Lock("stop watchers")
	for p, stop := range s.watchers {
		s.mu.Printf("stopping watcher on '%s'", p)
		stop()
	}
	s.watchers = map[string]func(){}
	executors := s.executors
	s.executors = map[int]*executor.Executor{}
	s.mu.Unlock()

	for _, x := range executors {
		x.Cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if serr := s.opts.Server.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	s.printf(InternalTaskServer, styles.Log, "stopped")

	return err
}

// watch starts one watch per distinct pattern. A pattern which can't be
// watched is reported and skipped.
func (s *Session) watch() {
	defer s.mu.Lock("watch").Unlock()

	for _, b := range s.opts.Bindings {
		for _, pattern := range b.includes() {
			if _, ok := s.watchers[pattern]; ok {
				continue
			}
			evs, stop, err := watcher.Watch(s.opts.Dir, pattern)
			if err != nil {
				s.printf(InternalTaskWatch, styles.Error, "%s", err)
				continue
			}
			s.watchers[pattern] = stop
			s.printf(InternalTaskWatch, styles.Log, "watching %s", pattern)

			go func(pattern string) {
				// Keep draining after the loop stops, until the
				// watch is stopped and closes the channel.
				for evs := range evs {
					s.send(msgFSEvent{pattern, evs})
				}
			}(pattern)
		}
	}
}

func (s *Session) handleFSEvent(ctx context.Context, msg msgFSEvent) {
	for i, b := range s.opts.Bindings {
		if !b.watches(msg.pattern) {
			continue
		}
		var changed []string
		for _, ev := range msg.evs {
			if !b.excludes(ev.Path) {
				changed = append(changed, ev.Path)
			}
		}
		if len(changed) == 0 {
			continue
		}
		s.printf(InternalTaskWatch, styles.Log, "%s changed; %s", strings.Join(dedupe(changed), ", "), b)
		s.runBinding(ctx, i)
	}
}

func (b Binding) watches(pattern string) bool {
	for _, p := range b.Patterns {
		if p == pattern {
			return true
		}
	}
	return false
}

// runBinding runs a binding's node. If the binding's previous run is still
// going, it is canceled first.
func (s *Session) runBinding(ctx context.Context, i int) {
	b := s.opts.Bindings[i]
	if b.Node == nil {
		if b.Reload {
			s.opts.Notifier.Reload()
		}
		return
	}

	s.mu.Lock("runBinding")
	defer s.mu.Unlock()

	if x, ok := s.executors[i]; ok && !x.IsDone() {
		s.mu.Printf("canceling binding %d before rerunning it", i)
		s.printf(InternalTaskWatch, styles.Log, "canceling %s", b)
		go func() {
			x.Cancel()
			s.send(msgRunBinding(i))
		}()
		return
	}

	x := executor.New(ctx, func(ctx context.Context) error {
		return runner.New(s.opts.Output).Execute(ctx, b.Node)
	})
	s.executors[i] = x

	go func() {
		x.Execute()
		err, notCanceled := <-x.Wait()
		if notCanceled {
			s.send(msgBindingExit{i, x, err})
		}
	}()
}

func (s *Session) handleBindingExit(msg msgBindingExit) {
	s.mu.Lock("handleBindingExit")
	if !msg.executor.Is(s.executors[msg.binding]) {
		s.mu.Unlock()
		return
	}
	delete(s.executors, msg.binding)
	s.mu.Unlock()

	if msg.err == nil && s.opts.Bindings[msg.binding].Reload {
		s.opts.Notifier.Reload()
	}
}

// send delivers a message to the event loop, or drops it if the loop has
// stopped.
func (s *Session) send(msg any) {
	select {
	case s.input <- msg:
	case <-s.done:
	}
}

func (s *Session) printf(id string, style lipgloss.Style, f string, args ...any) {
	if s.opts.Output == nil {
		return
	}
	styles.Fprintf(s.opts.Output.Writer(id), style, f, args...)
}

func dedupe(ss []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range ss {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

type (
	msgRunBinding int
	msgFSEvent    struct {
		pattern string
		evs     []watcher.EventInfo
	}
	msgBindingExit struct {
		binding  int
		executor *executor.Executor
		err      error
	}
)
