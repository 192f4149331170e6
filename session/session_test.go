package session_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amonks/assetpipe/internal/fixtures"
	"github.com/amonks/assetpipe/internal/watcher"
	"github.com/amonks/assetpipe/runner"
	"github.com/amonks/assetpipe/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type fakeServer struct {
	listenErr error
	stop      chan struct{}
	shutdown  atomic.Bool
}

func newServer() *fakeServer { return &fakeServer{stop: make(chan struct{})} }

func (f *fakeServer) Listen() error { return f.listenErr }
func (f *fakeServer) Serve() error  { <-f.stop; return nil }
func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdown.Store(true)
	close(f.stop)
	return nil
}

type harness struct {
	t        *testing.T
	session  *session.Session
	server   *fakeServer
	notifier *fixtures.Notifier
	mw       *fixtures.MultiWriter
	cancel   func()
	exit     chan error
}

func start(t *testing.T, initial runner.Node, bindings ...session.Binding) *harness {
	t.Helper()
	watcher.Mock()
	t.Cleanup(watcher.Unmock)

	h := &harness{
		t:        t,
		server:   newServer(),
		notifier: fixtures.NewNotifier(),
		mw:       fixtures.NewWriter(),
		exit:     make(chan error, 1),
	}
	h.session = session.New(session.Options{
		Dir:      ".",
		Output:   h.mw,
		Server:   h.server,
		Notifier: h.notifier,
		Initial:  initial,
		Bindings: bindings,
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.exit <- h.session.Run(ctx) }()

	for _, b := range bindings {
		for _, p := range b.Patterns {
			if p[0] == '!' {
				continue
			}
			require.Eventually(t, func() bool { return watcher.Watching(p) }, waitFor, tick, p)
		}
	}
	return h
}

func (h *harness) stop() {
	h.t.Helper()
	h.cancel()
	select {
	case err := <-h.exit:
		assert.NoError(h.t, err)
	case <-time.After(waitFor):
		h.t.Fatal("session did not stop")
	}
	assert.Equal(h.t, session.StateIdle, h.session.State())
	assert.True(h.t, h.server.shutdown.Load())
}

func TestListenFailure(t *testing.T) {
	watcher.Mock()
	t.Cleanup(watcher.Unmock)

	var (
		initial = fixtures.NewTask("styles")
		server  = newServer()
	)
	server.listenErr = errors.New("address already in use")
	s := session.New(session.Options{
		Dir:     ".",
		Output:  fixtures.NewWriter(),
		Server:  server,
		Initial: runner.Run(initial),
	})

	err := s.Run(context.Background())

	assert.EqualError(t, err, "starting server: address already in use")
	assert.Equal(t, 0, initial.Calls())
	assert.Equal(t, session.StateIdle, s.State())
}

func TestRerunOnChange(t *testing.T) {
	styles := fixtures.NewTask("styles")
	h := start(t, runner.Run(styles), session.Binding{
		Patterns: []string{"app/scss/**/*.scss"},
		Node:     runner.Run(styles),
	})
	assert.Equal(t, session.StateWatching, h.session.State())
	assert.Eventually(t, func() bool { return styles.Calls() == 1 }, waitFor, tick)

	watcher.Dispatch("app/scss/**/*.scss", "app/scss/_vars.scss")
	assert.Eventually(t, func() bool { return styles.Calls() == 2 }, waitFor, tick)

	h.stop()
	assert.False(t, watcher.Watching("app/scss/**/*.scss"))
	assert.Contains(t, h.mw.String(session.InternalTaskWatch), "app/scss/_vars.scss changed; styles")
}

func TestReload(t *testing.T) {
	h := start(t, nil, session.Binding{
		Patterns: []string{"app/*.html"},
		Reload:   true,
	})

	watcher.Dispatch("app/*.html", "app/index.html")
	assert.Eventually(t, func() bool { return len(h.notifier.Events()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{"reload"}, h.notifier.Events())

	h.stop()
}

func TestReloadAfterNode(t *testing.T) {
	var (
		ok   = fixtures.NewTask("templates")
		fail = fixtures.NewTask("broken").WithImmediateFailure()
		h    = start(t, nil,
			session.Binding{Patterns: []string{"app/pages/*.html"}, Node: runner.Run(ok), Reload: true},
			session.Binding{Patterns: []string{"app/broken/*.html"}, Node: runner.Run(fail), Reload: true},
		)
	)

	watcher.Dispatch("app/broken/*.html", "app/broken/a.html")
	assert.Eventually(t, func() bool { return fail.Calls() == 1 }, waitFor, tick)

	watcher.Dispatch("app/pages/*.html", "app/pages/index.html")
	assert.Eventually(t, func() bool { return len(h.notifier.Events()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{"reload"}, h.notifier.Events(), "only the binding that succeeded reloads")

	h.stop()
}

func TestExclusions(t *testing.T) {
	scripts := fixtures.NewTask("scripts")
	h := start(t, nil, session.Binding{
		Patterns: []string{"app/js/**/*.js", "!app/js/main.min.js"},
		Node:     runner.Run(scripts),
	})

	watcher.Dispatch("app/js/**/*.js", "app/js/main.min.js")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, scripts.Calls())

	watcher.Dispatch("app/js/**/*.js", "app/js/main.js")
	assert.Eventually(t, func() bool { return scripts.Calls() == 1 }, waitFor, tick)

	h.stop()
}

func TestCancelAndRerun(t *testing.T) {
	slow := fixtures.NewTask("fonts").WithCancel(context.Canceled)
	h := start(t, nil, session.Binding{
		Patterns: []string{"app/fonts/src/*.ttf"},
		Node:     runner.Run(slow),
	})

	watcher.Dispatch("app/fonts/src/*.ttf", "app/fonts/src/a.ttf")
	assert.Eventually(t, func() bool { return slow.Calls() == 1 }, waitFor, tick)

	watcher.Dispatch("app/fonts/src/*.ttf", "app/fonts/src/b.ttf")
	assert.Eventually(t, func() bool { return slow.Calls() == 2 }, waitFor, tick)
	assert.Contains(t, h.mw.String("fonts"), "! fonts: canceled")

	h.stop()
}

func TestInitialFailureKeepsWatching(t *testing.T) {
	var (
		broken = fixtures.NewTask("styles").WithImmediateFailure()
		h      = start(t, runner.Run(broken), session.Binding{
			Patterns: []string{"app/scss/*.scss"},
			Node:     runner.Run(broken),
		})
	)
	assert.Equal(t, 1, broken.Calls())
	assert.Equal(t, session.StateWatching, h.session.State())

	watcher.Dispatch("app/scss/*.scss", "app/scss/style.scss")
	assert.Eventually(t, func() bool { return broken.Calls() == 2 }, waitFor, tick)

	h.stop()
	assert.Contains(t, h.mw.String(session.InternalTaskWatch), "initial build failed")
}

func TestAlreadyRunning(t *testing.T) {
	h := start(t, nil, session.Binding{Patterns: []string{"app/*.html"}, Reload: true})
	assert.EqualError(t, h.session.Run(context.Background()), "session is already running")
	h.stop()
}

func TestBindingString(t *testing.T) {
	var (
		images = runner.Run(fixtures.NewTask("images"))
		sprite = runner.Run(fixtures.NewTask("sprite"))
	)
	assert.Equal(t, "reload", session.Binding{Reload: true}.String())
	assert.Equal(t, "series(images, sprite)", session.Binding{Node: runner.Series{images, sprite}}.String())
	assert.Equal(t, "images and reload", session.Binding{Node: images, Reload: true}.String())
}
