package watcher

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/amonks/assetpipe/internal/pathglob"
	"github.com/rjeczalik/notify"
)

// EventInfo describes a single change. Path is slash-separated and relative to
// the root the watch was created with.
type EventInfo struct {
	Path  string
	Event string
}

// DebounceInterval is how long a watch collects events before delivering
// them as one batch.
var DebounceInterval = 500 * time.Millisecond

// Watch watches for changes to files matching pattern, a glob relative to
// root. Changes are delivered in debounced batches. Call stop to end the
// watch; the channel is closed afterwards.
//
// Watch is a variable so that tests can replace it; see [Mock].
var Watch = func(root, pattern string) (<-chan []EventInfo, func(), error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}

	watchPath, matcher, err := split(pattern)
	if err != nil {
		return nil, nil, err
	}

	c := make(chan notify.EventInfo, 16)
	out := make(chan EventInfo)

	go func() {
		defer close(out)
		for ev := range c {
			rel, err := filepath.Rel(root, ev.Path())
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if matcher.Match(rel) {
				out <- EventInfo{
					Path:  rel,
					Event: strings.TrimPrefix(ev.Event().String(), "notify."),
				}
			}
		}
	}()

	var stopped bool
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		notify.Stop(c)
		close(c)
	}

	if err := notify.Watch(filepath.Join(root, filepath.FromSlash(watchPath)), c, notify.All); err != nil {
		stop()
		return nil, nil, fmt.Errorf("watch '%s': %w", pattern, err)
	}

	return debounce(DebounceInterval, out), stop, nil
}

func debounce(dur time.Duration, in <-chan EventInfo) <-chan []EventInfo {
	out := make(chan []EventInfo)

	go func() {
		defer close(out)

		var (
			pending []EventInfo
			timer   <-chan time.Time
		)
		for {
			select {
			case ev, ok := <-in:
				if !ok {
					return
				}
				pending = append(pending, ev)
				if timer == nil {
					timer = time.After(dur)
				}
			case <-timer:
				out <- pending
				pending, timer = nil, nil
			}
		}
	}()

	return out
}

// split breaks a given pattern (which may contain a glob) into two parts: a
// watcher part and a matcher part.
//
// For example, given the input "app/scss/**/*.scss",
//   - we will set up a recursive watch at app/scss
//   - we will match events from that watch against the glob "app/scss/**/*.scss"
//
// so the values returned from split will be ("app/scss/...", Glob["app/scss/**/*.scss"]).
//
// A pattern without a glob names a single file. We watch its directory rather
// than the file itself, so that editors which save by replacing the file
// don't end the watch.
func split(input string) (string, *pathglob.Glob, error) {
	if strings.HasPrefix(input, "/") {
		return "", nil, fmt.Errorf("watch '%s' is invalid because it is not a relative path", input)
	}
	if c := pathglob.Clean(input); c == ".." || strings.HasPrefix(c, "../") {
		return "", nil, fmt.Errorf("watch '%s' is invalid because it is outside of the project", input)
	}

	matcher, err := pathglob.Compile(input)
	if err != nil {
		return "", nil, fmt.Errorf("watch: %w", err)
	}

	base, literal := matcher.Base()
	if literal {
		return base, matcher, nil
	}
	return path.Join(base, "..."), matcher, nil
}
