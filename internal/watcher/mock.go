package watcher

import (
	"fmt"
	"sync"
)

var OriginalWatch = Watch

var (
	mocks   map[string]chan []EventInfo
	mocksmu sync.Mutex
)

// Mock replaces Watch with an implementation that never touches the file
// system. Events are delivered with [Dispatch].
func Mock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	mocks = map[string]chan []EventInfo{}
	Watch = func(root, pattern string) (<-chan []EventInfo, func(), error) {
		mocksmu.Lock()
		defer mocksmu.Unlock()

		mock, hasMock := mocks[pattern]
		if !hasMock {
			mock = make(chan []EventInfo)
			mocks[pattern] = mock
		}
		var once sync.Once
		stop := func() {
			once.Do(func() {
				mocksmu.Lock()
				defer mocksmu.Unlock()
				delete(mocks, pattern)
				close(mock)
			})
		}
		return mock, stop, nil
	}
}

// Watching reports whether a mocked watch on pattern is active.
func Watching(pattern string) bool {
	mocksmu.Lock()
	defer mocksmu.Unlock()
	_, ok := mocks[pattern]
	return ok
}

// Dispatch delivers a change to path on the mocked watch for pattern.
func Dispatch(pattern, path string) {
	mocksmu.Lock()
	mock, hasMock := mocks[pattern]
	mocksmu.Unlock()

	if !hasMock {
		panic(fmt.Errorf("can't dispatch on unwatched pattern '%s'", pattern))
	}
	mock <- []EventInfo{{Path: path, Event: "Write"}}
}

func Unmock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()
	mocks = nil
	Watch = OriginalWatch
}
