package tasks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// A Library is an opaque data structure representing an immutable, ordered
// collection of [Task]s.
type Library struct {
	ids   []string
	tasks map[string]Task

	watchset map[string]struct{}
}

// NewLibrary creates a Library with the given tasks in it. If two tasks share
// an ID, the first one wins.
func NewLibrary(tasks ...Task) Library {
	lib := Library{tasks: map[string]Task{}}
	for _, t := range tasks {
		id := t.Metadata().ID
		if _, isDuplicate := lib.tasks[id]; isDuplicate {
			continue
		}
		lib.ids = append(lib.ids, id)
		lib.tasks[id] = t
	}
	lib.materializeWatchset()
	return lib
}

// IDs returns, in order, the task IDs present in the Library.
func (lib Library) IDs() []string { return lib.ids }

// LongestID returns the width of the longest task ID in the library, or of
// the longest of the given extra IDs (such as the internal streams used for
// messages about the run itself), whichever is longer.
func (lib Library) LongestID(extra ...string) int {
	longest := 0
	for _, id := range append(extra, lib.ids...) {
		if l := len(id); l > longest {
			longest = l
		}
	}
	return longest
}

// Task returns the task with the given ID, or nil if there is no such task.
func (lib Library) Task(id string) Task { return lib.tasks[id] }

// Size returns the number of unique tasks in the library.
func (lib Library) Size() int {
	return len(lib.ids)
}

// Has returns true if the library contains a task with the given ID.
func (lib Library) Has(id string) bool {
	_, has := lib.tasks[id]
	return has
}

// Lookup returns the tasks with the given IDs, in the order given. If any ID
// is not in the library, the error lists the IDs that are.
func (lib Library) Lookup(ids ...string) ([]Task, error) {
	var found []Task
	for _, id := range ids {
		if !lib.Has(id) {
			lines := []string{fmt.Sprintf("Task %s not found. Tasks are,", id)}
			for _, id := range lib.IDs() {
				lines = append(lines, " - "+id)
			}
			lines = append(lines, "Run `assetpipe list` for more information about the available tasks.")
			return nil, errors.New(strings.Join(lines, "\n"))
		}
		found = append(found, lib.Task(id))
	}
	return found, nil
}

// Watches returns, in alphabetical order, the complete set of file watches
// present among the Tasks.
func (lib Library) Watches() []string {
	var watches []string
	for w := range lib.watchset {
		watches = append(watches, w)
	}
	sort.Strings(watches)
	return watches
}

// HasWatch returns true if the library contains a watcher on the given path.
func (lib Library) HasWatch(path string) bool {
	_, has := lib.watchset[path]
	return has
}

// WithWatch returns, in canonical order, the list of task IDs that watch the
// given pattern.
func (lib Library) WithWatch(watch string) []string {
	return lib.matches(func(t Task) bool {
		for _, w := range t.Metadata().Watch {
			if w == watch {
				return true
			}
		}
		return false
	})
}

func (lib Library) matches(pred func(Task) bool) []string {
	var ids []string
	for _, id := range lib.ids {
		if pred(lib.tasks[id]) {
			ids = append(ids, id)
		}
	}
	return ids
}

// materializeWatchset computes and stores lib.watchset. It is not threadsafe,
// so it must be called before handing a Library to the user.
func (lib *Library) materializeWatchset() {
	if lib.watchset != nil {
		return
	}
	watchset := map[string]struct{}{}
	for _, t := range lib.tasks {
		for _, w := range t.Metadata().Watch {
			watchset[w] = struct{}{}
		}
	}
	lib.watchset = watchset
}
