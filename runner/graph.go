package runner

import (
	"fmt"

	"github.com/amonks/assetpipe/tasks"
)

// A Node is one of the three shapes a task graph is built from: [Step],
// [Series], or [Parallel]. The set is closed; the runner handles each
// variant explicitly.
type Node interface {
	isNode()
}

// Step runs a single task.
type Step struct {
	Task tasks.Task
}

// Series runs its children strictly in order. If a child fails, the
// remaining children are skipped and the child's error is returned as is.
type Series []Node

// Parallel starts all of its children at once and waits for every one of
// them. A failing child does not cancel its siblings; the returned error
// joins every child's failure.
type Parallel []Node

func (Step) isNode()     {}
func (Series) isNode()   {}
func (Parallel) isNode() {}

// Run wraps tasks as Steps. It is a convenience for building graphs:
//
//	runner.Series{runner.Run(clean), runner.Parallel(runner.Tasks(styles, scripts)), runner.Run(collect)}
func Run(t tasks.Task) Step { return Step{Task: t} }

// Tasks wraps each task as a Step.
func Tasks(ts ...tasks.Task) []Node {
	nodes := make([]Node, len(ts))
	for i, t := range ts {
		nodes[i] = Step{Task: t}
	}
	return nodes
}

// IDs returns the IDs of every task in the graph, in depth-first order,
// without duplicates.
func IDs(n Node) []string {
	seen := map[string]struct{}{}
	var ids []string
	walk(n, func(t tasks.Task) {
		id := t.Metadata().ID
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	})
	return ids
}

// Describe renders a graph on one line, as in
// "series(clean, parallel(styles, scripts), collect)".
func Describe(n Node) string {
	switch n := n.(type) {
	case Step:
		return n.Task.Metadata().ID
	case Series:
		return "series(" + describeAll(n) + ")"
	case Parallel:
		return "parallel(" + describeAll(n) + ")"
	case nil:
		return "<nil>"
	}
	panic(fmt.Errorf("unknown node type %T", n))
}

func describeAll(ns []Node) string {
	s := ""
	for i, n := range ns {
		if i > 0 {
			s += ", "
		}
		s += Describe(n)
	}
	return s
}

func walk(n Node, fn func(tasks.Task)) {
	switch n := n.(type) {
	case Step:
		fn(n.Task)
	case Series:
		for _, c := range n {
			walk(c, fn)
		}
	case Parallel:
		for _, c := range n {
			walk(c, fn)
		}
	}
}
