// Package safebuffer provides a bytes.Buffer that can be written from one
// goroutine while another reads it, which is what tests need when they
// capture the output of a running task.
package safebuffer

import (
	"bytes"
	"sync"
)

func New() *Buffer {
	return &Buffer{}
}

type Buffer struct {
	mu  sync.RWMutex
	buf bytes.Buffer
}

func (sb *Buffer) Write(bs []byte) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.Write(bs)
}

func (sb *Buffer) String() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.buf.String()
}

// Lines returns the non-empty lines written so far.
func (sb *Buffer) Lines() []string {
	var out []string
	for _, l := range bytes.Split([]byte(sb.String()), []byte("\n")) {
		if len(l) > 0 {
			out = append(out, string(l))
		}
	}
	return out
}
