package runner

import (
	"io"

	"github.com/amonks/assetpipe/internal/mutex"
	"github.com/amonks/assetpipe/internal/outputwriter"
)

// MultiWriter is the interface the Runner uses to display output. Each task
// writes to its own Writer, named by the task's ID.
//
// The printer package provides a MultiWriter which interleaves every writer
// onto stdout.
type MultiWriter interface {
	Writer(id string) io.Writer
}

func wrapMultiWriter(mw MultiWriter) *lineBufferedMultiWriter {
	return &lineBufferedMultiWriter{
		mu:      mutex.New("wrappedmultiwriter"),
		base:    mw,
		writers: map[string]*outputwriter.Writer{},
	}
}

// lineBufferedMultiWriter hands out one line-buffered writer per ID, so that
// concurrently running tasks never interleave partial lines.
type lineBufferedMultiWriter struct {
	base    MultiWriter
	writers map[string]*outputwriter.Writer
	mu      *mutex.Mutex
}

var _ MultiWriter = &lineBufferedMultiWriter{}

func (mw *lineBufferedMultiWriter) Writer(id string) io.Writer {
	return mw.writer(id)
}

func (mw *lineBufferedMultiWriter) writer(id string) *outputwriter.Writer {
	defer mw.mu.Lock("Writer").Unlock()

	if w, has := mw.writers[id]; has {
		return w
	}
	mw.writers[id] = outputwriter.New(mw.base.Writer(id))
	return mw.writers[id]
}

// flush forwards the trailing partial line of the given writer, if any.
func (mw *lineBufferedMultiWriter) flush(id string) {
	mw.writer(id).Flush()
}
