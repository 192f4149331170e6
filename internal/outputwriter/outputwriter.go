// Package outputwriter holds back partial lines written by tasks, so that
// interleaved output from concurrently running tasks never splits a line.
package outputwriter

import (
	"bufio"
	"io"

	"github.com/amonks/assetpipe/internal/mutex"
)

// Writer is an io.Writer which forwards complete lines to its destination.
type Writer struct {
	buf *bufio.Writer
	mu  *mutex.Mutex
}

func New(dest io.Writer) *Writer {
	return &Writer{
		buf: bufio.NewWriter(dest),
		mu:  mutex.New("linebuffered"),
	}
}

func (w *Writer) Write(bs []byte) (n int, err error) {
	defer w.mu.Lock("Write").Unlock()

	for _, b := range bs {
		if err = w.buf.WriteByte(b); err != nil {
			return n, err
		}

		n++
		if b == '\n' {
			if err = w.buf.Flush(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Flush forwards any trailing partial line, terminating it with a newline.
func (w *Writer) Flush() error {
	defer w.mu.Lock("Flush").Unlock()

	if w.buf.Buffered() == 0 {
		return nil
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	return w.buf.Flush()
}
