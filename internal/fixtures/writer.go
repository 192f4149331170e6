package fixtures

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/amonks/assetpipe/internal/mutex"
)

// MultiWriter records everything written to each of its writers, and also
// keeps a combined transcript in which every line is prefixed with the ID of
// the writer it came from, as in "[styles] starting".
type MultiWriter struct {
	combined *bytes.Buffer
	bufs     map[string]*writer
	mu       *mutex.Mutex
}

func NewWriter() *MultiWriter {
	var buf bytes.Buffer
	return &MultiWriter{
		combined: &buf,
		bufs:     map[string]*writer{},
		mu:       mutex.New("testwriter"),
	}
}

func (w *MultiWriter) String(id string) string {
	defer w.mu.Lock("String").Unlock()

	writer, hasWriter := w.bufs[id]
	if !hasWriter {
		return ""
	}
	defer writer.bufMu.Lock("String-2").Unlock()
	return writer.buf.String()
}

func (w *MultiWriter) CombinedString() string {
	defer w.mu.Lock("CombinedString").Unlock()
	return w.combined.String()
}

// CombinedLines returns the combined transcript split into lines, without
// the trailing empty line.
func (w *MultiWriter) CombinedLines() []string {
	return strings.Split(strings.TrimSuffix(w.CombinedString(), "\n"), "\n")
}

func (w *MultiWriter) Writer(id string) io.Writer {
	defer w.mu.Lock("Writer:" + id).Unlock()

	if w, exists := w.bufs[id]; exists {
		return w
	}
	w.bufs[id] = newWriter(id, w.combined, w.mu)
	return w.bufs[id]
}

type writer struct {
	tee   io.Writer
	teeMu *mutex.Mutex

	id    string
	buf   *bytes.Buffer
	bufMu *mutex.Mutex
}

func newWriter(id string, tee io.Writer, teeMu *mutex.Mutex) *writer {
	var buf bytes.Buffer
	return &writer{
		tee:   tee,
		teeMu: teeMu,
		id:    id,
		buf:   &buf,
		bufMu: mutex.New("mwwriter"),
	}
}

func (w *writer) Write(bs []byte) (int, error) {
	w.teeMu.Lock("Write")
	for _, line := range strings.SplitAfter(string(bs), "\n") {
		if line == "" {
			continue
		}
		fmt.Fprintf(w.tee, "[%s] %s", w.id, line)
	}
	w.teeMu.Unlock()

	defer w.bufMu.Lock("Write").Unlock()
	return w.buf.Write(bs)
}
