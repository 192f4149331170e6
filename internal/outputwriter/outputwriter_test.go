package outputwriter_test

import (
	"testing"

	"github.com/amonks/assetpipe/internal/outputwriter"
	"github.com/amonks/assetpipe/internal/safebuffer"
	"github.com/stretchr/testify/assert"
)

func TestHoldsPartialLines(t *testing.T) {
	dest := safebuffer.New()
	w := outputwriter.New(dest)

	w.Write([]byte("compiled app/scss"))
	assert.Equal(t, "", dest.String())

	w.Write([]byte("/style.scss\nwrote"))
	assert.Equal(t, "compiled app/scss/style.scss\n", dest.String())

	assert.NoError(t, w.Flush())
	assert.Equal(t, "compiled app/scss/style.scss\nwrote\n", dest.String())
}

func TestFlushWithNothingBuffered(t *testing.T) {
	dest := safebuffer.New()
	w := outputwriter.New(dest)

	w.Write([]byte("line\n"))
	assert.NoError(t, w.Flush())
	assert.Equal(t, "line\n", dest.String())
}
