package sprite_test

import (
	"testing"

	"github.com/amonks/assetpipe/internal/sprite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	out, err := sprite.Build([]sprite.Icon{
		{ID: "arrow", Data: []byte(`<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
  <path d="M0 0L10 10"/>
</svg>`)},
		{ID: "close", Data: []byte(`<svg width="16px" height="16px"><g><line x1="0" y1="0" x2="16" y2="16"/></g></svg>`)},
	})
	require.NoError(t, err)

	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" style="display:none">
<symbol id="arrow" viewBox="0 0 24 24"><path d="M0 0L10 10"/></symbol>
<symbol id="close" viewBox="0 0 16 16"><g><line x1="0" y1="0" x2="16" y2="16"/></g></symbol>
</svg>
`, string(out))
}

func TestBuildErrors(t *testing.T) {
	_, err := sprite.Build([]sprite.Icon{{ID: "logo", Data: []byte(`<html></html>`)}})
	assert.EqualError(t, err, "icon 'logo': root element is <html>, not <svg>")

	_, err = sprite.Build([]sprite.Icon{{ID: "empty", Data: []byte(``)}})
	assert.EqualError(t, err, "icon 'empty': no <svg> element")

	_, err = sprite.Build([]sprite.Icon{
		{ID: "a", Data: []byte(`<svg/>`)},
		{ID: "a", Data: []byte(`<svg/>`)},
	})
	assert.EqualError(t, err, "two icons have the id 'a'")
}

func TestSelfClosing(t *testing.T) {
	out, err := sprite.Build([]sprite.Icon{{ID: "blank", Data: []byte(`<svg viewBox="0 0 1 1"/>`)}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<symbol id="blank" viewBox="0 0 1 1"></symbol>`)
}

func TestPage(t *testing.T) {
	out, err := sprite.Page("sprite.svg", []string{"arrow", "close"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<use href="sprite.svg#arrow"></use>`)
	assert.Contains(t, string(out), `<use href="sprite.svg#close"></use>`)
	assert.Contains(t, string(out), `<title>sprite.svg</title>`)
}
