package pathglob_test

import (
	"testing"

	"github.com/amonks/assetpipe/internal/pathglob"
	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	for _, tc := range []struct {
		pattern       string
		match, reject []string
	}{
		{
			pattern: "app/scss/**/*.scss",
			match:   []string{"app/scss/style.scss", "app/scss/a/b/c.scss"},
			reject:  []string{"app/style.scss", "app/scss/style.css"},
		},
		{
			pattern: "**/*.svg",
			match:   []string{"logo.svg", "icons/logo.svg"},
			reject:  []string{"logo.png"},
		},
		{
			pattern: "*.html",
			match:   []string{"index.html", "./about.html"},
			reject:  []string{"pages/index.html"},
		},
		{
			pattern: "images/*.{avif,webp}",
			match:   []string{"images/a.avif", "images/a.webp"},
			reject:  []string{"images/a.jpg", "images/src/a.webp"},
		},
	} {
		t.Run(tc.pattern, func(t *testing.T) {
			g := pathglob.MustCompile(tc.pattern)
			for _, p := range tc.match {
				assert.True(t, g.Match(p), p)
			}
			for _, p := range tc.reject {
				assert.False(t, g.Match(p), p)
			}
		})
	}
}

func TestBase(t *testing.T) {
	for _, tc := range []struct {
		pattern string
		base    string
		literal bool
	}{
		{"app/scss/**/*.scss", "app/scss", false},
		{"*.html", ".", false},
		{"./app/js/main.js", "app/js", true},
		{"app/images/src/**", "app/images/src", false},
	} {
		base, literal := pathglob.MustCompile(tc.pattern).Base()
		assert.Equal(t, tc.base, base, tc.pattern)
		assert.Equal(t, tc.literal, literal, tc.pattern)
	}
}
