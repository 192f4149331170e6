package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	for _, tc := range []struct {
		in, watch     string
		match, reject []string
	}{
		{
			in:     "app/scss/**/*.scss",
			watch:  "app/scss/...",
			match:  []string{"app/scss/style.scss", "app/scss/blocks/header.scss"},
			reject: []string{"app/css/style.min.css", "app/scss/notes.md"},
		},
		{
			in:     "app/*.html",
			watch:  "app/...",
			match:  []string{"app/index.html"},
			reject: []string{"app/pages/index.html"},
		},
		{
			in:     "app/images/src/**/*.{jpg,png}",
			watch:  "app/images/src/...",
			match:  []string{"app/images/src/a.jpg", "app/images/src/x/b.png"},
			reject: []string{"app/images/src/c.gif"},
		},
		{
			in:     "./app/js/main.js",
			watch:  "app/js",
			match:  []string{"app/js/main.js"},
			reject: []string{"app/js/main.min.js"},
		},
	} {
		t.Run(tc.in, func(t *testing.T) {
			watch, matcher, err := split(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.watch, watch)
			for _, p := range tc.match {
				assert.True(t, matcher.Match(p), p)
			}
			for _, p := range tc.reject {
				assert.False(t, matcher.Match(p), p)
			}
		})
	}
}

func TestSplitRejectsPathsOutsideProject(t *testing.T) {
	_, _, err := split("/etc/*.conf")
	assert.Error(t, err)
	_, _, err = split("../other/*.scss")
	assert.Error(t, err)
}

func TestDebounce(t *testing.T) {
	in := make(chan EventInfo)
	out := debounce(20*time.Millisecond, in)

	in <- EventInfo{Path: "a"}
	in <- EventInfo{Path: "b"}
	assert.Equal(t, []EventInfo{{Path: "a"}, {Path: "b"}}, <-out)

	in <- EventInfo{Path: "c"}
	assert.Equal(t, []EventInfo{{Path: "c"}}, <-out)

	close(in)
	_, ok := <-out
	assert.False(t, ok)
}

func TestMock(t *testing.T) {
	Mock()
	defer Unmock()

	c, stop, err := Watch(".", "app/*.html")
	require.NoError(t, err)
	assert.True(t, Watching("app/*.html"))

	go Dispatch("app/*.html", "app/index.html")
	assert.Equal(t, []EventInfo{{Path: "app/index.html", Event: "Write"}}, <-c)

	stop()
	assert.False(t, Watching("app/*.html"))
	_, ok := <-c
	assert.False(t, ok)
}
