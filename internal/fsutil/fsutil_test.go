package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amonks/assetpipe/internal/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestGlob(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"index.html",
		"about.html",
		"pages/index.html",
		"images/src/a.jpg",
		"images/src/icons/b.png",
		"images/src/c.svg",
	} {
		write(t, root, rel, rel)
	}

	t.Run("top level only", func(t *testing.T) {
		got, err := fsutil.Glob(root, "*.html")
		require.NoError(t, err)
		assert.Equal(t, []string{"about.html", "index.html"}, got)
	})

	t.Run("recursive with exclusion", func(t *testing.T) {
		got, err := fsutil.Glob(root, "images/src/**/*.*", "!**/*.svg")
		require.NoError(t, err)
		assert.Equal(t, []string{"images/src/a.jpg", "images/src/icons/b.png"}, got)
	})

	t.Run("deduplicates across patterns", func(t *testing.T) {
		got, err := fsutil.Glob(root, "*.html", "index.html")
		require.NoError(t, err)
		assert.Equal(t, []string{"about.html", "index.html"}, got)
	})

	t.Run("missing directory matches nothing", func(t *testing.T) {
		got, err := fsutil.Glob(root, "fonts/src/*.ttf")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStale(t *testing.T) {
	root := t.TempDir()
	src := write(t, root, "src.png", "src")
	dst := filepath.Join(root, "dst.webp")

	stale, err := fsutil.Stale(src, dst)
	require.NoError(t, err)
	assert.True(t, stale, "missing destination is stale")

	write(t, root, "dst.webp", "dst")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(src, past, past))
	stale, err = fsutil.Stale(src, dst)
	require.NoError(t, err)
	assert.False(t, stale, "newer destination is fresh")

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src, future, future))
	stale, err = fsutil.Stale(src, dst)
	require.NoError(t, err)
	assert.True(t, stale, "older destination is stale")

	_, err = fsutil.Stale(filepath.Join(root, "missing.png"), dst)
	assert.Error(t, err)
}

func TestDest(t *testing.T) {
	assert.Equal(t, filepath.Join("app", "images", "icons", "a.webp"), fsutil.Dest(filepath.Join("app", "images"), "icons/a.png", ".webp"))
	assert.Equal(t, filepath.Join("dist", "css", "style.min.css"), fsutil.Dest("dist", "css/style.min.css", ""))
}

func TestWriteFile(t *testing.T) {
	root := t.TempDir()
	name := filepath.Join(root, "css", "style.min.css")

	require.NoError(t, fsutil.WriteFile(name, []byte("a{}")))
	got, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "a{}", string(got))

	require.NoError(t, fsutil.WriteFile(name, []byte("b{}")))
	got, err = os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "b{}", string(got))

	entries, err := os.ReadDir(filepath.Dir(name))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestCopyFile(t *testing.T) {
	root := t.TempDir()
	src := write(t, root, "app/index.html", "<html></html>")
	dst := filepath.Join(root, "dist", "index.html")

	require.NoError(t, fsutil.CopyFile(src, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(got))
	assert.True(t, fsutil.Exists(dst))
}
