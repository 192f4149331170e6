package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/amonks/assetpipe/config"
	"github.com/amonks/assetpipe/pipeline"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorProfile(t *testing.T) {
	for mode, want := range map[string]termenv.Profile{
		"never":  termenv.Ascii,
		"always": termenv.TrueColor,
		"auto":   termenv.Ascii,
	} {
		got, err := colorProfile(mode, &bytes.Buffer{})
		require.NoError(t, err, mode)
		assert.Equal(t, want, got, mode)
	}

	_, err := colorProfile("sometimes", &bytes.Buffer{})
	assert.EqualError(t, err, "invalid value 'sometimes' for --color; legal values are auto, always and never")
}

func TestListText(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	cfg, err := config.Parse(`
[server]
reload = ["app/*.html", "app/scss/**/*.scss"]
`)
	require.NoError(t, err)
	cfg.Dir = t.TempDir()

	text := listText(pipeline.New(cfg, nil))

	for _, want := range []string{
		"TASKS",
		"  styles\n    Compile app/scss/style.scss into app/css/style.min.css.\n",
		"    Inputs:\n      - app/js/**/*.js\n      - !app/js/main.min.js\n    Output: app/js\n",
		"  build: series(clean, parallel(styles, scripts), collect)\n",
		"  dev:   series(parallel(styles, scripts))\n",
		"  app/scss/**/*.scss\n    - styles\n    - reload\n",
		"  app/*.html\n    - reload\n",
	} {
		assert.Contains(t, text, want)
	}
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"assets.toml":         "[styles]\ncompiler = \"cat\"\n",
		"app/scss/style.scss": "a { color: blue }\n",
		"app/js/main.js":      "console.log('hi')\n",
	} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	t.Run("task runs only what it is given", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--dir", dir, "--color", "never", "task", "scripts"})
		require.NoError(t, cmd.Execute())
		assert.FileExists(t, filepath.Join(dir, "app/js/main.min.js"))
		assert.NoFileExists(t, filepath.Join(dir, "app/css/style.min.css"))
	})

	t.Run("task rejects unknown ids", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--dir", dir, "task", "nope"})
		assert.ErrorContains(t, cmd.Execute(), "Task nope not found")
	})

	t.Run("build", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--dir", dir, "--color", "never", "build"})
		require.NoError(t, cmd.Execute())
		assert.FileExists(t, filepath.Join(dir, "dist/css/style.min.css"))
		assert.FileExists(t, filepath.Join(dir, "dist/js/main.min.js"))
	})

	t.Run("bad config", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--dir", dir, "--config", "missing.toml", "build"})
		assert.Error(t, cmd.Execute())
	})

	t.Run("list", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--dir", dir, "--color", "never", "list"})
		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "collect")
	})
}
