package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amonks/assetpipe/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	c, err := config.Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, dir, c.Dir)
	assert.Equal(t, "app", c.Base)
	assert.Equal(t, "dist", c.Dist)
	assert.Equal(t, "app/scss/style.scss", c.Styles.Entry)
	assert.Equal(t, "app/css", c.Styles.Dest)
	assert.Equal(t, "style.min.css", c.Styles.Name)
	assert.Equal(t, "app/js/main.js", c.Scripts.Entry)
	assert.Equal(t, "main.min.js", c.Scripts.Name)
	assert.Equal(t, []string{"css/style.min.css", "js/main.min.js", "**/*.html"}, c.Collect.Include)
	assert.Nil(t, c.Images)
	assert.Nil(t, c.Fonts)
	assert.Nil(t, c.Sprite)
	assert.Nil(t, c.Templates)
	assert.Equal(t, filepath.Join(dir, "app", "css"), c.Path(c.Styles.Dest))
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := config.Load(t.TempDir(), "site.toml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFile), []byte(`
dist = "public"

[styles]
entry = "app/css/site.css"

[images]
formats = ["webp"]

[sprite]

[[task]]
id = "sitemap"
cmd = "echo sitemap"
watch = ["app/pages/*.html"]
`), 0644))

	c, err := config.Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "public", c.Dist)
	assert.Equal(t, "app/css/site.css", c.Styles.Entry)
	assert.Equal(t, "app/css", c.Styles.Dest, "unset fields keep their defaults")

	require.NotNil(t, c.Images)
	assert.Equal(t, []string{"webp"}, c.Images.Formats)
	assert.Equal(t, "app/images/src", c.Images.Src)
	assert.Equal(t, 75, c.Images.WebPQuality)
	assert.Equal(t, []string{"**/*.svg"}, c.Images.SkipModern)

	require.NotNil(t, c.Sprite)
	assert.Equal(t, "app/images", c.Sprite.Dir)
	assert.Equal(t, "sprite.svg", c.Sprite.Name)

	assert.Nil(t, c.Fonts)

	require.Len(t, c.Tasks, 1)
	assert.Equal(t, "sitemap", c.Tasks[0].ID)
	assert.Equal(t, []string{"app/pages/*.html"}, c.Tasks[0].Watch)
}

func TestParse(t *testing.T) {
	t.Run("sprite follows images.dest", func(t *testing.T) {
		c, err := config.Parse("[images]\ndest = \"app/img\"\n[sprite]\n")
		require.NoError(t, err)
		assert.Equal(t, "app/img", c.Sprite.Dir)
	})

	t.Run("template data", func(t *testing.T) {
		c, err := config.Parse("[templates]\n[templates.data]\ntitle = \"Home\"\n")
		require.NoError(t, err)
		assert.Equal(t, "Home", c.Templates.Data["title"])
		assert.Equal(t, "app/components", c.Templates.Partials)
	})

	t.Run("unknown keys", func(t *testing.T) {
		_, err := config.Parse("[styles]\nentri = \"x.scss\"\n")
		assert.EqualError(t, err, "unknown keys 'styles.entri'")
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := config.Parse("[styles\n")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, config.Defaults().Validate())
	})

	t.Run("every problem is listed", func(t *testing.T) {
		c, err := config.Parse(`
dist = "app"

[styles]
entry = "app/style.less"

[images]
formats = ["gif"]
avif_quality = 101

[[task]]
id = "styles"
cmd = "true"

[[task]]
id = "copy files"
`)
		require.NoError(t, err)
		assert.EqualError(t, c.Validate(), `invalid config
- dist 'app' would remove the project's sources when cleaned
- styles.entry 'app/style.less' must be a .scss, .sass or .css file
- images.formats has 'gif', must be 'avif', 'webp' or 'original'
- images.avif_quality 101 is out of range 1-100
- 'styles' is reserved and cannot be used as a task ID
- task IDs cannot contain whitespace characters
- task copy files has no cmd`)
	})

	t.Run("paths must stay inside the project", func(t *testing.T) {
		c := config.Defaults()
		c.Dist = "../dist"
		assert.EqualError(t, c.Validate(), `invalid config
- dist '../dist' must be a relative path inside the project`)
	})

	t.Run("sources and outputs need their own directories", func(t *testing.T) {
		c, err := config.Parse(`
[images]
src = "app/images"
[fonts]
src = "app/fonts"
`)
		require.NoError(t, err)
		assert.EqualError(t, c.Validate(), `invalid config
- images.src and images.dest are both 'app/images'
- fonts.src and fonts.dest are both 'app/fonts'`)
	})

	t.Run("duplicate custom tasks", func(t *testing.T) {
		c := config.Defaults()
		c.Tasks = []config.Task{{ID: "a", CMD: "true"}, {ID: "a", CMD: "true"}}
		assert.EqualError(t, c.Validate(), "invalid config\n- task a is defined more than once")
	})
}
