// Package config loads assets.toml, the project file which says where a
// project's sources live and where their outputs go.
//
// Every section is optional. The styles, scripts, server and collect sections
// always exist and take their defaults from [Defaults]; the images, fonts,
// sprite and templates sections enable their tasks only when present.
//
//	base = "app"
//	dist = "dist"
//
//	[styles]
//	entry = "app/scss/style.scss"
//
//	[images]
//	formats = ["avif", "webp"]
//
//	[[task]]
//	id = "sitemap"
//	cmd = "./bin/sitemap > app/sitemap.xml"
//
// Paths are slash-separated and relative to the project directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the name of the project file looked for in the project
// directory when none is given.
const DefaultFile = "assets.toml"

type Config struct {
	// Dir is the absolute project directory. Every other path is relative
	// to it.
	Dir string `toml:"-"`

	// Base is the directory the dev server serves and the collect task
	// copies from.
	Base string `toml:"base"`

	// Dist is the distribution directory. It is removed before every
	// build.
	Dist string `toml:"dist"`

	Styles    Styles     `toml:"styles"`
	Scripts   Scripts    `toml:"scripts"`
	Images    *Images    `toml:"images"`
	Fonts     *Fonts     `toml:"fonts"`
	Sprite    *Sprite    `toml:"sprite"`
	Templates *Templates `toml:"templates"`
	Server    Server     `toml:"server"`
	Collect   Collect    `toml:"collect"`
	Tasks     []Task     `toml:"task"`
}

type Styles struct {
	Entry string   `toml:"entry"`
	Dest  string   `toml:"dest"`
	Name  string   `toml:"name"`
	Watch []string `toml:"watch"`

	// Targets are the browsers, in esbuild's notation ("chrome100",
	// "safari15"), for which vendor prefixes are added.
	Targets []string `toml:"targets"`

	// Compiler is the command which turns a .scss or .sass entry into CSS
	// on stdout. The entry path is appended as its last argument.
	Compiler string `toml:"compiler"`
}

type Scripts struct {
	Entry  string   `toml:"entry"`
	Dest   string   `toml:"dest"`
	Name   string   `toml:"name"`
	Watch  []string `toml:"watch"`
	Target string   `toml:"target"`
}

type Images struct {
	Src     string   `toml:"src"`
	Dest    string   `toml:"dest"`
	Include []string `toml:"include"`

	// SkipModern lists patterns, relative to Src, of sources which get
	// only the "original" format.
	SkipModern []string `toml:"skip_modern"`

	// Formats is any of "avif", "webp" and "original".
	Formats []string `toml:"formats"`

	AVIFQuality int `toml:"avif_quality"`
	WebPQuality int `toml:"webp_quality"`
	JPEGQuality int `toml:"jpeg_quality"`
}

type Fonts struct {
	Src  string `toml:"src"`
	Dest string `toml:"dest"`
}

type Sprite struct {
	// Dir holds the svgs to combine, and receives the sprite.
	Dir  string `toml:"dir"`
	Name string `toml:"name"`
}

type Templates struct {
	Pages    string         `toml:"pages"`
	Partials string         `toml:"partials"`
	Dest     string         `toml:"dest"`
	Data     map[string]any `toml:"data"`
}

type Server struct {
	Addr string `toml:"addr"`

	// Reload lists patterns whose changes reload every connected page.
	Reload []string `toml:"reload"`
}

type Collect struct {
	// Include lists patterns, relative to Base, of files copied into
	// Dist by a build.
	Include []string `toml:"include"`
}

// Task is a user-defined shell task. Custom tasks run alongside the built-in
// transforms in both the build and dev graphs.
type Task struct {
	ID          string            `toml:"id"`
	Description string            `toml:"description"`
	CMD         string            `toml:"cmd"`
	Dir         string            `toml:"dir"`
	Env         map[string]string `toml:"env"`
	Watch       []string          `toml:"watch"`
}

// Defaults returns the configuration used when a project has no
// assets.toml. It lays a project out the way its gulpfile did.
func Defaults() Config {
	return Config{
		Base: "app",
		Dist: "dist",
		Styles: Styles{
			Entry:    "app/scss/style.scss",
			Dest:     "app/css",
			Name:     "style.min.css",
			Watch:    []string{"app/scss/**/*.scss"},
			Targets:  []string{"chrome100", "firefox100", "safari15", "edge100"},
			Compiler: "sass --no-source-map",
		},
		Scripts: Scripts{
			Entry:  "app/js/main.js",
			Dest:   "app/js",
			Name:   "main.min.js",
			Watch:  []string{"app/js/**/*.js", "!app/js/main.min.js"},
			Target: "es2017",
		},
		Server: Server{
			Addr:   "localhost:3000",
			Reload: []string{"app/*.html"},
		},
		Collect: Collect{
			Include: []string{"css/style.min.css", "js/main.min.js", "**/*.html"},
		},
	}
}

func defaultImages() Images {
	return Images{
		Src:         "app/images/src",
		Dest:        "app/images",
		Include:     []string{"**/*.{jpg,jpeg,png,svg}"},
		SkipModern:  []string{"**/*.svg"},
		Formats:     []string{"avif", "webp", "original"},
		AVIFQuality: 50,
		WebPQuality: 75,
		JPEGQuality: 80,
	}
}

func defaultFonts() Fonts {
	return Fonts{Src: "app/fonts/src", Dest: "app/fonts"}
}

func defaultSprite() Sprite {
	return Sprite{Dir: "app/images", Name: "sprite.svg"}
}

func defaultTemplates() Templates {
	return Templates{Pages: "app/pages", Partials: "app/components", Dest: "app"}
}

// Load reads the project file in dir. If file is empty, dir/assets.toml is
// used if it exists, and [Defaults] otherwise. A file given explicitly must
// exist. The returned Config is validated.
func Load(dir, file string) (Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Config{}, err
	}

	explicit := file != ""
	if !explicit {
		file = DefaultFile
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(abs, file)
	}

	bs, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		c := Defaults()
		c.Dir = abs
		return c, c.Validate()
	} else if err != nil {
		return Config{}, err
	}

	c, err := Parse(string(bs))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", filepath.Base(file), err)
	}
	c.Dir = abs
	return c, c.Validate()
}

// Parse decodes the text of a project file over [Defaults]. Keys which do
// not belong to any section are reported as errors.
func Parse(text string) (Config, error) {
	c := Defaults()
	md, err := toml.Decode(text, &c)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = "'" + k.String() + "'"
		}
		return Config{}, fmt.Errorf("unknown keys %s", strings.Join(keys, ", "))
	}
	c.fill()
	return c, nil
}

// fill gives the optional sections which are present the defaults for any
// fields they leave unset.
func (c *Config) fill() {
	if c.Images != nil {
		d := defaultImages()
		orString(&c.Images.Src, d.Src)
		orString(&c.Images.Dest, d.Dest)
		orStrings(&c.Images.Include, d.Include)
		if c.Images.SkipModern == nil {
			c.Images.SkipModern = d.SkipModern
		}
		orStrings(&c.Images.Formats, d.Formats)
		orInt(&c.Images.AVIFQuality, d.AVIFQuality)
		orInt(&c.Images.WebPQuality, d.WebPQuality)
		orInt(&c.Images.JPEGQuality, d.JPEGQuality)
	}
	if c.Fonts != nil {
		d := defaultFonts()
		orString(&c.Fonts.Src, d.Src)
		orString(&c.Fonts.Dest, d.Dest)
	}
	if c.Sprite != nil {
		d := defaultSprite()
		if c.Images != nil {
			d.Dir = c.Images.Dest
		}
		orString(&c.Sprite.Dir, d.Dir)
		orString(&c.Sprite.Name, d.Name)
	}
	if c.Templates != nil {
		d := defaultTemplates()
		orString(&c.Templates.Pages, d.Pages)
		orString(&c.Templates.Partials, d.Partials)
		orString(&c.Templates.Dest, d.Dest)
	}
}

func orString(s *string, d string) {
	if *s == "" {
		*s = d
	}
}

func orStrings(s *[]string, d []string) {
	if len(*s) == 0 {
		*s = d
	}
}

func orInt(i *int, d int) {
	if *i == 0 {
		*i = d
	}
}

// Path resolves a project-relative path against Dir.
func (c Config) Path(p string) string {
	return filepath.Join(c.Dir, filepath.FromSlash(p))
}

// Validate returns an error if the config is unusable. If the error is not
// nil, its [error.Error] is a multiline string listing every problem.
func (c Config) Validate() error {
	var problems []string
	add := func(f string, args ...any) {
		problems = append(problems, "- "+fmt.Sprintf(f, args...))
	}

	paths := []setting{
		{"base", c.Base},
		{"dist", c.Dist},
		{"styles.entry", c.Styles.Entry},
		{"styles.dest", c.Styles.Dest},
		{"scripts.entry", c.Scripts.Entry},
		{"scripts.dest", c.Scripts.Dest},
	}
	if c.Images != nil {
		paths = append(paths, setting{"images.src", c.Images.Src}, setting{"images.dest", c.Images.Dest})
	}
	if c.Fonts != nil {
		paths = append(paths, setting{"fonts.src", c.Fonts.Src}, setting{"fonts.dest", c.Fonts.Dest})
	}
	if c.Sprite != nil {
		paths = append(paths, setting{"sprite.dir", c.Sprite.Dir})
	}
	if c.Templates != nil {
		paths = append(paths,
			setting{"templates.pages", c.Templates.Pages},
			setting{"templates.partials", c.Templates.Partials},
			setting{"templates.dest", c.Templates.Dest})
	}
	for _, p := range paths {
		if p.value == "" {
			add("%s is empty", p.key)
		} else if !local(p.value) {
			add("%s '%s' must be a relative path inside the project", p.key, p.value)
		}
	}

	if d := path.Clean(c.Dist); d == "." || d == path.Clean(c.Base) {
		add("dist '%s' would remove the project's sources when cleaned", c.Dist)
	}

	switch path.Ext(c.Styles.Entry) {
	case ".scss", ".sass":
		if strings.TrimSpace(c.Styles.Compiler) == "" {
			add("styles.compiler is needed to compile '%s'", c.Styles.Entry)
		}
	case ".css":
	default:
		add("styles.entry '%s' must be a .scss, .sass or .css file", c.Styles.Entry)
	}
	if c.Styles.Name == "" {
		add("styles.name is empty")
	}
	if c.Scripts.Name == "" {
		add("scripts.name is empty")
	}

	if c.Images != nil {
		if len(c.Images.Formats) == 0 {
			add("images.formats is empty")
		}
		for _, f := range c.Images.Formats {
			if f != "avif" && f != "webp" && f != "original" {
				add("images.formats has '%s', must be 'avif', 'webp' or 'original'", f)
			}
		}
		for _, q := range []struct {
			key   string
			value int
		}{
			{"images.avif_quality", c.Images.AVIFQuality},
			{"images.webp_quality", c.Images.WebPQuality},
			{"images.jpeg_quality", c.Images.JPEGQuality},
		} {
			if q.value < 1 || q.value > 100 {
				add("%s %d is out of range 1-100", q.key, q.value)
			}
		}
	}

	if c.Images != nil && path.Clean(c.Images.Src) == path.Clean(c.Images.Dest) {
		add("images.src and images.dest are both '%s'", c.Images.Src)
	}
	if c.Fonts != nil && path.Clean(c.Fonts.Src) == path.Clean(c.Fonts.Dest) {
		add("fonts.src and fonts.dest are both '%s'", c.Fonts.Src)
	}

	if c.Sprite != nil && path.Ext(c.Sprite.Name) != ".svg" {
		add("sprite.name '%s' must end in .svg", c.Sprite.Name)
	}

	if c.Server.Addr == "" {
		add("server.addr is empty")
	}

	ids := map[string]struct{}{}
	for i, t := range c.Tasks {
		switch {
		case t.ID == "":
			add("task %d has no id", i+1)
		case strings.HasPrefix(t.ID, "@"):
			add("task IDs cannot start with '@'")
		case isReserved(t.ID):
			add("'%s' is reserved and cannot be used as a task ID", t.ID)
		}
		if strings.IndexFunc(t.ID, unicode.IsSpace) != -1 {
			add("task IDs cannot contain whitespace characters")
		}
		if _, dup := ids[t.ID]; dup && t.ID != "" {
			add("task %s is defined more than once", t.ID)
		}
		ids[t.ID] = struct{}{}
		if strings.TrimSpace(t.CMD) == "" {
			add("task %s has no cmd", t.ID)
		}
		if t.Dir != "" && !local(t.Dir) {
			add("task %s has dir '%s', which must be a relative path inside the project", t.ID, t.Dir)
		}
	}

	if len(problems) != 0 {
		return errors.New(strings.Join(append([]string{"invalid config"}, problems...), "\n"))
	}
	return nil
}

// reserved are the IDs of built-in tasks and graphs.
var reserved = []string{
	"styles", "scripts", "images", "fonts", "sprite", "templates",
	"clean", "collect", "build", "dev",
}

func isReserved(id string) bool {
	for _, r := range reserved {
		if r == id {
			return true
		}
	}
	return false
}

func local(p string) bool {
	return filepath.IsLocal(filepath.FromSlash(p))
}

type setting struct{ key, value string }
