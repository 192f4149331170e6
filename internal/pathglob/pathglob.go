// Package pathglob matches slash-separated paths against globs.
//
// Patterns use gobwas/glob syntax with '/' as the separator: `*` and `?` stay
// within one path segment, `**` crosses segments, `{a,b}` is an alternation
// and `[a-z]` a character class. In addition, `**/` may match zero
// directories, so "app/scss/**/*.scss" matches "app/scss/style.scss".
package pathglob

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Glob is a compiled pattern.
type Glob struct {
	pattern string
	globs   []glob.Glob
}

// Compile cleans and compiles a pattern.
func Compile(pattern string) (*Glob, error) {
	pattern = Clean(pattern)
	g := &Glob{pattern: pattern}
	for _, variant := range expand(pattern) {
		compiled, err := glob.Compile(variant, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
		}
		g.globs = append(g.globs, compiled)
	}
	return g, nil
}

// MustCompile is like Compile, but panics on an invalid pattern.
func MustCompile(pattern string) *Glob {
	g, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return g
}

// Match reports whether the slash-separated path p matches the pattern.
func (g *Glob) Match(p string) bool {
	p = path.Clean(filepath.ToSlash(p))
	for _, compiled := range g.globs {
		if compiled.Match(p) {
			return true
		}
	}
	return false
}

// String returns the cleaned pattern.
func (g *Glob) String() string { return g.pattern }

// Base returns the longest leading directory of the pattern which contains
// no glob syntax. For a pattern without any glob syntax, Base returns the
// pattern's directory, and literal is true.
func (g *Glob) Base() (base string, literal bool) {
	segments := strings.Split(g.pattern, "/")
	for i, seg := range segments {
		if IsMeta(seg) {
			if i == 0 {
				return ".", false
			}
			return path.Join(segments[:i]...), false
		}
	}
	return path.Dir(g.pattern), true
}

// Clean converts a pattern to slash-separated form and removes redundant
// elements, such as a leading "./".
func Clean(pattern string) string {
	return path.Clean(filepath.ToSlash(pattern))
}

// IsMeta reports whether s contains any glob syntax.
func IsMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// expand returns every variant of p in which each "**/" is either kept or
// removed.
func expand(p string) []string {
	i := strings.Index(p, "**/")
	if i < 0 {
		return []string{p}
	}
	head, tail := p[:i], p[i+len("**/"):]
	var out []string
	for _, t := range expand(tail) {
		out = append(out, head+"**/"+t, head+t)
	}
	return out
}
