// Package fsutil holds the file operations shared by every task: resolving
// input patterns, composing output paths, deciding staleness, and writing
// outputs atomically.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/amonks/assetpipe/internal/pathglob"
	"github.com/google/renameio/v2"
)

// WriteFile writes data to name atomically: a reader of name sees either its
// previous contents or all of data, never a mix. Missing parent directories
// are created.
func WriteFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(name, data, 0o644)
}

// CopyFile copies src to dst atomically, creating dst's parent directories.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return WriteFile(dst, data)
}

// Stale reports whether dst needs to be regenerated from src: that is,
// whether dst is missing or was last modified before src.
func Stale(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	dstInfo, err := os.Stat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	} else if err != nil {
		return false, err
	}
	return dstInfo.ModTime().Before(srcInfo.ModTime()), nil
}

// Dest composes an output path from an input path: the input's path relative
// to its source directory is placed under destDir, and, if ext is not empty,
// its extension is replaced with ext (which includes the leading dot).
//
// Dest is a pure function of its arguments.
func Dest(destDir, rel, ext string) string {
	rel = filepath.FromSlash(rel)
	if ext != "" {
		rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ext
	}
	return filepath.Join(destDir, rel)
}

// Exists reports whether a file or directory exists at name.
func Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// Glob returns the files under root which match any of the patterns and
// none of the exclusions. Patterns are slash-separated and relative to root;
// a pattern prefixed with "!" is an exclusion. The result is sorted,
// slash-separated, and relative to root. A missing root or a pattern that
// matches nothing is not an error.
func Glob(root string, patterns ...string) ([]string, error) {
	var (
		includes []*pathglob.Glob
		excludes []*pathglob.Glob
	)
	for _, p := range patterns {
		exclude := strings.HasPrefix(p, "!")
		g, err := pathglob.Compile(strings.TrimPrefix(p, "!"))
		if err != nil {
			return nil, err
		}
		if exclude {
			excludes = append(excludes, g)
		} else {
			includes = append(includes, g)
		}
	}

	found := map[string]struct{}{}
	for _, g := range includes {
		base, _ := g.Base()
		err := filepath.WalkDir(filepath.Join(root, filepath.FromSlash(base)), func(p string, d fs.DirEntry, err error) error {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			} else if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if g.Match(rel) && !matchesAny(excludes, rel) {
				found[rel] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("glob '%s': %w", g, err)
		}
	}

	out := make([]string, 0, len(found))
	for p := range found {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Match reports whether the slash-separated path rel matches pattern.
func Match(pattern, rel string) bool {
	g, err := pathglob.Compile(pattern)
	if err != nil {
		return false
	}
	return g.Match(rel)
}

func matchesAny(gs []*pathglob.Glob, rel string) bool {
	for _, g := range gs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Rel is like filepath.Rel, but returns a slash-separated path.
func Rel(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return path.Clean(filepath.ToSlash(rel)), nil
}
