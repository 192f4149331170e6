// Package markup renders html pages which include shared partials.
package markup

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/Masterminds/sprig/v3"
)

// Set holds the parsed partials which every page can include, as in
// {{template "header.html" .}}.
type Set struct {
	partials *template.Template
}

// ParsePartials parses the named files in dir. Each partial is named by its
// slash-separated path relative to dir.
func ParsePartials(dir string, names []string) (*Set, error) {
	root := template.New("").Funcs(sprig.FuncMap())
	for _, name := range names {
		bs, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			return nil, err
		}
		if _, err := root.New(name).Parse(string(bs)); err != nil {
			return nil, err
		}
	}
	return &Set{partials: root}, nil
}

// Render renders a page called name, whose source is src, with data.
func (s *Set) Render(name string, src []byte, data any) ([]byte, error) {
	t, err := s.partials.Clone()
	if err != nil {
		return nil, err
	}
	if _, err := t.New(name).Parse(string(src)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("rendering '%s': %w", name, err)
	}
	return buf.Bytes(), nil
}
