// Package sprite combines svg icons into a single svg of <symbol>s, which a
// page can reference with <use href="sprite.svg#id">.
package sprite

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"
)

// Icon is one svg to include in the sprite.
type Icon struct {
	// ID becomes the symbol's id, usually the file's name without its
	// extension.
	ID   string
	Data []byte
}

type symbol struct {
	id      string
	viewBox string
	inner   []byte
}

// Build returns the sprite for icons, with one symbol per icon, in the
// order given.
func Build(icons []Icon) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" style="display:none">` + "\n")
	seen := map[string]struct{}{}
	for _, icon := range icons {
		if _, dup := seen[icon.ID]; dup {
			return nil, fmt.Errorf("two icons have the id '%s'", icon.ID)
		}
		seen[icon.ID] = struct{}{}

		s, err := parse(icon)
		if err != nil {
			return nil, fmt.Errorf("icon '%s': %w", icon.ID, err)
		}
		fmt.Fprintf(&buf, `<symbol id="%s"`, html.EscapeString(s.id))
		if s.viewBox != "" {
			fmt.Fprintf(&buf, ` viewBox="%s"`, html.EscapeString(s.viewBox))
		}
		buf.WriteString(">")
		buf.Write(bytes.TrimSpace(s.inner))
		buf.WriteString("</symbol>\n")
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// parse finds the root svg element and slices out everything between its
// start and end tags.
func parse(icon Icon) (symbol, error) {
	d := xml.NewDecoder(bytes.NewReader(icon.Data))
	d.Strict = false

	s := symbol{id: icon.ID}
	var (
		depth int
		start int64
	)
	for {
		offset := d.InputOffset()
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			return symbol{}, errors.New("no <svg> element")
		} else if err != nil {
			return symbol{}, err
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if tok.Name.Local != "svg" {
					return symbol{}, fmt.Errorf("root element is <%s>, not <svg>", tok.Name.Local)
				}
				s.viewBox = viewBox(tok.Attr)
				start = d.InputOffset()
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				s.inner = icon.Data[start:offset]
				return s, nil
			}
		}
	}
}

// viewBox returns the element's viewBox, or one made from its width and
// height.
func viewBox(attrs []xml.Attr) string {
	var width, height string
	for _, a := range attrs {
		switch a.Name.Local {
		case "viewBox":
			return a.Value
		case "width":
			width = strings.TrimSuffix(a.Value, "px")
		case "height":
			height = strings.TrimSuffix(a.Value, "px")
		}
	}
	if width != "" && height != "" {
		return "0 0 " + width + " " + height
	}
	return ""
}

var page = template.Must(template.New("sprite.html").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Sprite}}</title>
<style>
body { font-family: sans-serif; }
li { display: flex; align-items: center; gap: 1em; margin: .5em 0; }
svg.icon { width: 32px; height: 32px; }
</style>
</head>
<body>
<h1>{{.Sprite}}</h1>
<ul>
{{- range .IDs}}
<li><svg class="icon"><use href="{{$.Sprite}}#{{.}}"></use></svg><code>&lt;svg&gt;&lt;use href="{{$.Sprite}}#{{.}}"&gt;&lt;/use&gt;&lt;/svg&gt;</code></li>
{{- end}}
</ul>
</body>
</html>
`))

// Page renders a reference page which shows every symbol in the sprite
// next to the markup that uses it.
func Page(spriteName string, ids []string) ([]byte, error) {
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Sprite string
		IDs    []string
	}{spriteName, ids})
	return buf.Bytes(), err
}
