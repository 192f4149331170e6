package color

import (
	"hash/fnv"
	"math"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// RenderHash renders s in the color that Hash picks for it.
func RenderHash(s string) string {
	return globalColorer.render(s)
}

// Hash picks a stable color for a task ID, so that a task's gutter has the
// same color in every run.
func Hash(s string) lipgloss.AdaptiveColor {
	return globalColorer.hash(s)
}

var globalColorer = &colorer{
	colorCache:  map[string]lipgloss.AdaptiveColor{},
	renderCache: map[string]string{},
}

type colorer struct {
	mu          sync.Mutex
	colorCache  map[string]lipgloss.AdaptiveColor
	renderCache map[string]string
}

func (c *colorer) render(s string) string {
	color := c.hash(s)

	c.mu.Lock()
	defer c.mu.Unlock()

	if out, ok := c.renderCache[s]; ok {
		return out
	}
	c.renderCache[s] = lipgloss.NewStyle().Foreground(color).Render(s)
	return c.renderCache[s]
}

func (c *colorer) hash(s string) lipgloss.AdaptiveColor {
	c.mu.Lock()
	defer c.mu.Unlock()

	if color, ok := c.colorCache[s]; ok {
		return color
	}
	hue := float64(hash(s)) / float64(math.MaxUint32)
	c.colorCache[s] = lipgloss.AdaptiveColor{
		Dark:  hsl{hue, 1.0, 0.7}.rgb().hex(),
		Light: hsl{hue, 1.0, 0.3}.rgb().hex(),
	}
	return c.colorCache[s]
}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

type hsl struct{ h, s, l float64 }

type rgb struct{ r, g, b float64 }

func (c rgb) hex() string {
	to := func(f float64) int { return int(math.Round(f * 255)) }
	return "#" + hex2(to(c.r)) + hex2(to(c.g)) + hex2(to(c.b))
}

func hex2(n int) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[(n>>4)&0xF], digits[n&0xF]})
}

func (c hsl) rgb() rgb {
	if c.s == 0 {
		return rgb{c.l, c.l, c.l}
	}
	var q float64
	if c.l < 0.5 {
		q = c.l * (1 + c.s)
	} else {
		q = c.l + c.s - c.l*c.s
	}
	p := 2*c.l - q
	return rgb{
		r: hueToRGB(p, q, c.h+1.0/3),
		g: hueToRGB(p, q, c.h),
		b: hueToRGB(p, q, c.h-1.0/3),
	}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}
