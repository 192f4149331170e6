// Package esbuildutil translates the project file's notation for browser and
// language targets into esbuild's, and esbuild's messages into errors.
package esbuildutil

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/evanw/esbuild/pkg/api"
)

var engines = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// Engines parses browser targets such as "chrome100" or "safari15.4".
func Engines(targets []string) ([]api.Engine, error) {
	out := make([]api.Engine, 0, len(targets))
	for _, t := range targets {
		i := strings.IndexFunc(t, unicode.IsDigit)
		if i <= 0 {
			return nil, fmt.Errorf("invalid target '%s'", t)
		}
		name, ok := engines[strings.ToLower(t[:i])]
		if !ok {
			return nil, fmt.Errorf("unknown browser '%s' in target '%s'", t[:i], t)
		}
		out = append(out, api.Engine{Name: name, Version: t[i:]})
	}
	return out, nil
}

var languages = map[string]api.Target{
	"esnext": api.ESNext,
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
}

// Target parses a language target such as "es2017". The empty string means
// esnext.
func Target(s string) (api.Target, error) {
	if s == "" {
		return api.ESNext, nil
	}
	t, ok := languages[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown target '%s'", s)
	}
	return t, nil
}

// Error turns esbuild's error messages into a single error, or nil if there
// are none.
func Error(msgs []api.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{
		Kind:  api.ErrorMessage,
		Color: false,
	})
	return errors.New(strings.TrimSpace(strings.Join(formatted, "")))
}

// Warnings formats esbuild's warnings, one string per warning.
func Warnings(msgs []api.Message) []string {
	if len(msgs) == 0 {
		return nil
	}
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{
		Kind:  api.WarningMessage,
		Color: false,
	})
	for i, f := range formatted {
		formatted[i] = strings.TrimSpace(f)
	}
	return formatted
}
