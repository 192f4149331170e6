// Package stylesheet turns a style entry into one minified, prefixed CSS
// file. SCSS and Sass entries are compiled by an external program; the CSS
// is then post-processed by esbuild.
package stylesheet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/amonks/assetpipe/internal/esbuildutil"
	"github.com/amonks/assetpipe/internal/script"
	"github.com/evanw/esbuild/pkg/api"
)

type Options struct {
	// Compiler is a command which prints the CSS for the entry path given
	// as its last argument, like `sass --no-source-map`.
	Compiler string

	// Targets are browsers in esbuild's notation, like "chrome100".
	Targets []string

	// Dir is where the compiler runs.
	Dir string
}

// Compile produces the CSS for entry. Warnings from either stage are written
// to log. A failure at either stage returns an error carrying the
// compiler's message.
func Compile(ctx context.Context, entry string, opts Options, log io.Writer) ([]byte, error) {
	css, err := source(ctx, entry, opts, log)
	if err != nil {
		return nil, err
	}

	engines, err := esbuildutil.Engines(opts.Targets)
	if err != nil {
		return nil, err
	}

	result := api.Transform(string(css), api.TransformOptions{
		Loader:            api.LoaderCSS,
		Sourcefile:        filepath.Base(entry),
		Engines:           engines,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: true,
		LogLevel:          api.LogLevelSilent,
	})
	for _, w := range esbuildutil.Warnings(result.Warnings) {
		fmt.Fprintln(log, w)
	}
	if err := esbuildutil.Error(result.Errors); err != nil {
		return nil, err
	}
	return result.Code, nil
}

func source(ctx context.Context, entry string, opts Options, log io.Writer) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(entry)) {
	case ".css":
		return os.ReadFile(entry)
	case ".scss", ".sass":
	default:
		return nil, fmt.Errorf("unsupported stylesheet '%s'", filepath.Base(entry))
	}

	if _, err := os.Stat(entry); err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	s := script.New(opts.Dir, map[string]string{"ASSETPIPE_ENTRY": entry}, opts.Compiler+` "$ASSETPIPE_ENTRY"`)
	if err := s.Start(ctx, &stdout, &stderr); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	if stderr.Len() > 0 {
		log.Write(stderr.Bytes())
	}
	return stdout.Bytes(), nil
}
