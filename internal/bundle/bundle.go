// Package bundle resolves a script entry and its imports into a single
// minified file, using esbuild.
package bundle

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/amonks/assetpipe/internal/esbuildutil"
	"github.com/evanw/esbuild/pkg/api"
)

type Options struct {
	// Target is a language level, like "es2017".
	Target string
}

// Bundle builds entry. Nothing is written to disk; the caller decides where
// the output goes. Warnings are written to log.
func Bundle(entry string, opts Options, log io.Writer) ([]byte, error) {
	target, err := esbuildutil.Target(opts.Target)
	if err != nil {
		return nil, err
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{entry},
		Outfile:           filepath.Join(filepath.Dir(entry), "bundle.out.js"),
		Bundle:            true,
		Write:             false,
		Format:            api.FormatIIFE,
		Target:            target,
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

	for _, f := range result.OutputFiles {
		if filepath.Ext(f.Path) == ".js" {
			return f.Contents, nil
		}
	}
	return nil, errors.New("esbuild produced no output")
}
