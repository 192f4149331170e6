package esbuildutil_test

import (
	"testing"

	"github.com/amonks/assetpipe/internal/esbuildutil"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngines(t *testing.T) {
	es, err := esbuildutil.Engines([]string{"chrome100", "Safari15.4"})
	require.NoError(t, err)
	assert.Equal(t, []api.Engine{
		{Name: api.EngineChrome, Version: "100"},
		{Name: api.EngineSafari, Version: "15.4"},
	}, es)

	_, err = esbuildutil.Engines([]string{"netscape4"})
	assert.EqualError(t, err, "unknown browser 'netscape' in target 'netscape4'")

	_, err = esbuildutil.Engines([]string{"100"})
	assert.EqualError(t, err, "invalid target '100'")
}

func TestTarget(t *testing.T) {
	tgt, err := esbuildutil.Target("ES2017")
	require.NoError(t, err)
	assert.Equal(t, api.ES2017, tgt)

	tgt, err = esbuildutil.Target("")
	require.NoError(t, err)
	assert.Equal(t, api.ESNext, tgt)

	_, err = esbuildutil.Target("es3")
	assert.EqualError(t, err, "unknown target 'es3'")
}

func TestError(t *testing.T) {
	assert.NoError(t, esbuildutil.Error(nil))
	err := esbuildutil.Error([]api.Message{{Text: `Expected ";" but found "}"`}})
	assert.ErrorContains(t, err, `Expected ";" but found "}"`)
}
