package scan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ericlevine/cornerscan"
	"github.com/ericlevine/cornerscan/detector"
)

func sampleResults() []FileResult {
	res := newResult(
		detector.Corners{{X: 15.95, Y: 15.95}, {X: 33.05, Y: 15.95}, {X: 33.05, Y: 33.05}, {X: 15.95, Y: 33.05}},
		detector.Bounds{Left: 14, Right: 35, Up: 14, Down: 35},
		detector.Request{SeedSize: 10, X: 25, Y: 25, MatrixSize: 10},
		50, 50,
	)
	res.ID = "abc"
	res.Attempts = 1
	return []FileResult{
		{Path: "a.png", Result: res},
		{Path: "b.png", Err: fmt.Errorf("no corners: %w", cornerscan.ErrNotFound)},
	}
}

func TestNewResultModuleSize(t *testing.T) {
	res := sampleResults()[0].Result
	// Corner centres are 17.1 apart across 9 module steps.
	assert.InDelta(t, 1.9, res.ModuleSize, 1e-9)
	assert.Equal(t, Rect{Left: 14, Right: 35, Top: 14, Bottom: 35}, res.Bounds)
	assert.Equal(t, Seed{X: 25, Y: 25, Size: 10}, res.Seed)
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "JSON", "yaml"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

func TestEncodeText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatText, sampleResults()))
	assert.Equal(t,
		"a.png: TL(15.95,15.95) TR(33.05,15.95) BR(33.05,33.05) BL(15.95,33.05) module=1.90 attempts=1\n"+
			"b.png: error: no corners: symbol not found\n",
		buf.String())
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatJSON, sampleResults()))

	var records []fileRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "abc", records[0].Result.ID)
	assert.Equal(t, 33.05, records[0].Result.Corners[2].X)
	assert.Empty(t, records[0].Error)
	assert.Nil(t, records[1].Result)
	assert.Contains(t, records[1].Error, "symbol not found")
	assert.NotContains(t, buf.String(), "inverted")
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatYAML, sampleResults()))

	var records []fileRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, 14, records[0].Result.Bounds.Left)
	assert.Equal(t, 10, records[0].Result.MatrixSize)
	assert.Contains(t, buf.String(), "module_size:")
}

func TestEncodeUnknownFormat(t *testing.T) {
	assert.Error(t, Encode(&bytes.Buffer{}, Format("csv"), nil))
}
