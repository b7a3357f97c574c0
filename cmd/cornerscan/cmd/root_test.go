package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/cornerscan"
)

// isolate keeps config discovery away from the developer's files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func writeSquare(t *testing.T, dir, name string) string {
	t.Helper()
	bg := imaging.New(100, 100, color.White)
	img := imaging.Paste(bg, imaging.New(40, 40, color.Black), image.Pt(30, 30))
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func writeBlank(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(imaging.New(64, 64, color.White), path))
	return path
}

func run(ctx context.Context, args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(context.Background(), "version")
	require.NoError(t, err)
	assert.Equal(t, "cornerscan version dev (commit: unknown, built: unknown)\n", out)
}

func TestDetectText(t *testing.T) {
	dir := isolate(t)
	path := writeSquare(t, dir, "square.png")

	out, err := run(context.Background(), "detect", path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, path+": TL("), out)
	assert.Contains(t, out, "module=1.95 attempts=1")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestDetectJSON(t *testing.T) {
	dir := isolate(t)
	path := writeSquare(t, dir, "square.png")

	out, err := run(context.Background(), "detect", "--format", "json", "--seed-x", "50", "--seed-y", "50", "--seed-size", "10", path)
	require.NoError(t, err)

	var records []struct {
		Path   string `json:"path"`
		Result struct {
			Bounds struct {
				Left, Right, Top, Bottom int
			} `json:"bounds"`
			Seed struct {
				X, Y, Size int
			} `json:"seed"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, path, records[0].Path)
	assert.Equal(t, 29, records[0].Result.Bounds.Left)
	assert.Equal(t, 70, records[0].Result.Bounds.Bottom)
	assert.Equal(t, 10, records[0].Result.Seed.Size)
}

func TestDetectReportsFailures(t *testing.T) {
	dir := isolate(t)
	good := writeSquare(t, dir, "square.png")
	blank := writeBlank(t, dir, "blank.png")

	out, err := run(context.Background(), "detect", good, blank)
	require.Error(t, err)
	assert.Equal(t, "1 of 2 images failed", err.Error())

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], good+": TL("))
	assert.True(t, strings.HasPrefix(lines[1], blank+": error: "))
}

func TestDetectSeedNeedsBothCoordinates(t *testing.T) {
	dir := isolate(t)
	path := writeSquare(t, dir, "square.png")

	_, err := run(context.Background(), "detect", "--seed-x", "50", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--seed-x and --seed-y")
}

func TestDetectNeedsArgs(t *testing.T) {
	isolate(t)
	_, err := run(context.Background(), "detect")
	assert.Error(t, err)
}

func TestDetectMetricsTextfile(t *testing.T) {
	dir := isolate(t)
	path := writeSquare(t, dir, "square.png")
	prom := filepath.Join(dir, "cornerscan.prom")

	_, err := run(context.Background(), "detect", "--metrics-textfile", prom, path)
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cornerscan_detections_total{outcome="found"} 1`)
}

func TestDetectDumpBinarized(t *testing.T) {
	dir := isolate(t)
	path := writeSquare(t, dir, "square.png")
	dump := filepath.Join(dir, "dump")

	_, err := run(context.Background(), "detect", "--dump-binarized", dump, path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dump, "square.binarized.png"))
}

func TestConfigFileAndInvalidConfig(t *testing.T) {
	dir := isolate(t)
	path := writeSquare(t, dir, "square.png")

	cfgPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  format: yaml\n"), 0o644))
	out, err := run(context.Background(), "detect", "--config", cfgPath, path)
	require.NoError(t, err)
	assert.Contains(t, out, "- path: "+path)

	require.NoError(t, os.WriteFile(cfgPath, []byte("detect:\n  binarizer: otsu\n"), 0o644))
	_, err = run(context.Background(), "detect", "--config", cfgPath, path)
	assert.ErrorIs(t, err, cornerscan.ErrInvalidConfig)
}

func TestFlagOverridesConfigFile(t *testing.T) {
	dir := isolate(t)
	path := writeSquare(t, dir, "square.png")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cornerscan.yaml"), []byte("output:\n  format: yaml\n"), 0o644))

	out, err := run(context.Background(), "detect", "--format", "text", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, path+": TL("), out)
}

func TestServeStopsOnCancel(t *testing.T) {
	isolate(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := run(ctx, "serve", "--addr", "127.0.0.1:0")
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestDebugLogNamesConfigFile(t *testing.T) {
	dir := isolate(t)
	path := writeSquare(t, dir, "square.png")
	cfgPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: debug\n"), 0o644))

	// The logger resolves stderr when it is built, so swap it first.
	stderr, err := os.CreateTemp(dir, "stderr")
	require.NoError(t, err)
	orig := os.Stderr
	os.Stderr = stderr
	t.Cleanup(func() { os.Stderr = orig })

	_, err = run(context.Background(), "detect", "--config", cfgPath, path)
	require.NoError(t, err)
	require.NoError(t, stderr.Close())

	logs, err := os.ReadFile(stderr.Name())
	require.NoError(t, err)
	assert.Contains(t, string(logs), "loaded config file")
	assert.Contains(t, string(logs), cfgPath)
}
