package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI against a throwaway config using the offline mock source.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(cfg); os.IsNotExist(err) {
		body := "sources:\n  priority: [mock]\nstore:\n  path: " + filepath.Join(dir, "rates.csv") +
			"\nlog:\n  level: error\n"
		require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))
	}
	t.Setenv("CONFIG_PATH", cfg)

	var out bytes.Buffer
	err := execute(context.Background(), args, &out)
	return out.String(), err
}

func TestCLI_FetchBackfillRecommendCompare(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "backfill", "--days", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "appended 31")

	out, err = run(t, dir, "backfill")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	out, err = run(t, dir, "recommend", "--strategy", "rsi")
	require.NoError(t, err)
	assert.Contains(t, out, "RSI(14)")
	assert.Regexp(t, `recommendation (BUY|SELL|HOLD)`, out)

	out, err = run(t, dir, "compare", "--export", "json", "--output", filepath.Join(dir, "cmp.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "average change")
	_, err = os.Stat(filepath.Join(dir, "cmp.json"))
	assert.NoError(t, err)

	out, err = run(t, dir, "export", "--format", "csv", "--output", filepath.Join(dir, "series.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 31 observations")

	out, err = run(t, dir, "fetch", "--source", "mock")
	require.NoError(t, err)
	assert.Contains(t, out, "(source: mock)")
}

func TestCLI_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "fetch", "--source", "bloomberg")
	assert.ErrorContains(t, err, "unknown source")

	_, err = run(t, dir, "recommend")
	assert.ErrorContains(t, err, "insufficient data")

	_, err = run(t, dir, "compare", "--period1", "2024-02-30")
	assert.ErrorContains(t, err, "invalid date range")

	_, err = run(t, dir, "export", "--format", "pdf")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestCLI_ExplicitSourceOutsidePriority(t *testing.T) {
	dir := t.TempDir()
	body := "sources:\n  priority: [ecb]\n  endpoints:\n    ecb: http://127.0.0.1:1\n" +
		"store:\n  path: " + filepath.Join(dir, "rates.csv") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))

	out, err := run(t, dir, "fetch", "--source", "mock")
	require.NoError(t, err)
	assert.Contains(t, out, "(source: mock)")

	out, err = run(t, dir, "backfill", "--source", "mock", "--days", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "fetched")
}

func TestCLI_Listings(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "sources")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ecb"))
	assert.Contains(t, out, "mock")

	out, err = run(t, dir, "strategies")
	require.NoError(t, err)
	assert.Contains(t, out, "ma-cross")
}
