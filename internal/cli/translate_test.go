package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateToFile(t *testing.T) {
	bundlePath := writeTestBundle(t)
	outPath := filepath.Join(t.TempDir(), "unit.json")

	buf := &bytes.Buffer{}
	cmd := NewTranslateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{bundlePath, "--output", outPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "stage=Emitted")
	assert.Contains(t, buf.String(), "items=1")

	doc, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"demo::inc"`)
	assert.Contains(t, string(doc), `"schema":1`)
}

func TestTranslateJSONReport(t *testing.T) {
	bundlePath := writeTestBundle(t)

	buf := &bytes.Buffer{}
	cmd := NewTranslateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{bundlePath, "-o", filepath.Join(t.TempDir(), "unit.json")})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	reports, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, reports, 1)
	first := reports[0].(map[string]any)
	assert.Equal(t, "Emitted", first["stage"])
	assert.Equal(t, float64(1), first["items"])
	assert.NotEmpty(t, first["run"])
}

func TestTranslateUnknownBackend(t *testing.T) {
	bundlePath := writeTestBundle(t)

	cmd := NewTranslateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{bundlePath, "--backend", "no-such-backend"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "constructing backend")
}

func TestTranslateMalformedBundleFails(t *testing.T) {
	bad := writeMalformedBundle(t)

	buf := &bytes.Buffer{}
	cmd := NewTranslateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{bad, "-o", filepath.Join(t.TempDir(), "unit.json")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

// Translating with --cache records the run, and the runs command can
// read it back from the same database.
func TestTranslateRecordsRun(t *testing.T) {
	bundlePath := writeTestBundle(t)
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	translate := NewTranslateCommand(&RootOptions{Format: "text"})
	translate.SetOut(&bytes.Buffer{})
	translate.SetArgs([]string{
		bundlePath,
		"-o", filepath.Join(t.TempDir(), "unit.json"),
		"--cache", cachePath,
	})
	require.NoError(t, translate.Execute())

	buf := &bytes.Buffer{}
	runs := NewRunsCommand(&RootOptions{Format: "text"})
	runs.SetOut(buf)
	runs.SetArgs([]string{"--cache", cachePath})
	require.NoError(t, runs.Execute())

	assert.Contains(t, buf.String(), "unit="+bundlePath)
	assert.Contains(t, buf.String(), "backend=ir-json")
}
