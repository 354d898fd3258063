package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "replay")
}

func TestReplayCmd_ShippedScenarios(t *testing.T) {
	out, err := execute(t, "replay", "--config", t.TempDir(), "--script", "../scripts/scenarios.yml")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 14)

	var first struct {
		Tick       int    `json:"tick"`
		Compressor string `json:"compressor"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, 1, first.Tick)
	assert.Equal(t, "OFF", first.Compressor)
}

func TestReplayCmd_Deterministic(t *testing.T) {
	args := []string{"replay", "--config", t.TempDir(), "--script", "../scripts/scenarios.yml"}
	a, err := execute(t, args...)
	require.NoError(t, err)
	b, err := execute(t, args...)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestReplayCmd_FailedExpectationStillWritesRecords(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(script, []byte(`
steps:
  - repeat: 2
    inputs: {enable: true, head_pressure: 200, oat: 70, saturated_temp: 90}
    expect: {compressor: RUNNING}
`), 0o600))

	outFile := filepath.Join(dir, "records.jsonl")
	_, err := execute(t, "replay", "--config", dir, "--script", script, "--out", outFile)
	require.Error(t, err)

	body, readErr := os.ReadFile(outFile)
	require.NoError(t, readErr)
	assert.Len(t, strings.Split(strings.TrimSpace(string(body)), "\n"), 2)
}

func TestReplayCmd_RequiresScript(t *testing.T) {
	_, err := execute(t, "replay", "--config", t.TempDir())
	require.Error(t, err)
}
