package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/experiment"
	"github.com/san-kum/lscsim/internal/storage"
)

func newTestCLI() *cli {
	return &cli{reg: experiment.NewRegistry(), logger: zap.NewNop()}
}

func execute(t *testing.T, c *cli, args ...string) string {
	t.Helper()
	root := c.rootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()), buf.String())
	return buf.String()
}

// small keeps every drift in these tests to a few milliseconds.
var small = []string{"--preset", "quiet", "--particles", "64", "--points", "5", "--length", "0.01"}

func TestLoadConfigOverrides(t *testing.T) {
	c := newTestCLI()
	runCmd, _, err := c.rootCmd().Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, runCmd.ParseFlags([]string{"--preset", "quiet", "--particles", "64", "--length", "0.05"}))

	cfg, err := c.loadConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, config.LoadingQuiet, cfg.Loading)
	assert.Equal(t, 64, cfg.Beam.Particles)
	assert.Equal(t, 0.05, cfg.Drift.Length)
	assert.Equal(t, 0.0, cfg.Laser.Modulation, "unchanged flags keep the preset value")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift.yaml")
	require.NoError(t, os.WriteFile(path, []byte("beam:\n  particles: 128\ndrift:\n  length: 0.2\n"), 0644))

	c := newTestCLI()
	runCmd, _, err := c.rootCmd().Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, runCmd.ParseFlags([]string{"--config", path, "--length", "0.3"}))

	cfg, err := c.loadConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Beam.Particles)
	assert.Equal(t, 0.3, cfg.Drift.Length)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"--preset", "warm"}},
		{"negative length", []string{"--length", "-1"}},
		{"one eval point", []string{"--points", "1"}},
		{"missing file", []string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI()
			runCmd, _, err := c.rootCmd().Find([]string{"run"})
			require.NoError(t, err)
			require.NoError(t, runCmd.ParseFlags(tt.args))
			_, err = c.loadConfig(runCmd)
			assert.Error(t, err)
		})
	}

	c := newTestCLI()
	runCmd, _, _ := c.rootCmd().Find([]string{"run"})
	require.NoError(t, runCmd.ParseFlags([]string{"--length", "0"}))
	_, err := c.loadConfig(runCmd)
	assert.True(t, errors.Is(err, dynamo.ErrDomain))
}

func TestRunSavesAndReads(t *testing.T) {
	dir := t.TempDir()
	c := newTestCLI()

	out := execute(t, c, append([]string{"run", "--data", dir, "--name", "quiet64"}, small...)...)
	assert.Contains(t, out, "drift complete")
	assert.Contains(t, out, "quiet64")
	assert.FileExists(t, filepath.Join(dir, "quiet64", "metadata.json"))

	out = execute(t, c, "list", "--data", dir)
	assert.Contains(t, out, "quiet64")
	assert.Contains(t, out, "harmonic")

	out = execute(t, c, "plot", "quiet64", "--data", dir)
	assert.Contains(t, out, "σ_η/σ_η0 vs z")
	assert.Contains(t, out, "snapshots: 5")

	out = execute(t, c, "profile", "quiet64", "--data", dir, "--bins", "16")
	assert.Contains(t, out, "dominant density mode")

	spreadImage := filepath.Join(dir, "spread.svg")
	execute(t, c, "plot", "quiet64", "--data", dir, "--image", spreadImage)
	raw, err := os.ReadFile(spreadImage)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<svg")

	phaseSVG := filepath.Join(dir, "phase.svg")
	execute(t, c, "profile", "quiet64", "--data", dir, "--svg", phaseSVG)
	raw, err = os.ReadFile(phaseSVG)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<circle")

	path := filepath.Join(dir, "quiet64.json")
	execute(t, c, "export-json", "quiet64", "--data", dir, "--out", path, "--harmonics", "2")
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	var data storage.ExportData
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Len(t, data.Z, 5)
	assert.Equal(t, 64, data.Particles)
	assert.Equal(t, int64(1), data.Seed)
	require.Len(t, data.Bunching, 5)
	assert.Len(t, data.Bunching[0], 2)

	st := storage.New(dir)
	h, err := st.LoadSpread("quiet64")
	require.NoError(t, err)
	assert.InDeltaSlice(t, h.Spread, data.Spread, 1e-9, "export recomputes the stored run")
}

func TestListEmpty(t *testing.T) {
	out := execute(t, newTestCLI(), "list", "--data", t.TempDir())
	assert.Contains(t, out, "no runs found")
}

func TestPresetsCommand(t *testing.T) {
	out := execute(t, newTestCLI(), "presets")
	for _, want := range []string{"hghg", "quiet", "grid", "harmonic", "rk45", "leapfrog"} {
		assert.Contains(t, out, want)
	}
}

func TestSweepCommand(t *testing.T) {
	args := append([]string{"sweep", "--param", "laser.modulation", "--min", "0", "--max", "1", "--steps", "2"}, small...)
	out := execute(t, newTestCLI(), args...)
	assert.Contains(t, out, "sweep laser.modulation over [0, 1] in 2 steps")
	assert.Contains(t, out, "VALUE")
}

func TestSweepScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	scenario := `name: compression-scan
description: two drifts and a sweep
preset: quiet
steps:
  - name: base
    params: {beam.particles: 64, drift.eval_points: 3, drift.length: 0.01}
    save_as: base
  - name: rk4
    integrator: rk4
    params: {beam.particles: 64, drift.eval_points: 3, drift.length: 0.01, drift.step: 0.005}
sweeps:
  - {param: beam.particles, min: 32, max: 64, steps: 2}
`
	require.NoError(t, os.WriteFile(path, []byte(scenario), 0644))

	out := execute(t, newTestCLI(), "sweep", path, "--data", dir)
	assert.Contains(t, out, "compression-scan")
	assert.Contains(t, out, "rk4")
	assert.Contains(t, out, "sweep beam.particles")
	assert.FileExists(t, filepath.Join(dir, "base", "spread.csv"))
}

func TestMonteCarloCommand(t *testing.T) {
	args := append([]string{"montecarlo", "--trials", "2"}, small...)
	out := execute(t, newTestCLI(), args...)
	assert.Contains(t, out, "TRIAL")
	assert.Contains(t, out, "over 2 seeds")
}

func TestOptimizeCommand(t *testing.T) {
	args := append([]string{"optimize", "--axis", "laser.modulation=0:2:2", "--compression", "0.5"}, small...)
	out := execute(t, newTestCLI(), args...)
	assert.Contains(t, out, "LASER.MODULATION")
	assert.Contains(t, out, "best peak_bunching")

	c := newTestCLI()
	root := c.rootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"optimize", "--axis", "laser.modulation=0:2"}, small...))
	assert.Error(t, root.ExecuteContext(context.Background()))
}
