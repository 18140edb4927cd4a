package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/contrib/ensemble"
	"github.com/ajroetker/go-nqs/nqs/contrib/operator"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `
spins: 8
hidden: 12
seed: 42
free_quantum_axis: true
backend: device
device:
  workers: 3
  max_lanes: 64
ensemble:
  kind: montecarlo
  samples: 1000
  chains: 2
operator:
  kind: pauli
  pauli: "X1 Z2"
  coefficient: 0.5
  coefficient_imag: -1
train:
  steps: 10
  learning_rate: 0.1
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Spins)
	assert.Equal(t, 12, cfg.Hidden)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.True(t, cfg.FreeQuantumAxis)
	assert.Equal(t, nqs.DeviceConfig{Workers: 3, MaxLanes: 64}, cfg.Device)
	assert.Equal(t, "montecarlo", cfg.Ensemble.Kind)
	assert.Equal(t, 1000, cfg.Ensemble.Samples)
	assert.Equal(t, 256, cfg.Ensemble.BurnIn, "unset fields keep their defaults")
	assert.Equal(t, "X1 Z2", cfg.Operator.Pauli)
	assert.Equal(t, 10, cfg.Train.Steps)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())

	op, err := cfg.Operator.Build()
	require.NoError(t, err)
	p, ok := op.(operator.PauliString)
	require.True(t, ok)
	assert.Equal(t, complex(0.5, -1), p.Coefficient)

	mc, ok := cfg.Ensemble.Build().(ensemble.MonteCarlo)
	require.True(t, ok)
	assert.Equal(t, 1000, mc.Samples)
	assert.Equal(t, 2, mc.Chains)

	exec, release, err := cfg.NewExecutor()
	require.NoError(t, err)
	defer release()
	assert.Equal(t, nqs.BackendDevice, exec.Backend())
	assert.Equal(t, 64, exec.Capacity())

	ref, err := cfg.NewPsi(exec)
	require.NoError(t, err)
	assert.True(t, ref.FreeQuantumAxis())
	assert.Equal(t, 8, ref.NumSpins())
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spins: [1, 2"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spins: 8\n"), 0o644))
	t.Setenv("NQS_SPINS", "10")
	t.Setenv("NQS_SEED", "7")
	t.Setenv("NQS_LEARNING_RATE", "0.25")
	t.Setenv("NQS_OPERATOR", "identity")
	t.Setenv("NQS_FREE_QUANTUM_AXIS", "1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Spins, "env wins over file")
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.InDelta(t, 0.25, cfg.Train.LearningRate, 0)
	assert.Equal(t, "identity", cfg.Operator.Kind)
	assert.True(t, cfg.FreeQuantumAxis)

	op, err := cfg.Operator.Build()
	require.NoError(t, err)
	assert.Equal(t, operator.Identity{}, op)
}

func TestEnvParseError(t *testing.T) {
	t.Setenv("NQS_HIDDEN", "many")
	_, err := Load("")
	assert.ErrorIs(t, err, nqs.ErrInvalidArgument)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no spins", func(c *Config) { c.Spins = 0 }},
		{"too many spins", func(c *Config) { c.Spins = 65 }},
		{"no hidden", func(c *Config) { c.Hidden = 0 }},
		{"negative noise", func(c *Config) { c.Noise = -1 }},
		{"unknown ensemble", func(c *Config) { c.Ensemble.Kind = "importance" }},
		{"no samples", func(c *Config) { c.Ensemble.Kind = "montecarlo"; c.Ensemble.Samples = 0 }},
		{"negative chains", func(c *Config) { c.Ensemble.Chains = -1 }},
		{"unknown operator", func(c *Config) { c.Operator.Kind = "hadamard" }},
		{"rotation without string", func(c *Config) { c.Operator.Pauli = "" }},
		{"zero learning rate", func(c *Config) { c.Train.LearningRate = 0 }},
		{"unknown level", func(c *Config) { c.Log.Level = "trace" }},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }},
		{"unknown backend", func(c *Config) { c.Backend = "tpu" }},
		{"exact too large", func(c *Config) { c.Spins = 40 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), nqs.ErrInvalidArgument)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.Int("spins", 4))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"spins":4`)

	buf.Reset()
	LogConfig{Level: "debug", Format: "text"}.NewLogger(&buf).Debug("step", slog.Int("k", 1))
	assert.Contains(t, buf.String(), "k=1")
}
