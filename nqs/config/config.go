// Copyright 2026 go-nqs Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the settings of a distance or training run.
//
// Settings are resolved with priority env > file > defaults: Load starts from
// Default, merges an optional YAML file, applies NQS_* environment variables
// and validates the result.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/psi"
)

// Config is the full run configuration.
type Config struct {
	// Spins and Hidden are the shape of the wavefunctions.
	Spins  int `yaml:"spins" json:"spins"`
	Hidden int `yaml:"hidden" json:"hidden"`

	// Seed and Noise drive the random initialization of the reference.
	Seed  uint64  `yaml:"seed" json:"seed"`
	Noise float64 `yaml:"noise" json:"noise"`

	FreeQuantumAxis bool `yaml:"free_quantum_axis" json:"free_quantum_axis"`

	// Backend is "host" or "device".
	Backend string           `yaml:"backend" json:"backend"`
	Device  nqs.DeviceConfig `yaml:"device" json:"device"`

	Ensemble EnsembleConfig `yaml:"ensemble" json:"ensemble"`
	Operator OperatorConfig `yaml:"operator" json:"operator"`
	Train    TrainConfig    `yaml:"train" json:"train"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// EnsembleConfig selects how configurations are drawn.
type EnsembleConfig struct {
	// Kind is "exact" or "montecarlo".
	Kind     string `yaml:"kind" json:"kind"`
	Samples  int    `yaml:"samples" json:"samples"`
	Chains   int    `yaml:"chains" json:"chains"`
	BurnIn   int    `yaml:"burn_in" json:"burn_in"`
	Thinning int    `yaml:"thinning" json:"thinning"`
	Seed     uint64 `yaml:"seed" json:"seed"`
}

// OperatorConfig selects the operator applied to the reference.
type OperatorConfig struct {
	// Kind is "identity", "pauli" or "rotation".
	Kind string `yaml:"kind" json:"kind"`

	// Pauli is a Pauli string such as "X0 Z3".
	Pauli string `yaml:"pauli" json:"pauli"`

	// Coefficient scales a "pauli" operator.
	Coefficient     float64 `yaml:"coefficient" json:"coefficient"`
	CoefficientImag float64 `yaml:"coefficient_imag" json:"coefficient_imag"`

	// Angle is θ of a "rotation" exp(iθP).
	Angle float64 `yaml:"angle" json:"angle"`
}

// TrainConfig controls gradient descent in the train command.
type TrainConfig struct {
	Steps        int     `yaml:"steps" json:"steps"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`

	// Tolerance stops training once the distance drops below it.
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`

	// Perturbation is the noise added to the candidate's starting point.
	Perturbation float64 `yaml:"perturbation" json:"perturbation"`
}

// LogConfig configures the slog handler of the CLI.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level" json:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format" json:"format"`
}

var (
	ensembleKinds = []string{"exact", "montecarlo"}
	operatorKinds = []string{"identity", "pauli", "rotation"}
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
)

// Default returns the default configuration: a 6-spin, 6-hidden-unit
// wavefunction on the host, exact summation, and a π/8 rotation about X0.
func Default() Config {
	return Config{
		Spins:   6,
		Hidden:  6,
		Seed:    1,
		Noise:   0.1,
		Backend: nqs.BackendHost.String(),
		Ensemble: EnsembleConfig{
			Kind:    "exact",
			Samples: 4096,
			Chains:  4,
			BurnIn:  256,
		},
		Operator: OperatorConfig{
			Kind:        "rotation",
			Pauli:       "X0",
			Coefficient: 1,
			Angle:       0.39269908169872414,
		},
		Train: TrainConfig{
			Steps:        200,
			LearningRate: 0.05,
			Tolerance:    1e-4,
			Perturbation: 0.01,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves the configuration from defaults, the YAML file at path (if
// path is non-empty and the file exists) and NQS_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "load config file %s", path)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) error {
	ints := map[string]*int{
		"NQS_SPINS":     &cfg.Spins,
		"NQS_HIDDEN":    &cfg.Hidden,
		"NQS_WORKERS":   &cfg.Device.Workers,
		"NQS_MAX_LANES": &cfg.Device.MaxLanes,
		"NQS_SAMPLES":   &cfg.Ensemble.Samples,
		"NQS_CHAINS":    &cfg.Ensemble.Chains,
		"NQS_STEPS":     &cfg.Train.Steps,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(nqs.ErrInvalidArgument, "%s=%q", key, v)
			}
			*dst = i
		}
	}

	floats := map[string]*float64{
		"NQS_NOISE":         &cfg.Noise,
		"NQS_ANGLE":         &cfg.Operator.Angle,
		"NQS_LEARNING_RATE": &cfg.Train.LearningRate,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errors.Wrapf(nqs.ErrInvalidArgument, "%s=%q", key, v)
			}
			*dst = f
		}
	}

	if v := os.Getenv("NQS_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(nqs.ErrInvalidArgument, "NQS_SEED=%q", v)
		}
		cfg.Seed = seed
	}
	if v := os.Getenv("NQS_FREE_QUANTUM_AXIS"); v != "" {
		cfg.FreeQuantumAxis = v == "true" || v == "1"
	}

	strs := map[string]*string{
		"NQS_BACKEND":    &cfg.Backend,
		"NQS_ENSEMBLE":   &cfg.Ensemble.Kind,
		"NQS_OPERATOR":   &cfg.Operator.Kind,
		"NQS_PAULI":      &cfg.Operator.Pauli,
		"NQS_LOG_LEVEL":  &cfg.Log.Level,
		"NQS_LOG_FORMAT": &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.Wrapf(nqs.ErrInvalidArgument, format, args...)
	}
	switch {
	case c.Spins < 1 || c.Spins > nqs.MaxSpins:
		return invalid("spins must be in [1, %d], got %d", nqs.MaxSpins, c.Spins)
	case c.Hidden < 1:
		return invalid("hidden must be >= 1, got %d", c.Hidden)
	case c.Noise < 0:
		return invalid("noise must be >= 0, got %g", c.Noise)
	case !lo.Contains(ensembleKinds, c.Ensemble.Kind):
		return invalid("ensemble kind %q not in %v", c.Ensemble.Kind, ensembleKinds)
	case c.Ensemble.Kind == "montecarlo" && c.Ensemble.Samples < 1:
		return invalid("montecarlo samples must be >= 1, got %d", c.Ensemble.Samples)
	case c.Ensemble.Chains < 0 || c.Ensemble.BurnIn < 0 || c.Ensemble.Thinning < 0:
		return invalid("ensemble chains, burn_in and thinning must be >= 0")
	case !lo.Contains(operatorKinds, c.Operator.Kind):
		return invalid("operator kind %q not in %v", c.Operator.Kind, operatorKinds)
	case c.Operator.Kind != "identity" && c.Operator.Pauli == "":
		return invalid("operator %q needs a pauli string", c.Operator.Kind)
	case c.Train.Steps < 0 || c.Train.LearningRate <= 0 || c.Train.Tolerance < 0 || c.Train.Perturbation < 0:
		return invalid("train steps %d, learning_rate %g, tolerance %g, perturbation %g",
			c.Train.Steps, c.Train.LearningRate, c.Train.Tolerance, c.Train.Perturbation)
	case !lo.Contains(logLevels, c.Log.Level):
		return invalid("log level %q not in %v", c.Log.Level, logLevels)
	case !lo.Contains(logFormats, c.Log.Format):
		return invalid("log format %q not in %v", c.Log.Format, logFormats)
	}
	if _, err := nqs.ParseBackend(c.Backend); err != nil {
		return err
	}
	if c.Ensemble.Kind == "exact" && c.Spins > psi.MaxVectorSpins {
		return invalid("exact summation over %d spins", c.Spins)
	}
	return nil
}
