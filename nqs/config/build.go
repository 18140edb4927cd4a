package config

import (
	"io"
	"log/slog"

	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/contrib/ensemble"
	"github.com/ajroetker/go-nqs/nqs/contrib/operator"
	"github.com/ajroetker/go-nqs/nqs/psi"
)

// NewExecutor returns the configured executor and a function releasing it.
func (c Config) NewExecutor() (nqs.Executor, func(), error) {
	backend, err := nqs.ParseBackend(c.Backend)
	if err != nil {
		return nil, nil, err
	}
	if backend == nqs.BackendHost {
		return nqs.Host, func() {}, nil
	}
	device, err := nqs.NewDevice(c.Device)
	if err != nil {
		return nil, nil, err
	}
	return device, device.Close, nil
}

// NewPsi returns the reference wavefunction on exec.
func (c Config) NewPsi(exec nqs.Executor) (*psi.Psi, error) {
	opts := []psi.Option{
		psi.WithSeed(c.Seed),
		psi.WithNoise(c.Noise),
		psi.WithExecutor(exec),
	}
	if c.FreeQuantumAxis {
		opts = append(opts, psi.WithFreeQuantumAxis())
	}
	return psi.New(c.Spins, c.Hidden, opts...)
}

// Build returns the configured operator.
func (c OperatorConfig) Build() (operator.Operator, error) {
	switch c.Kind {
	case "pauli":
		return operator.NewPauliString(complex(c.Coefficient, c.CoefficientImag), c.Pauli)
	case "rotation":
		return operator.NewRotation(c.Angle, c.Pauli)
	default:
		return operator.Identity{}, nil
	}
}

// Build returns the configured ensemble.
func (c EnsembleConfig) Build() ensemble.Ensemble {
	if c.Kind == "montecarlo" {
		return ensemble.MonteCarlo{
			Samples:  c.Samples,
			Chains:   c.Chains,
			BurnIn:   c.BurnIn,
			Thinning: c.Thinning,
			Seed:     c.Seed,
		}
	}
	return ensemble.ExactSummation{}
}

// SlogLevel maps Level to a slog level; unknown names map to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a logger writing to w in the configured format.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
