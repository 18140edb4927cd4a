package nqs

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Backend selects how a wavefunction or estimator schedules its work. It is
// fixed when the object is constructed; the two backends are never mixed
// within one call.
type Backend int

const (
	// BackendHost runs every sum sequentially on the calling goroutine.
	// Results are bit-for-bit deterministic.
	BackendHost Backend = iota

	// BackendDevice runs one work-group per configuration on a persistent
	// worker pool, with tree reductions inside each group.
	BackendDevice
)

// String returns a human-readable name for the backend.
func (b Backend) String() string {
	switch b {
	case BackendHost:
		return "host"
	case BackendDevice:
		return "device"
	default:
		return "unknown"
	}
}

// ParseBackend is the inverse of Backend.String. The empty string selects the
// host backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "host", "cpu":
		return BackendHost, nil
	case "device", "gpu":
		return BackendDevice, nil
	default:
		return BackendHost, errors.Wrapf(ErrInvalidArgument, "unknown backend %q", s)
	}
}

// BackendEnv returns the backend named by the NQS_BACKEND environment
// variable, or BackendHost when it is unset or unparsable.
func BackendEnv() Backend {
	val := os.Getenv("NQS_BACKEND")
	if val == "" {
		return BackendHost
	}
	b, err := ParseBackend(val)
	if err != nil {
		return BackendHost
	}
	return b
}
