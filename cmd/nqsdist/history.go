package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind labels one line of a training history.
type EventKind string

const (
	KindRunBegin EventKind = "run_begin"
	KindStep     EventKind = "step"
	KindRunEnd   EventKind = "run_end"
)

// Event is one JSONL line of a training history. Fields are omitempty so each
// event only carries what is relevant to its kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp string    `json:"ts"`
	RunID     string    `json:"run_id"`

	// run_begin
	Spins    int    `json:"spins,omitempty"`
	Hidden   int    `json:"hidden,omitempty"`
	Backend  string `json:"backend,omitempty"`
	Operator string `json:"operator,omitempty"`
	Ensemble string `json:"ensemble,omitempty"`

	// step
	Step     int      `json:"step,omitempty"`
	Distance *float64 `json:"distance,omitempty"` // pointer: 0 must be serialised
	GradNorm float64  `json:"grad_norm,omitempty"`

	// run_end
	Status    string `json:"status,omitempty"`
	Steps     int    `json:"steps,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
}

// History writes the events of one training run to <dir>/<run id>.jsonl.
//
// All methods are nil-safe, so a run without --history passes a nil
// *History around.
type History struct {
	runID   string
	path    string
	started time.Time

	mu sync.Mutex
	f  *os.File
}

// OpenHistory creates the history file of a new run under dir.
func OpenHistory(dir string) (*History, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	runID := uuid.New().String()
	path := filepath.Join(dir, runID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &History{runID: runID, path: path, started: time.Now(), f: f}, nil
}

// RunID returns the run identifier, or "" on a nil History.
func (h *History) RunID() string {
	if h == nil {
		return ""
	}
	return h.runID
}

// Path returns the file the history is written to.
func (h *History) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

// Begin records the setup of the run.
func (h *History) Begin(spins, hidden int, backend, op, ens string) {
	h.write(Event{Kind: KindRunBegin, Spins: spins, Hidden: hidden, Backend: backend, Operator: op, Ensemble: ens})
}

// Step records the distance and gradient norm of one step.
func (h *History) Step(step int, distance, gradNorm float64) {
	h.write(Event{Kind: KindStep, Step: step, Distance: &distance, GradNorm: gradNorm})
}

// Close records the end of the run and closes the file.
func (h *History) Close(status string, steps int) {
	if h == nil {
		return
	}
	h.write(Event{Kind: KindRunEnd, Status: status, Steps: steps, ElapsedMs: time.Since(h.started).Milliseconds()})
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.f != nil {
		_ = h.f.Close()
		h.f = nil
	}
}

func (h *History) write(e Event) {
	if h == nil {
		return
	}
	e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	e.RunID = h.runID
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("history: marshal event", "kind", e.Kind, "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.f == nil {
		return
	}
	if _, err := h.f.Write(append(data, '\n')); err != nil {
		slog.Error("history: write event", "path", h.path, "error", err)
	}
}
