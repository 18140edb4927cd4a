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

package nqs

import (
	stdmath "math"

	"github.com/pkg/errors"

	"github.com/ajroetker/go-nqs/nqs/contrib/reduce"
	"github.com/ajroetker/go-nqs/nqs/contrib/workerpool"
)

// DefaultMaxLanes is the shared-scratch capacity of a device work-group when
// DeviceConfig.MaxLanes is zero.
const DefaultMaxLanes = 1024

// maxDeviceLanes bounds the shared scratch a single work-group may allocate.
const maxDeviceLanes = 1 << 16

// Executor schedules work-groups. The host executor and *Device are the only
// implementations.
type Executor interface {
	// Backend reports which backend the executor implements.
	Backend() Backend

	// Capacity is the largest number of lanes a work-group of this executor
	// can reduce.
	Capacity() int

	// NewGroup returns a work-group context owned by the caller.
	NewGroup() *Group

	chunks(n int) int
	run(n int, fn func(chunk, start, end int)) error
}

type hostExecutor struct{}

// Host is the sequential host executor.
var Host Executor = hostExecutor{}

func (hostExecutor) Backend() Backend { return BackendHost }

func (hostExecutor) Capacity() int { return stdmath.MaxInt }

func (hostExecutor) NewGroup() *Group { return &Group{} }

func (hostExecutor) chunks(n int) int {
	if n <= 0 {
		return 0
	}
	return 1
}

func (hostExecutor) run(n int, fn func(chunk, start, end int)) error {
	if n > 0 {
		fn(0, 0, n)
	}
	return nil
}

// DeviceConfig configures a data-parallel device.
type DeviceConfig struct {
	// Workers is the number of persistent workers; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`

	// MaxLanes is the shared-scratch capacity of one work-group, i.e. the
	// largest number of hidden or visible units a wavefunction evaluated on
	// this device may have. 0 uses DefaultMaxLanes.
	MaxLanes int `yaml:"max_lanes" json:"max_lanes"`
}

// Device is the data-parallel executor. One work-group runs per
// configuration; groups are spread over a persistent worker pool and every
// group reduces its lanes with a binary tree.
//
// A Device must be closed to release its workers. It is safe for concurrent
// use by multiple wavefunctions and estimators.
type Device struct {
	pool  *workerpool.Pool
	lanes int
}

// NewDevice allocates a device. Invalid capacities are reported here rather
// than at evaluation time.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	if cfg.Workers < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "device workers %d", cfg.Workers)
	}
	lanes := cfg.MaxLanes
	if lanes == 0 {
		lanes = DefaultMaxLanes
	}
	if lanes < 0 || lanes > maxDeviceLanes {
		return nil, errors.Wrapf(ErrDeviceCapacity, "max lanes %d outside [1, %d]", cfg.MaxLanes, maxDeviceLanes)
	}
	return &Device{
		pool:  workerpool.New(cfg.Workers),
		lanes: reduce.NextPow2(lanes),
	}, nil
}

// Backend implements Executor.
func (d *Device) Backend() Backend { return BackendDevice }

// Capacity implements Executor.
func (d *Device) Capacity() int { return d.lanes }

// Workers returns the number of persistent workers.
func (d *Device) Workers() int { return d.pool.NumWorkers() }

// NewGroup implements Executor.
func (d *Device) NewGroup() *Group {
	return &Group{
		device:     true,
		lanes:      d.lanes,
		shared:     make([]complex128, d.lanes),
		sharedReal: make([]float64, d.lanes),
	}
}

// Close releases the workers. Launching on a closed device fails with
// ErrClosedDevice.
func (d *Device) Close() {
	d.pool.Close()
}

func (d *Device) chunks(n int) int {
	return d.pool.NumChunks(n)
}

func (d *Device) run(n int, fn func(chunk, start, end int)) error {
	if err := d.pool.ParallelForChunks(n, fn); err != nil {
		if errors.Is(err, workerpool.ErrClosed) {
			return ErrClosedDevice
		}
		return err
	}
	return nil
}

// CheckCapacity returns ErrDeviceCapacity if a work-group of exec cannot
// reduce lanes summands.
func CheckCapacity(exec Executor, lanes int) error {
	if lanes > exec.Capacity() {
		return errors.Wrapf(ErrDeviceCapacity, "%d lanes exceed %s capacity %d", lanes, exec.Backend(), exec.Capacity())
	}
	return nil
}

// SameBackend returns ErrBackendMismatch unless every executor implements
// the same backend as the first.
func SameBackend(execs ...Executor) error {
	for i := 1; i < len(execs); i++ {
		if execs[i].Backend() != execs[0].Backend() {
			return errors.Wrapf(ErrBackendMismatch, "%s and %s", execs[0].Backend(), execs[i].Backend())
		}
	}
	return nil
}
