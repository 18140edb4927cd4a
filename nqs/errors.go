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

import "github.com/pkg/errors"

// Configuration errors. They are reported when an object is constructed or
// reconfigured, never in the middle of an evaluation, and are wrapped with
// context; test for them with errors.Is.
var (
	ErrInvalidArgument = errors.New("nqs: invalid argument")
	ErrTooManySpins    = errors.New("nqs: too many spins")
	ErrParamLength     = errors.New("nqs: parameter array length mismatch")
	ErrShapeMismatch   = errors.New("nqs: shape mismatch")
	ErrBackendMismatch = errors.New("nqs: backend mismatch")
	ErrDeviceCapacity  = errors.New("nqs: device capacity exceeded")
	ErrClosedDevice    = errors.New("nqs: device is closed")
)
