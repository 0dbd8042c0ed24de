// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kernel

import "fmt"

// CapsuleRegistry maps a statically assigned driver number to the capsule
// implementing it, the platform's fixed table of kernel-resident
// capabilities reachable by user processes.
type CapsuleRegistry struct {
	drivers map[int]Capsule
}

// NewCapsuleRegistry returns an empty registry.
func NewCapsuleRegistry() *CapsuleRegistry {
	return &CapsuleRegistry{drivers: make(map[int]Capsule)}
}

// Register binds driverNum to capsule. Registering the same driver number
// twice is a platform wiring bug and panics, matching the original's
// static, compile-time-checked driver table.
func (r *CapsuleRegistry) Register(driverNum int, capsule Capsule) {
	if _, exists := r.drivers[driverNum]; exists {
		panic(fmt.Sprintf("kernel: driver number %d already registered", driverNum))
	}
	r.drivers[driverNum] = capsule
}

// WithDriver looks up driverNum and invokes f with the capsule reference, or
// with nil if no capsule claims that driver number. This is the
// continuation-passing dispatch the syscall path uses instead of returning
// a capsule reference directly. The registry does not stop f from keeping
// the reference after it returns.
func (r *CapsuleRegistry) WithDriver(driverNum int, f func(Capsule)) {
	f(r.drivers[driverNum])
}
