// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dma

import (
	"github.com/stefanhoelzl/tock/cpu"
)

// ClockController is the board-supplied collaborator that actually gates
// the PDCA's two clock lines. Wiring a real clock tree is board bring-up
// and out of scope; ResourceRefcount only decides when to call it.
type ClockController interface {
	EnableClocks()
	DisableClocks()
}

// ResourceRefcount serializes access to a shared clock-gated resource (the
// DMA block's two clock lines) among an arbitrary number of channels.
// Acquire/Release are atomic with respect to interrupt preemption on a
// single core.
type ResourceRefcount struct {
	clocks ClockController
	count  int
}

// NewResourceRefcount returns a ResourceRefcount that drives clocks.
func NewResourceRefcount(clocks ClockController) *ResourceRefcount {
	return &ResourceRefcount{clocks: clocks}
}

// Acquire increments the refcount, enabling the clocks on the 0→1
// transition.
func (r *ResourceRefcount) Acquire() {
	cpu.CriticalSection(func() {
		if r.count == 0 {
			r.clocks.EnableClocks()
		}
		r.count++
	})
}

// Release decrements the refcount, disabling the clocks on the 1→0
// transition. Releasing a refcount already at zero is a fatal kernel bug.
func (r *ResourceRefcount) Release() {
	cpu.CriticalSection(func() {
		if r.count == 0 {
			panic("dma: ResourceRefcount underflow")
		}
		r.count--
		if r.count == 0 {
			r.clocks.DisableClocks()
		}
	})
}

// Count reports the current refcount, for tests and diagnostics.
func (r *ResourceRefcount) Count() int {
	return r.count
}
