// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cpu

// irqEnableFn, irqDisableFn and wfiFn default to no-ops so that everything
// built on cpu.CPU (the scheduler's idle wait, board Init) stays testable
// off-target. Board bring-up installs the real PRIMASK/BASEPRI-level
// implementations via SetInterruptController before starting the kernel,
// the same overridable-hook idiom this package already uses for
// ExceptionHandler.
var (
	irqEnableFn  = func() {}
	irqDisableFn = func() {}
	wfiFn        = func() {}
)

// SetInterruptController installs the real core-level interrupt mask/unmask
// and wait-for-interrupt primitives. Any argument left nil keeps its
// current (initially no-op) behavior.
func SetInterruptController(enable, disable, waitForInterrupt func()) {
	if enable != nil {
		irqEnableFn = enable
	}
	if disable != nil {
		irqDisableFn = disable
	}
	if waitForInterrupt != nil {
		wfiFn = waitForInterrupt
	}
}

func irqEnable() { irqEnableFn() }
func irqDisable() { irqDisableFn() }
func wfi() { wfiFn() }

