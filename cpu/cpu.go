// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package cpu provides the core-level primitives the kernel needs from the
// processor: interrupt masking, the exception vector table, and critical
// sections that are atomic with respect to interrupt preemption on a single
// core.
package cpu

// CPU represents the single hardware core the kernel runs on.
type CPU struct{}

// Init performs the core-level bring-up that must happen before any
// interrupt source is armed.
func (c *CPU) Init() {
	irqDisable()
}

// EnableInterrupts unmasks interrupts at the core.
func (c *CPU) EnableInterrupts() {
	irqEnable()
}

// DisableInterrupts masks interrupts at the core.
func (c *CPU) DisableInterrupts() {
	irqDisable()
}

// WaitForInterrupt parks the core in a low-power state until the next
// interrupt, per the kernel main loop's step 3 (spec §4.6).
func (c *CPU) WaitForInterrupt() {
	wfi()
}
