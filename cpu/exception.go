// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cpu

import "fmt"

// Vector identifies a Cortex-M exception vector.
type Vector int

// Cortex-M exception vectors (ARMv7-M architecture reference manual, table
// B1-4), the vectors a safety kernel actually needs to care about for
// process fault handling (spec §7). The values are numbered in declaration
// order from 0; they are not the architectural exception numbers or vector
// table offsets.
const (
	NMI Vector = iota
	HardFault
	MemManage
	BusFault
	UsageFault
	SVCall
	PendSV
	SysTick
)

func (v Vector) String() string {
	switch v {
	case NMI:
		return "NMI"
	case HardFault:
		return "HardFault"
	case MemManage:
		return "MemManage"
	case BusFault:
		return "BusFault"
	case UsageFault:
		return "UsageFault"
	case SVCall:
		return "SVCall"
	case PendSV:
		return "PendSV"
	case SysTick:
		return "SysTick"
	default:
		return "Unknown"
	}
}

var exceptionHandlerFn = defaultExceptionHandler

func defaultExceptionHandler(v Vector) {
	panic(fmt.Sprintf("unhandled exception: %s", v))
}

// ExceptionHandler overrides the default exception handler, which panics.
// A handler installed here can, for example, translate MemManage/BusFault/
// UsageFault into a process fault rather than an immediate panic; no code
// in this repository installs one.
func ExceptionHandler(fn func(Vector)) {
	exceptionHandlerFn = fn
}

// Dispatch is invoked from the vector table entry stub for v.
func Dispatch(v Vector) {
	exceptionHandlerFn(v)
}
