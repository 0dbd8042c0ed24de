// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kernel

import (
	"fmt"

	"github.com/stefanhoelzl/tock/cpu"
)

// BottomHalf is implemented by a capsule that has interrupt-recorded work
// to finish outside ISR context. HasPendingWork must be cheap to poll every
// scheduler iteration; RunBottomHalf must not block.
type BottomHalf interface {
	HasPendingWork() bool
	RunBottomHalf()
}

// RunResult is why a process stopped running and returned control to the
// kernel.
type RunResult int

const (
	RunSyscall RunResult = iota
	RunYielded
	RunTimesliceExpired
	RunFault
)

// ProcessRunner resumes a single Ready process until it makes a system
// call, yields, exhausts its timeslice, or faults. The kernel has no
// notion of how a process actually executes (that's board/architecture
// context-switch code, out of this core's scope); it only needs to know
// when control comes back and why.
type ProcessRunner interface {
	Run(p *Process) RunResult
}

// Kernel is the cooperative single-threaded scheduler: it alternates
// between letting pending bottom halves finish and letting one Ready
// process run.
type Kernel struct {
	cpu          *cpu.CPU
	registry     *CapsuleRegistry
	bottomHalves []BottomHalf
	processes    []*Process
	runner       ProcessRunner

	nextProcess int
}

// NewKernel wires up a scheduler over processes, dispatching bottom-half
// work to bottomHalves and resuming processes via runner.
func NewKernel(c *cpu.CPU, registry *CapsuleRegistry, bottomHalves []BottomHalf, processes []*Process, runner ProcessRunner) *Kernel {
	return &Kernel{
		cpu:          c,
		registry:     registry,
		bottomHalves: bottomHalves,
		processes:    processes,
		runner:       runner,
	}
}

// Registry returns the kernel's capsule registry, for syscall dispatch
// wired up by the runner.
func (k *Kernel) Registry() *CapsuleRegistry {
	return k.registry
}

// runBottomHalves runs every bottom half with pending work to completion,
// reporting whether any ran.
func (k *Kernel) runBottomHalves() bool {
	ran := false
	for _, bh := range k.bottomHalves {
		if bh.HasPendingWork() {
			bh.RunBottomHalf()
			ran = true
		}
	}
	return ran
}

// pickReady returns the next Ready or Yielded process in round-robin order
// starting after the last one scheduled, or nil if there is none.
func (k *Kernel) pickReady() *Process {
	n := len(k.processes)
	for i := 0; i < n; i++ {
		idx := (k.nextProcess + i) % n
		if k.processes[idx].State == Ready || k.processes[idx].State == Yielded {
			k.nextProcess = (idx + 1) % n
			return k.processes[idx]
		}
	}
	return nil
}

// Step runs one iteration of the scheduler loop: finish pending bottom-half
// work; otherwise resume one Ready process; otherwise wait for an
// interrupt. Exposed separately from Run so tests can drive bounded numbers
// of iterations.
func (k *Kernel) Step() {
	if k.runBottomHalves() {
		return
	}

	p := k.pickReady()
	if p == nil {
		k.cpu.WaitForInterrupt()
		return
	}

	p.State = Running
	switch k.runner.Run(p) {
	case RunSyscall, RunYielded, RunTimesliceExpired:
		p.State = Ready
	case RunFault:
		p.Terminate()
		switch p.FaultResponse {
		case Restart:
			// Re-admitting the process to Ready here runs it again at its
			// next scheduling turn; its memory and entry point are not
			// reloaded from flash.
			p.State = Ready
		default:
			panic(fmt.Sprintf("kernel: process %d faulted, fault response is Panic", p.ID))
		}
	}
}

// Run executes the scheduler loop forever. Board bring-up is the only
// caller; tests drive Step directly instead.
func (k *Kernel) Run() {
	for {
		k.Step()
	}
}
