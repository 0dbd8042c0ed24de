// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kernel

import (
	"testing"

	"github.com/stefanhoelzl/tock/cpu"
)

type fakeBottomHalf struct {
	pending bool
	ran     int
}

func (b *fakeBottomHalf) HasPendingWork() bool { return b.pending }
func (b *fakeBottomHalf) RunBottomHalf() {
	b.ran++
	b.pending = false
}

type scriptedRunner struct {
	results map[int]RunResult
	runs    []int
}

func (r *scriptedRunner) Run(p *Process) RunResult {
	r.runs = append(r.runs, p.ID)
	if result, ok := r.results[p.ID]; ok {
		return result
	}
	return RunYielded
}

func newProcesses(n int) []*Process {
	ps := make([]*Process, n)
	for i := range ps {
		ps[i] = NewProcess(i, 0x2000, 0x3000, 0x2ffc, 0x1000, 0x800, 0x1010, Panic)
	}
	return ps
}

func TestSchedulerPrefersBottomHalfWork(t *testing.T) {
	bh := &fakeBottomHalf{pending: true}
	runner := &scriptedRunner{results: map[int]RunResult{}}
	k := NewKernel(&cpu.CPU{}, NewCapsuleRegistry(), []BottomHalf{bh}, newProcesses(1), runner)

	k.Step()

	if bh.ran != 1 {
		t.Fatalf("expected bottom half to run once, got %d", bh.ran)
	}
	if len(runner.runs) != 0 {
		t.Fatal("expected no process to run while bottom-half work was pending")
	}
}

func TestSchedulerRoundRobinsReadyProcesses(t *testing.T) {
	runner := &scriptedRunner{results: map[int]RunResult{}}
	k := NewKernel(&cpu.CPU{}, NewCapsuleRegistry(), nil, newProcesses(3), runner)

	k.Step()
	k.Step()
	k.Step()
	k.Step()

	want := []int{0, 1, 2, 0}
	if len(runner.runs) != len(want) {
		t.Fatalf("got %d runs, want %d", len(runner.runs), len(want))
	}
	for i, id := range want {
		if runner.runs[i] != id {
			t.Fatalf("run %d: got process %d, want %d", i, runner.runs[i], id)
		}
	}
}

func TestSchedulerFaultPanicsSystem(t *testing.T) {
	runner := &scriptedRunner{results: map[int]RunResult{0: RunFault}}
	k := NewKernel(&cpu.CPU{}, NewCapsuleRegistry(), nil, newProcesses(1), runner)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a fault under the Panic policy to panic the kernel")
		}
	}()
	k.Step()
}

func TestSchedulerFaultRestartsProcess(t *testing.T) {
	runner := &scriptedRunner{results: map[int]RunResult{0: RunFault}}
	processes := newProcesses(1)
	processes[0].FaultResponse = Restart
	k := NewKernel(&cpu.CPU{}, NewCapsuleRegistry(), nil, processes, runner)

	k.Step()

	if processes[0].State != Ready {
		t.Fatalf("expected Ready after a Restart-policy fault, got %s", processes[0].State)
	}
}

func TestSchedulerWaitsForInterruptWhenIdle(t *testing.T) {
	runner := &scriptedRunner{results: map[int]RunResult{}}
	processes := newProcesses(1)
	processes[0].State = Fault

	waited := 0
	cpu.SetInterruptController(nil, nil, func() { waited++ })
	defer cpu.SetInterruptController(nil, nil, func() {})

	k := NewKernel(&cpu.CPU{}, NewCapsuleRegistry(), nil, processes, runner)
	k.Step()

	if waited != 1 {
		t.Fatalf("expected WaitForInterrupt to be called once, got %d", waited)
	}
}
