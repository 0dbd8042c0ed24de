// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dma

import "testing"

type fakeClocks struct {
	enabled  int
	disabled int
}

func (f *fakeClocks) EnableClocks() { f.enabled++ }
func (f *fakeClocks) DisableClocks() { f.disabled++ }

func TestResourceRefcountEnablesOnZeroToOne(t *testing.T) {
	clocks := &fakeClocks{}
	r := NewResourceRefcount(clocks)

	r.Acquire()
	if clocks.enabled != 1 {
		t.Fatalf("expected clocks enabled once, got %d", clocks.enabled)
	}

	r.Acquire()
	if clocks.enabled != 1 {
		t.Fatalf("second Acquire should not re-enable clocks, got %d", clocks.enabled)
	}
	if r.Count() != 2 {
		t.Fatalf("expected count 2, got %d", r.Count())
	}
}

func TestResourceRefcountDisablesOnOneToZero(t *testing.T) {
	clocks := &fakeClocks{}
	r := NewResourceRefcount(clocks)

	r.Acquire()
	r.Acquire()
	r.Release()
	if clocks.disabled != 0 {
		t.Fatalf("clocks should stay enabled with one holder left, got %d disables", clocks.disabled)
	}

	r.Release()
	if clocks.disabled != 1 {
		t.Fatalf("expected clocks disabled once, got %d", clocks.disabled)
	}
}

func TestResourceRefcountUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Release on an empty refcount to panic")
		}
	}()

	r := NewResourceRefcount(&fakeClocks{})
	r.Release()
}
