// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmio

import (
	"fmt"
	"time"

	"github.com/stefanhoelzl/tock/cpu"
	"github.com/stefanhoelzl/tock/internal/bits"
)

// Register is a single memory-mapped register addressed by a raw pointer to
// its 32-bit word. Binding that pointer to a real peripheral base address
// (via unsafe.Pointer on the target) is board bring-up and out of this
// package's scope; tests bind it to an ordinary Go word instead, which is
// what makes the field semantics here host-testable.
type Register struct {
	Name string
	word *uint32
}

// NewRegister wraps word, the backing storage for the register, as a named
// mmio.Register.
func NewRegister(name string, word *uint32) *Register {
	return &Register{Name: name, word: word}
}

// Read returns the value of field, subject to its access class.
func (r *Register) Read(field Field) (uint32, error) {
	if !field.Access.allowsRead() {
		return 0, fmt.Errorf("mmio: %s.%s is %s, cannot be read", r.Name, field.Name, field.Access)
	}
	return bits.Get(r.word, int(field.Shift), int(field.mask())), nil
}

// IsSet reports whether a single-bit field is set.
func (r *Register) IsSet(field Field) (bool, error) {
	v, err := r.Read(field)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Write performs a composite write of one or more fields: bits not covered
// by any of values are zeroed, matching spec §4.1's "unspecified bits
// zeroed" semantics.
func (r *Register) Write(values ...FieldValue) error {
	for _, fv := range values {
		if !fv.Field.Access.allowsWrite() {
			return fmt.Errorf("mmio: %s.%s is %s, cannot be written", r.Name, fv.Field.Name, fv.Field.Access)
		}
	}

	cpu.CriticalSection(func() {
		*r.word = 0
		for _, fv := range values {
			bits.SetN(r.word, int(fv.Field.Shift), int(fv.Field.mask()), fv.Raw)
		}
	})

	return nil
}

// Wait blocks until field reads value, subject to its access class. Used to
// poll a status field (e.g. a "transfer complete" bit) when no interrupt is
// available to signal the transition.
func (r *Register) Wait(field Field, value uint32) error {
	if !field.Access.allowsRead() {
		return fmt.Errorf("mmio: %s.%s is %s, cannot be read", r.Name, field.Name, field.Access)
	}
	bits.Wait(r.word, int(field.Shift), int(field.mask()), value)
	return nil
}

// WaitFor is like Wait but gives up after timeout, reporting false if field
// never read value in time.
func (r *Register) WaitFor(timeout time.Duration, field Field, value uint32) (bool, error) {
	if !field.Access.allowsRead() {
		return false, fmt.Errorf("mmio: %s.%s is %s, cannot be read", r.Name, field.Name, field.Access)
	}
	return bits.WaitFor(timeout, r.word, int(field.Shift), int(field.mask()), value), nil
}

// Modify performs a read-modify-write of one or more fields, preserving all
// bits not covered by any of values.
func (r *Register) Modify(values ...FieldValue) error {
	for _, fv := range values {
		if !fv.Field.Access.allowsWrite() {
			return fmt.Errorf("mmio: %s.%s is %s, cannot be written", r.Name, fv.Field.Name, fv.Field.Access)
		}
	}

	cpu.CriticalSection(func() {
		for _, fv := range values {
			bits.SetN(r.word, int(fv.Field.Shift), int(fv.Field.mask()), fv.Raw)
		}
	})

	return nil
}
