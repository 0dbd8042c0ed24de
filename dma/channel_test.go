// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dma

import (
	"testing"

	"github.com/stefanhoelzl/tock/mmio"
)

type fakeClient struct {
	done []Peripheral
}

func (f *fakeClient) XferDone(pid Peripheral) {
	f.done = append(f.done, pid)
}

func newTestChannel() (*Channel, *ResourceRefcount) {
	refcount := NewResourceRefcount(&fakeClocks{})
	regs := Registers{
		MAR: new(uint32), PSR: new(uint32), TCR: new(uint32),
		MARR: new(uint32), TCRR: new(uint32),
		CR:  mmio.NewRegister("CR", new(uint32)),
		MR:  mmio.NewRegister("MR", new(uint32)),
		SR:  new(uint32),
		IER: mmio.NewRegister("IER", new(uint32)),
		IDR: mmio.NewRegister("IDR", new(uint32)),
		IMR: new(uint32), ISR: new(uint32),
	}
	return NewChannel(0, regs, refcount), refcount
}

func TestChannelLifecycle(t *testing.T) {
	c, refcount := newTestChannel()
	client := &fakeClient{}

	if err := c.Initialize(client, Width8); err != nil {
		t.Fatal(err)
	}
	if c.State() != Disabled {
		t.Fatalf("expected Disabled, got %s", c.State())
	}

	c.Enable()
	if c.State() != Enabled {
		t.Fatalf("expected Enabled, got %s", c.State())
	}
	if refcount.Count() != 1 {
		t.Fatalf("expected refcount 1 after Enable, got %d", refcount.Count())
	}

	buf := make([]byte, 10)
	if err := c.Prepare(USART0_RX, buf, 10); err != nil {
		t.Fatal(err)
	}
	if c.State() != Prepared {
		t.Fatalf("expected Prepared, got %s", c.State())
	}

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	if c.State() != Active {
		t.Fatalf("expected Active, got %s", c.State())
	}

	c.HandleInterrupt()
	if c.State() != Completed {
		t.Fatalf("expected Completed, got %s", c.State())
	}
	if len(client.done) != 1 || client.done[0] != USART0_RX {
		t.Fatalf("expected one XferDone(USART0_RX), got %v", client.done)
	}

	got := c.Reclaim()
	if len(got) != 10 {
		t.Fatalf("expected reclaimed buffer of length 10, got %d", len(got))
	}
	if c.State() != Enabled {
		t.Fatalf("expected Enabled after Reclaim, got %s", c.State())
	}

	c.Disable()
	if c.State() != Disabled {
		t.Fatalf("expected Disabled, got %s", c.State())
	}
	if refcount.Count() != 0 {
		t.Fatalf("expected refcount 0 after Disable, got %d", refcount.Count())
	}
}

func TestChannelDoXferIsPrepareThenStart(t *testing.T) {
	c, _ := newTestChannel()
	c.Initialize(&fakeClient{}, Width8)
	c.Enable()

	buf := make([]byte, 4)
	if err := c.DoXfer(SPI_TX, buf, 4); err != nil {
		t.Fatal(err)
	}
	if c.State() != Active {
		t.Fatalf("expected Active, got %s", c.State())
	}
}

func TestChannelPrepareClampsLengthToWidth(t *testing.T) {
	c, _ := newTestChannel()
	c.Initialize(&fakeClient{}, Width16)
	c.Enable()

	buf := make([]byte, 100)
	if err := c.Prepare(USART0_RX, buf, 80); err != nil {
		t.Fatal(err)
	}

	if got, want := *c.registers.TCRR, uint32(50); got != want {
		t.Fatalf("expected clamp to 100/2=50 halfwords, got %d", got)
	}
}

func TestChannelPrepareRequiresEnabled(t *testing.T) {
	c, _ := newTestChannel()
	c.Initialize(&fakeClient{}, Width8)

	if err := c.Prepare(USART0_RX, make([]byte, 4), 4); err == nil {
		t.Fatal("expected an error preparing a Disabled channel")
	}
}

func TestChannelPrepareRejectsBufferAlreadyInFlight(t *testing.T) {
	c, _ := newTestChannel()
	c.Initialize(&fakeClient{}, Width8)
	c.Enable()

	if err := c.Prepare(USART0_RX, make([]byte, 4), 4); err != nil {
		t.Fatal(err)
	}
	if err := c.Prepare(USART0_RX, make([]byte, 4), 4); err == nil {
		t.Fatal("expected an error preparing a channel with a buffer already in flight")
	}
}

func TestChannelAbortReturnsBufferAndReenablesChannel(t *testing.T) {
	c, _ := newTestChannel()
	c.Initialize(&fakeClient{}, Width8)
	c.Enable()

	buf := make([]byte, 8)
	if err := c.DoXfer(USART0_RX, buf, 8); err != nil {
		t.Fatal(err)
	}

	got := c.Abort()
	if len(got) != 8 {
		t.Fatalf("expected aborted buffer of length 8, got %d", len(got))
	}
	if c.State() != Enabled {
		t.Fatalf("expected Enabled after Abort, got %s", c.State())
	}
	if *c.registers.TCR != 0 {
		t.Fatalf("expected TCR zeroed on abort, got %d", *c.registers.TCR)
	}
}

func TestChannelDisableWhileActiveAborts(t *testing.T) {
	c, refcount := newTestChannel()
	c.Initialize(&fakeClient{}, Width8)
	c.Enable()
	c.DoXfer(USART0_RX, make([]byte, 4), 4)

	c.Disable()
	if c.State() != Disabled {
		t.Fatalf("expected Disabled, got %s", c.State())
	}
	if refcount.Count() != 0 {
		t.Fatalf("expected refcount released, got %d", refcount.Count())
	}
}

func TestChannelTransferCounterReadsLiveRegister(t *testing.T) {
	c, _ := newTestChannel()
	*c.registers.TCR = 42

	if got := c.TransferCounter(); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestChannelStartRequiresPrepared(t *testing.T) {
	c, _ := newTestChannel()
	c.Initialize(&fakeClient{}, Width8)
	c.Enable()

	if err := c.Start(); err == nil {
		t.Fatal("expected an error starting a channel that was never Prepared")
	}
}
