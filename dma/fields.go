// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dma

import "github.com/stefanhoelzl/tock/mmio"

// Control register fields (CR): write-only, one-shot command bits.
var (
	crTENField  = mmio.Field{Name: "TEN", Shift: 0, Width: 1, Access: mmio.WriteOnly}
	crTDISField = mmio.Field{Name: "TDIS", Shift: 1, Width: 1, Access: mmio.WriteOnly}
)

// Mode register field (MR): the transfer unit width, write-only.
var mrSizeField = mmio.Field{Name: "SIZE", Shift: 0, Width: 2, Access: mmio.WriteOnly}

// Interrupt enable/disable register fields (IER/IDR): the same three
// interrupt sources, each register only ever written as a mask.
var (
	irqRCZField  = mmio.Field{Name: "RCZ", Shift: 0, Width: 1, Access: mmio.WriteOnly}
	irqTRCField  = mmio.Field{Name: "TRC", Shift: 1, Width: 1, Access: mmio.WriteOnly}
	irqTERRField = mmio.Field{Name: "TERR", Shift: 2, Width: 1, Access: mmio.WriteOnly}
)
