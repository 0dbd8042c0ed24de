// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package crt0 encodes and decodes the optional position-independent-code
// bootstrap header an application image carries immediately after its TBF
// header, describing how the runtime's startup code relocates the GOT and
// copies .data/.bss into RAM.
package crt0

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Size is the header's fixed on-flash size: ten little-endian u32 fields.
const Size = 40

// Header is the ten-field PIC bootstrap header. Flash offsets are relative
// to app_start (the first byte of the app-visible region); RAM offsets are
// relative to the start of the process's RAM region.
type Header struct {
	GotSymStart   uint32 // offset of GOT symbols in flash
	GotStart      uint32 // offset of GOT section in RAM
	GotSize       uint32
	DataSymStart  uint32 // offset of data symbols in flash
	DataStart     uint32 // offset of data section in RAM
	DataSize      uint32
	BssStart      uint32 // offset of BSS section in RAM
	BssSize       uint32
	RelDataStart  uint32 // offset of .rel.data in flash
	TextOffset    uint32 // offset of .text in flash
}

// Marshal encodes h into its 40-byte on-flash representation.
func (h Header) Marshal() []byte {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint32(buf[0:4], h.GotSymStart)
	binary.LittleEndian.PutUint32(buf[4:8], h.GotStart)
	binary.LittleEndian.PutUint32(buf[8:12], h.GotSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.DataSymStart)
	binary.LittleEndian.PutUint32(buf[16:20], h.DataStart)
	binary.LittleEndian.PutUint32(buf[20:24], h.DataSize)
	binary.LittleEndian.PutUint32(buf[24:28], h.BssStart)
	binary.LittleEndian.PutUint32(buf[28:32], h.BssSize)
	binary.LittleEndian.PutUint32(buf[32:36], h.RelDataStart)
	binary.LittleEndian.PutUint32(buf[36:40], h.TextOffset)
	return buf
}

// Unmarshal decodes a 40-byte crt0 header from buf.
func Unmarshal(buf []byte) (Header, error) {
	if len(buf) < Size {
		return Header{}, io.ErrUnexpectedEOF
	}
	return Header{
		GotSymStart:  binary.LittleEndian.Uint32(buf[0:4]),
		GotStart:     binary.LittleEndian.Uint32(buf[4:8]),
		GotSize:      binary.LittleEndian.Uint32(buf[8:12]),
		DataSymStart: binary.LittleEndian.Uint32(buf[12:16]),
		DataStart:    binary.LittleEndian.Uint32(buf[16:20]),
		DataSize:     binary.LittleEndian.Uint32(buf[20:24]),
		BssStart:     binary.LittleEndian.Uint32(buf[24:28]),
		BssSize:      binary.LittleEndian.Uint32(buf[28:32]),
		RelDataStart: binary.LittleEndian.Uint32(buf[32:36]),
		TextOffset:   binary.LittleEndian.Uint32(buf[36:40]),
	}, nil
}

// String renders a verbose, tabular dump of the header for -v output,
// matching the original tool's decimal-then-hex column layout.
func (h Header) String() string {
	return fmt.Sprintf(`
    crt0 Header:
         got_sym_start: %8d %#10x
             got_start: %8d %#10x
              got_size: %8d %#10x
        data_sym_start: %8d %#10x
            data_start: %8d %#10x
             data_size: %8d %#10x
             bss_start: %8d %#10x
              bss_size: %8d %#10x
         reldata_start: %8d %#10x
           text_offset: %8d %#10x
`,
		h.GotSymStart, h.GotSymStart,
		h.GotStart, h.GotStart,
		h.GotSize, h.GotSize,
		h.DataSymStart, h.DataSymStart,
		h.DataStart, h.DataStart,
		h.DataSize, h.DataSize,
		h.BssStart, h.BssStart,
		h.BssSize, h.BssSize,
		h.RelDataStart, h.RelDataStart,
		h.TextOffset, h.TextOffset,
	)
}
