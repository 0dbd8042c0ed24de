// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package loader implements ProcessLoader: scanning a flash region for TBF
// application images, carving each process's RAM out of a shared arena,
// and performing the PIC fixups (.data copy, .bss zero, GOT relocation)
// a crt0 header describes.
package loader

import (
	"encoding/binary"
	"fmt"
)

// RelocationKind says which base address a GOT relocation entry's stored
// word is relative to.
type RelocationKind uint32

const (
	RelocateFlash RelocationKind = iota
	RelocateRAM
)

// Relocation is one .rel.data record: the byte offset (from the start of
// the .got section) of a u32 slot whose stored value is an unrelocated
// offset that must be rebased by adding the image's real flash or RAM base
// address once it is known.
type Relocation struct {
	Offset uint32
	Kind   RelocationKind
}

const relocationSize = 8 // u32 offset + u32 kind

// DecodeRelData parses the .rel.data section image builder layout: a u32 LE
// length prefix followed by that many bytes of 8-byte relocation records.
func DecodeRelData(buf []byte) ([]Relocation, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("loader: rel.data section shorter than its length prefix")
	}
	length := binary.LittleEndian.Uint32(buf[0:4])
	body := buf[4:]
	if uint32(len(body)) < length {
		return nil, fmt.Errorf("loader: rel.data declares %d bytes, only %d available", length, len(body))
	}
	body = body[:length]

	if len(body)%relocationSize != 0 {
		return nil, fmt.Errorf("loader: rel.data length %d is not a multiple of %d", len(body), relocationSize)
	}

	relocations := make([]Relocation, 0, len(body)/relocationSize)
	for i := 0; i < len(body); i += relocationSize {
		relocations = append(relocations, Relocation{
			Offset: binary.LittleEndian.Uint32(body[i : i+4]),
			Kind:   RelocationKind(binary.LittleEndian.Uint32(body[i+4 : i+8])),
		})
	}
	return relocations, nil
}

// EncodeRelData is DecodeRelData's inverse, used by the image builder to
// emit the .rel.data section.
func EncodeRelData(relocations []Relocation) []byte {
	body := make([]byte, len(relocations)*relocationSize)
	for i, r := range relocations {
		binary.LittleEndian.PutUint32(body[i*relocationSize:], r.Offset)
		binary.LittleEndian.PutUint32(body[i*relocationSize+4:], uint32(r.Kind))
	}

	buf := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(body)))
	copy(buf[4:], body)
	return buf
}
