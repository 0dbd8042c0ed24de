// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package tbf encodes and decodes Tock Binary Format application headers:
// the packed, little-endian, fixed-field prefix plus a variable-length TLV
// tail describing an application image resident in flash.
package tbf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// FixedHeaderSize is the size of the fixed-field prefix, before the TLV
// tail begins.
const FixedHeaderSize = 16

// CurrentVersion is the header version this package reads and writes.
const CurrentVersion = 2

// FlagEnabled marks bit 0 of Flags: whether the loader should admit this
// image as a running process at all.
const FlagEnabled = 1 << 0

// FlagHasCrt0 marks bit 1 of Flags: whether a crt0 PIC bootstrap header
// immediately follows this TBF header (after any Main.ProtectedSize bytes).
// The wire format gives no other way to tell a PIC image from a
// fixed-address one, so the loader keys its relocation pass off this bit.
const FlagHasCrt0 = 1 << 1

// Header is a parsed TBF header: the fixed prefix plus its decoded TLV
// entries.
type Header struct {
	Version    uint16
	HeaderSize uint16
	TotalSize  uint32
	Flags      uint32
	Checksum   uint32
	TLVs       []TLV
}

// Enabled reports whether FlagEnabled is set.
func (h Header) Enabled() bool {
	return h.Flags&FlagEnabled != 0
}

// HasCrt0Header reports whether FlagHasCrt0 is set.
func (h Header) HasCrt0Header() bool {
	return h.Flags&FlagHasCrt0 != 0
}

// PackageName returns the decoded package-name TLV's value, or "" if the
// header carries none.
func (h Header) PackageName() string {
	for _, t := range h.TLVs {
		if name, ok := t.Value.(PackageName); ok {
			return string(name)
		}
	}
	return ""
}

// Main returns the header's Main TLV, the entry-point/memory-sizing
// record every valid application image must carry.
func (h Header) Main() (Main, bool) {
	for _, t := range h.TLVs {
		if m, ok := t.Value.(Main); ok {
			return m, true
		}
	}
	return Main{}, false
}

// WriteableFlashRegions returns every writeable-flash-region TLV in the
// header, in header order.
func (h Header) WriteableFlashRegions() []WriteableFlashRegion {
	var regions []WriteableFlashRegion
	for _, t := range h.TLVs {
		if r, ok := t.Value.(WriteableFlashRegion); ok {
			regions = append(regions, r)
		}
	}
	return regions
}

// AppState returns the header's app-state TLV, if any.
func (h Header) AppState() (AppState, bool) {
	for _, t := range h.TLVs {
		if a, ok := t.Value.(AppState); ok {
			return a, true
		}
	}
	return AppState{}, false
}

// FixedAddress returns the header's fixed-address TLV, if any.
func (h Header) FixedAddress() (FixedAddress, bool) {
	for _, t := range h.TLVs {
		if a, ok := t.Value.(FixedAddress); ok {
			return a, true
		}
	}
	return FixedAddress{}, false
}

// Marshal encodes h, computing HeaderSize and Checksum from its current
// contents and padding the TLV tail to 4-byte alignment.
func (h Header) Marshal() ([]byte, error) {
	var tail bytes.Buffer
	for _, t := range h.TLVs {
		encoded, err := t.marshal()
		if err != nil {
			return nil, err
		}
		tail.Write(encoded)
	}
	for tail.Len()%4 != 0 {
		tail.WriteByte(0)
	}

	headerSize := FixedHeaderSize + tail.Len()
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.Version)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(headerSize))
	binary.LittleEndian.PutUint32(buf[4:8], h.TotalSize)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	// buf[12:16] (checksum) stays zero while computing the checksum itself.
	copy(buf[16:], tail.Bytes())

	binary.LittleEndian.PutUint32(buf[12:16], checksum(buf))
	return buf, nil
}

// checksum XORs the little-endian u32 words preceding the checksum field
// itself: word 0 (version packed with header_size), word 1 (total_size),
// word 2 (flags). The TLV tail is not covered — the checksum only ever
// needs to catch corruption of the three fixed words the loader reads
// before it even looks at the tail.
func checksum(buf []byte) uint32 {
	var sum uint32
	for i := 0; i+4 <= 12 && i+4 <= len(buf); i += 4 {
		sum ^= binary.LittleEndian.Uint32(buf[i : i+4])
	}
	return sum
}

// Unmarshal decodes a TBF header from the start of buf. It does not
// require buf to be trimmed to HeaderSize; only HeaderSize bytes of it are
// consumed. The checksum is decoded into Header.Checksum but not verified;
// callers that care can check it with VerifyChecksum. The loader does not.
func Unmarshal(buf []byte) (Header, error) {
	if len(buf) < FixedHeaderSize {
		return Header{}, io.ErrUnexpectedEOF
	}

	h := Header{
		Version:    binary.LittleEndian.Uint16(buf[0:2]),
		HeaderSize: binary.LittleEndian.Uint16(buf[2:4]),
		TotalSize:  binary.LittleEndian.Uint32(buf[4:8]),
		Flags:      binary.LittleEndian.Uint32(buf[8:12]),
		Checksum:   binary.LittleEndian.Uint32(buf[12:16]),
	}

	if h.HeaderSize < FixedHeaderSize {
		return Header{}, fmt.Errorf("tbf: header_size %d is smaller than the fixed prefix", h.HeaderSize)
	}
	if int(h.HeaderSize) > len(buf) {
		return Header{}, fmt.Errorf("tbf: header_size %d exceeds available %d bytes", h.HeaderSize, len(buf))
	}

	tail := buf[FixedHeaderSize:h.HeaderSize]
	for len(tail) >= 4 {
		entryType := binary.LittleEndian.Uint16(tail[0:2])
		length := binary.LittleEndian.Uint16(tail[2:4])
		if int(length)+4 > len(tail) {
			return Header{}, fmt.Errorf("tbf: TLV type %d length %d overruns header tail", entryType, length)
		}
		value := tail[4 : 4+length]

		tlv, err := unmarshalTLV(entryType, value)
		if err != nil {
			return Header{}, err
		}
		h.TLVs = append(h.TLVs, tlv)

		tail = tail[4+length:]
	}

	return h, nil
}

// VerifyChecksum reports whether h's recorded checksum matches one
// recomputed over its re-marshaled bytes.
func (h Header) VerifyChecksum() bool {
	withoutChecksum := h
	withoutChecksum.Checksum = 0
	buf, err := withoutChecksum.Marshal()
	if err != nil {
		return false
	}
	return checksum(buf) == h.Checksum
}

// String renders a verbose, tabular dump of the header for -v output.
func (h Header) String() string {
	out := fmt.Sprintf(`
    TBF Header:
               version: %8d
           header_size: %8d
            total_size: %8d %#10x
                 flags: %8d %#10x (enabled=%v)
              checksum: %8d %#10x
`,
		h.Version, h.HeaderSize,
		h.TotalSize, h.TotalSize,
		h.Flags, h.Flags, h.Enabled(),
		h.Checksum, h.Checksum,
	)
	for _, t := range h.TLVs {
		out += t.String()
	}
	return out
}
