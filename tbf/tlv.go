// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package tbf

import (
	"encoding/binary"
	"fmt"
)

// TLVType tags a header tail entry's shape.
type TLVType uint16

const (
	TLVTypeMain                 TLVType = 1
	TLVTypeWriteableFlashRegion TLVType = 2
	TLVTypePackageName          TLVType = 3
	TLVTypeFixedAddress         TLVType = 4
	TLVTypeAppState             TLVType = 5
)

func (t TLVType) String() string {
	switch t {
	case TLVTypeMain:
		return "Main"
	case TLVTypeWriteableFlashRegion:
		return "WriteableFlashRegion"
	case TLVTypePackageName:
		return "PackageName"
	case TLVTypeFixedAddress:
		return "FixedAddress"
	case TLVTypeAppState:
		return "AppState"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(t))
	}
}

// TLV is one decoded entry from a header's tail: its type tag and the
// typed value recorded under Value (one of Main, WriteableFlashRegion,
// PackageName, FixedAddress, AppState, or RawTLV for an unrecognized type).
type TLV struct {
	Type  TLVType
	Value any
}

// RawTLV preserves an unrecognized TLV entry's bytes verbatim, so decoding
// a header carrying a type this package doesn't know never loses data.
type RawTLV []byte

// Main is the TLV every valid application image carries: where execution
// starts and how much of the image/RAM is reserved.
type Main struct {
	InitFnOffset  uint32
	ProtectedSize uint32
	MinimumRAM    uint32
}

// WriteableFlashRegion marks a sub-range of the image the process may
// write to persistently (e.g. its own flash-resident state).
type WriteableFlashRegion struct {
	Offset uint32
	Size   uint32
}

// PackageName is a UTF-8, NUL-free human-readable name for the image.
type PackageName string

// FixedAddress pins a process to specific RAM and flash addresses, for
// images that are not position-independent.
type FixedAddress struct {
	RAM   uint32
	Flash uint32
}

// AppState records the offset and size of the image's writable persistent
// state region.
type AppState struct {
	Offset uint32
	Size   uint32
}

func unmarshalTLV(t uint16, value []byte) (TLV, error) {
	typ := TLVType(t)
	switch typ {
	case TLVTypeMain:
		if len(value) != 12 {
			return TLV{}, fmt.Errorf("tbf: Main TLV must be 12 bytes, got %d", len(value))
		}
		return TLV{Type: typ, Value: Main{
			InitFnOffset:  binary.LittleEndian.Uint32(value[0:4]),
			ProtectedSize: binary.LittleEndian.Uint32(value[4:8]),
			MinimumRAM:    binary.LittleEndian.Uint32(value[8:12]),
		}}, nil
	case TLVTypeWriteableFlashRegion:
		if len(value) != 8 {
			return TLV{}, fmt.Errorf("tbf: WriteableFlashRegion TLV must be 8 bytes, got %d", len(value))
		}
		return TLV{Type: typ, Value: WriteableFlashRegion{
			Offset: binary.LittleEndian.Uint32(value[0:4]),
			Size:   binary.LittleEndian.Uint32(value[4:8]),
		}}, nil
	case TLVTypePackageName:
		return TLV{Type: typ, Value: PackageName(value)}, nil
	case TLVTypeFixedAddress:
		if len(value) != 8 {
			return TLV{}, fmt.Errorf("tbf: FixedAddress TLV must be 8 bytes, got %d", len(value))
		}
		return TLV{Type: typ, Value: FixedAddress{
			RAM:   binary.LittleEndian.Uint32(value[0:4]),
			Flash: binary.LittleEndian.Uint32(value[4:8]),
		}}, nil
	case TLVTypeAppState:
		if len(value) != 8 {
			return TLV{}, fmt.Errorf("tbf: AppState TLV must be 8 bytes, got %d", len(value))
		}
		return TLV{Type: typ, Value: AppState{
			Offset: binary.LittleEndian.Uint32(value[0:4]),
			Size:   binary.LittleEndian.Uint32(value[4:8]),
		}}, nil
	default:
		raw := make(RawTLV, len(value))
		copy(raw, value)
		return TLV{Type: typ, Value: raw}, nil
	}
}

func (t TLV) marshal() ([]byte, error) {
	var value []byte
	switch v := t.Value.(type) {
	case Main:
		value = make([]byte, 12)
		binary.LittleEndian.PutUint32(value[0:4], v.InitFnOffset)
		binary.LittleEndian.PutUint32(value[4:8], v.ProtectedSize)
		binary.LittleEndian.PutUint32(value[8:12], v.MinimumRAM)
	case WriteableFlashRegion:
		value = make([]byte, 8)
		binary.LittleEndian.PutUint32(value[0:4], v.Offset)
		binary.LittleEndian.PutUint32(value[4:8], v.Size)
	case PackageName:
		value = []byte(v)
	case FixedAddress:
		value = make([]byte, 8)
		binary.LittleEndian.PutUint32(value[0:4], v.RAM)
		binary.LittleEndian.PutUint32(value[4:8], v.Flash)
	case AppState:
		value = make([]byte, 8)
		binary.LittleEndian.PutUint32(value[0:4], v.Offset)
		binary.LittleEndian.PutUint32(value[4:8], v.Size)
	case RawTLV:
		value = []byte(v)
	default:
		return nil, fmt.Errorf("tbf: unmarshalable TLV value type %T", t.Value)
	}

	if len(value) > 0xffff {
		return nil, fmt.Errorf("tbf: TLV value too large: %d bytes", len(value))
	}

	buf := make([]byte, 4+len(value))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(t.Type))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(value)))
	copy(buf[4:], value)
	return buf, nil
}

func (t TLV) String() string {
	switch v := t.Value.(type) {
	case Main:
		return fmt.Sprintf(`        Main TLV:
        init_fn_offset: %8d %#10x
         protected_size: %7d %#10x
           minimum_ram: %8d %#10x
`, v.InitFnOffset, v.InitFnOffset, v.ProtectedSize, v.ProtectedSize, v.MinimumRAM, v.MinimumRAM)
	case PackageName:
		return fmt.Sprintf("        PackageName: %q\n", string(v))
	case WriteableFlashRegion:
		return fmt.Sprintf("        WriteableFlashRegion: offset=%#x size=%#x\n", v.Offset, v.Size)
	case FixedAddress:
		return fmt.Sprintf("        FixedAddress: ram=%#x flash=%#x\n", v.RAM, v.Flash)
	case AppState:
		return fmt.Sprintf("        AppState: offset=%#x size=%#x\n", v.Offset, v.Size)
	default:
		return fmt.Sprintf("        %s (unrecognized, %d bytes)\n", t.Type, len(v.(RawTLV)))
	}
}
