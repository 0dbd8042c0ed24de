// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package crt0

import "testing"

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	h := Header{
		GotSymStart:  0x10,
		GotStart:     0,
		GotSize:      0x20,
		DataSymStart: 0x30,
		DataStart:    0x20,
		DataSize:     0x40,
		BssStart:     0x60,
		BssSize:      0x80,
		RelDataStart: 0x200,
		TextOffset:   0x50,
	}

	buf := h.Marshal()
	if len(buf) != Size {
		t.Fatalf("got %d bytes, want %d", len(buf), Size)
	}

	got, err := Unmarshal(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestMarshalIsLittleEndian(t *testing.T) {
	h := Header{GotSymStart: 0x01020304}
	buf := h.Marshal()

	if buf[0] != 0x04 || buf[1] != 0x03 || buf[2] != 0x02 || buf[3] != 0x01 {
		t.Fatalf("expected little-endian encoding, got % x", buf[:4])
	}
}

func TestUnmarshalTruncatedBuffer(t *testing.T) {
	if _, err := Unmarshal(make([]byte, Size-1)); err == nil {
		t.Fatal("expected an error unmarshaling a truncated crt0 header")
	}
}
