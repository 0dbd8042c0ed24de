// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loader

import (
	"encoding/binary"
	"fmt"

	"github.com/stefanhoelzl/tock/crt0"
	"github.com/stefanhoelzl/tock/kernel"
	"github.com/stefanhoelzl/tock/tbf"
)

// ramAlignment is the byte alignment every process's carved RAM region is
// rounded up to, matching Cortex-M's AAPCS 8-byte stack alignment.
const ramAlignment = 8

func alignUp(n, alignment uint32) uint32 {
	return (n + alignment - 1) &^ (alignment - 1)
}

// Load scans flash for a sequence of TBF application images and admits each
// valid, enabled one as a process, carving its RAM top-down out of arena.
// Processes beyond maxProcesses are silently ignored, per the format's
// "excess images are not an error" rule. defaultFault is the fault response
// assigned to every loaded process; the format has no per-image way to
// request a different one.
//
// The scan stops, without error, at the first image whose header reports an
// unsupported version, a zero total_size, or a size that does not fit in
// the flash or RAM remaining — all three are "this is not a loadable image"
// conditions, not failures of Load itself.
func Load(flash, arena []byte, maxProcesses int, defaultFault kernel.FaultResponse) ([]*kernel.Process, error) {
	var processes []*kernel.Process

	flashBase := uintptr(0)
	arenaBase := uintptr(0)
	arenaTop := uint32(len(arena))

	offset := uint32(0)
	for len(processes) < maxProcesses {
		if offset >= uint32(len(flash)) {
			break
		}

		header, ok := peekHeader(flash[offset:])
		if !ok {
			break
		}
		if header.TotalSize == 0 {
			break
		}
		if uint64(offset)+uint64(header.TotalSize) > uint64(len(flash)) {
			break
		}

		imageFlash := flash[offset : offset+header.TotalSize]
		nextOffset := offset + header.TotalSize

		if !header.Enabled() {
			offset = nextOffset
			continue
		}

		main, ok := header.Main()
		if !ok {
			break
		}

		requiredRAM := alignUp(main.MinimumRAM, ramAlignment)
		if requiredRAM > arenaTop {
			break
		}

		ramStart := arenaTop - requiredRAM
		ramRegion := arena[ramStart:arenaTop]

		imageFlashBase := flashBase + uintptr(offset)
		appStart := uintptr(header.HeaderSize) + uintptr(main.ProtectedSize)

		entryPC := imageFlashBase + appStart + uintptr(main.InitFnOffset)
		if header.HasCrt0Header() {
			var err error
			entryPC, err = applyRelocations(imageFlash, appStart, imageFlashBase, arenaBase+uintptr(ramStart), ramRegion, main)
			if err != nil {
				return nil, fmt.Errorf("loader: image at flash offset %d: %w", offset, err)
			}
		}

		p := kernel.NewProcess(
			len(processes),
			arenaBase+uintptr(ramStart),
			arenaBase+uintptr(arenaTop),
			arenaBase+uintptr(arenaTop),
			imageFlashBase,
			uintptr(header.TotalSize),
			entryPC,
			defaultFault,
		)
		processes = append(processes, p)

		arenaTop = ramStart
		offset = nextOffset
	}

	return processes, nil
}

// peekHeader decodes a TBF header at the start of buf, reporting false for
// any header this loader treats as "end of scan": a version mismatch (the
// format's only stand-in for an invalid-magic check, since the wire format
// carries no separate magic field) or a header that doesn't fit.
func peekHeader(buf []byte) (tbf.Header, bool) {
	if len(buf) < tbf.FixedHeaderSize {
		return tbf.Header{}, false
	}
	header, err := tbf.Unmarshal(buf)
	if err != nil {
		return tbf.Header{}, false
	}
	if header.Version != tbf.CurrentVersion {
		return tbf.Header{}, false
	}
	return header, true
}

// applyRelocations performs the crt0-described PIC fixups for one image:
// copying .data from flash to RAM, zeroing .bss, copying and relocating the
// GOT, and returns the process's entry PC.
func applyRelocations(imageFlash []byte, appStart, imageFlashBase, ramBase uintptr, ram []byte, main tbf.Main) (uintptr, error) {
	if int(appStart)+crt0.Size > len(imageFlash) {
		return 0, fmt.Errorf("crt0 header does not fit in image")
	}
	c, err := crt0.Unmarshal(imageFlash[appStart : int(appStart)+crt0.Size])
	if err != nil {
		return 0, err
	}

	if err := copySection(ram, c.DataStart, imageFlash, uintptr(appStart)+uintptr(c.DataSymStart), c.DataSize); err != nil {
		return 0, fmt.Errorf(".data: %w", err)
	}
	if err := zeroSection(ram, c.BssStart, c.BssSize); err != nil {
		return 0, fmt.Errorf(".bss: %w", err)
	}
	if err := copySection(ram, c.GotStart, imageFlash, uintptr(appStart)+uintptr(c.GotSymStart), c.GotSize); err != nil {
		return 0, fmt.Errorf(".got: %w", err)
	}

	relDataStart := uintptr(appStart) + uintptr(c.RelDataStart)
	if relDataStart > uintptr(len(imageFlash)) {
		return 0, fmt.Errorf("rel.data offset out of range")
	}
	relocations, err := DecodeRelData(imageFlash[relDataStart:])
	if err != nil {
		return 0, err
	}

	for _, r := range relocations {
		slot := c.GotStart + r.Offset
		if uint64(slot)+4 > uint64(len(ram)) {
			return 0, fmt.Errorf("relocation offset %d out of range of .got", r.Offset)
		}
		value := binary.LittleEndian.Uint32(ram[slot : slot+4])
		switch r.Kind {
		case RelocateFlash:
			value += uint32(imageFlashBase)
		case RelocateRAM:
			value += uint32(ramBase)
		default:
			return 0, fmt.Errorf("unknown relocation kind %d", r.Kind)
		}
		binary.LittleEndian.PutUint32(ram[slot:slot+4], value)
	}

	return imageFlashBase + appStart + uintptr(main.InitFnOffset), nil
}

func copySection(ram []byte, ramOffset uint32, flash []byte, flashOffset uintptr, size uint32) error {
	if size == 0 {
		return nil
	}
	if uint64(ramOffset)+uint64(size) > uint64(len(ram)) {
		return fmt.Errorf("destination out of range")
	}
	if uint64(flashOffset)+uint64(size) > uint64(len(flash)) {
		return fmt.Errorf("source out of range")
	}
	copy(ram[ramOffset:uint64(ramOffset)+uint64(size)], flash[flashOffset:uint64(flashOffset)+uint64(size)])
	return nil
}

func zeroSection(ram []byte, ramOffset, size uint32) error {
	if size == 0 {
		return nil
	}
	if uint64(ramOffset)+uint64(size) > uint64(len(ram)) {
		return fmt.Errorf("destination out of range")
	}
	section := ram[ramOffset : uint64(ramOffset)+uint64(size)]
	for i := range section {
		section[i] = 0
	}
	return nil
}
