// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// tbfgen converts a relocatable ELF object file into a Tock Binary Format
// application image: a TBF header, an optional crt0 PIC bootstrap header,
// and the object's .app_state/.text/.got/.data/.rel.data sections laid out
// contiguously and padded to a power-of-two size.
package main

import (
	"debug/elf"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/stefanhoelzl/tock/crt0"
	"github.com/stefanhoelzl/tock/loader"
	"github.com/stefanhoelzl/tock/tbf"
)

type options struct {
	input       string
	output      string
	packageName string
	stack       uint
	appHeap     uint
	kernelHeap  uint
	includeCrt0 bool
	verbose     bool
}

func parseArgs(args []string) (options, error) {
	fs := flag.NewFlagSet("tbfgen", flag.ContinueOnError)
	output := fs.String("o", "", "set output file name (required)")
	name := fs.String("n", "", "set package name")
	stack := fs.Uint("stack", 0, "set stack size in bytes (required)")
	appHeap := fs.Uint("app-heap", 0, "set app heap size in bytes (required)")
	kernelHeap := fs.Uint("kernel-heap", 0, "set kernel heap size in bytes (required)")
	crt0Header := fs.Bool("crt0-header", false, "include crt0 header for PIC fixups")
	verbose := fs.Bool("v", false, "be verbose")

	var stackSet, appHeapSet, kernelHeapSet, outputSet bool
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			outputSet = true
		case "stack":
			stackSet = true
		case "app-heap":
			appHeapSet = true
		case "kernel-heap":
			kernelHeapSet = true
		}
	})
	if !outputSet {
		return options{}, errors.New("missing required flag -o")
	}
	if !stackSet {
		return options{}, errors.New("missing required flag -stack")
	}
	if !appHeapSet {
		return options{}, errors.New("missing required flag -app-heap")
	}
	if !kernelHeapSet {
		return options{}, errors.New("missing required flag -kernel-heap")
	}

	if fs.NArg() != 1 {
		return options{}, errors.New("specify exactly one input ELF file")
	}

	return options{
		input:       fs.Arg(0),
		output:      *output,
		packageName: *name,
		stack:       *stack,
		appHeap:     *appHeap,
		kernelHeap:  *kernelHeap,
		includeCrt0: *crt0Header,
		verbose:     *verbose,
	}, nil
}

func getSection(f *elf.File, name string) *elf.Section {
	if s := f.Section(name); s != nil {
		return s
	}
	return &elf.Section{SectionHeader: elf.SectionHeader{Name: name}}
}

func sectionData(s *elf.Section) []byte {
	if s.Type == elf.SHT_NOBITS || s.Size == 0 {
		return nil
	}
	data, err := s.Data()
	if err != nil {
		return nil
	}
	return data
}

func pad4(n int) int {
	if rem := n % 4; rem != 0 {
		return 4 - rem
	}
	return 0
}

func mainImpl() error {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		return err
	}

	f, err := elf.Open(opts.input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", opts.input, err)
	}
	defer f.Close()

	relDataSection := f.Section(".rel.data")
	var relData []byte
	if relDataSection != nil {
		relData, err = relDataSection.Data()
		if err != nil {
			return fmt.Errorf("reading .rel.data: %w", err)
		}
	}

	text := getSection(f, ".text")
	got := getSection(f, ".got")
	data := getSection(f, ".data")
	bss := getSection(f, ".bss")
	appstate := getSection(f, ".app_state")

	textData := sectionData(text)
	gotData := sectionData(got)
	dataData := sectionData(data)
	appstateData := sectionData(appstate)

	gotSize := uint32(got.Size)
	dataSize := uint32(data.Size)
	bssSize := uint32(bss.Size)

	minimumRAM := uint32(opts.stack) + uint32(opts.appHeap) + uint32(opts.kernelHeap) + gotSize + dataSize + bssSize

	flags := uint32(tbf.FlagEnabled)
	if opts.includeCrt0 {
		flags |= tbf.FlagHasCrt0
	}

	header := tbf.Header{
		Version: tbf.CurrentVersion,
		Flags:   flags,
		TLVs: []tbf.TLV{
			{Type: tbf.TLVTypeMain, Value: tbf.Main{MinimumRAM: minimumRAM}},
		},
	}
	if opts.packageName != "" {
		header.TLVs = append(header.TLVs, tbf.TLV{Type: tbf.TLVTypePackageName, Value: tbf.PackageName(opts.packageName)})
	}
	hasAppState := len(appstateData) > 0
	if hasAppState {
		header.TLVs = append(header.TLVs, tbf.TLV{Type: tbf.TLVTypeAppState, Value: tbf.AppState{}})
	}

	headerBuf, err := header.Marshal()
	if err != nil {
		return fmt.Errorf("building header: %w", err)
	}

	binaryIndex := uint32(len(headerBuf))
	appStart := binaryIndex
	if opts.includeCrt0 {
		binaryIndex += crt0.Size
	}

	appstateOffset := binaryIndex
	appstatePad := pad4(len(appstateData))
	binaryIndex += uint32(len(appstateData) + appstatePad)

	textOffset := binaryIndex
	textPad := pad4(len(textData))
	binaryIndex += uint32(len(textData) + textPad)

	gotOffset := binaryIndex
	gotPad := pad4(len(gotData))
	binaryIndex += uint32(len(gotData) + gotPad)

	dataOffset := binaryIndex
	dataPad := pad4(len(dataData))
	binaryIndex += uint32(len(dataData) + dataPad)

	relDataOffset := binaryIndex
	relDataPad := pad4(len(relData))
	binaryIndex += uint32(len(relData)) + uint32(relDataPad) + 4

	totalSize := nextPowerOfTwoAtLeast512(binaryIndex)

	initFnOffset := uint32(0)
	if f.Entry >= text.Addr {
		initFnOffset = uint32(f.Entry-text.Addr) + (textOffset - appStart)
	}

	for i, t := range header.TLVs {
		if t.Type == tbf.TLVTypeMain {
			header.TLVs[i].Value = tbf.Main{
				InitFnOffset:  initFnOffset,
				ProtectedSize: 0,
				MinimumRAM:    minimumRAM,
			}
		}
		if t.Type == tbf.TLVTypeAppState {
			header.TLVs[i].Value = tbf.AppState{Offset: appstateOffset, Size: uint32(len(appstateData))}
		}
	}
	header.TotalSize = totalSize
	headerBuf, err = header.Marshal()
	if err != nil {
		return fmt.Errorf("finalizing header: %w", err)
	}
	if uint32(len(headerBuf)) != appStart {
		return fmt.Errorf("internal error: header size changed between passes (%d != %d)", len(headerBuf), appStart)
	}

	var crtHeader crt0.Header
	if opts.includeCrt0 {
		crtHeader = crt0.Header{
			GotSymStart:  gotOffset - appStart,
			GotStart:     0,
			GotSize:      gotSize,
			DataSymStart: dataOffset - appStart,
			DataStart:    gotSize,
			DataSize:     dataSize,
			BssStart:     gotSize + dataSize,
			BssSize:      bssSize,
			RelDataStart: relDataOffset - appStart,
			TextOffset:   textOffset - appStart,
		}
	}

	if opts.verbose {
		fmt.Print(header.String())
		if opts.includeCrt0 {
			fmt.Print(crtHeader.String())
		}
	}

	out, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", opts.output, err)
	}
	defer out.Close()

	image := make([]byte, 0, totalSize)
	image = append(image, headerBuf...)
	if opts.includeCrt0 {
		image = append(image, crtHeader.Marshal()...)
	}
	image = append(image, appstateData...)
	image = append(image, make([]byte, appstatePad)...)
	image = append(image, textData...)
	image = append(image, make([]byte, textPad)...)
	image = append(image, gotData...)
	image = append(image, make([]byte, gotPad)...)
	image = append(image, dataData...)
	image = append(image, make([]byte, dataPad)...)
	image = append(image, loader.EncodeRelData(decodeElfRelData(relData))...)
	image = append(image, make([]byte, int(totalSize)-len(image))...)

	if _, err := out.Write(image); err != nil {
		return fmt.Errorf("writing %s: %w", opts.output, err)
	}
	return nil
}

// decodeElfRelData reinterprets the object file's raw .rel.data bytes (ARM
// ELF32 relocation records) as the simplified (offset, kind) table the
// loader expects: every entry rebases by the RAM base, matching this tool's
// target use case of rebasing a PIC app's own .data-relative pointers.
// r_info is not consulted, so every complete record becomes a RAM
// relocation; a trailing partial record is ignored.
func decodeElfRelData(raw []byte) []loader.Relocation {
	const elf32RelSize = 8 // r_offset u32, r_info u32
	var relocations []loader.Relocation
	for i := 0; i+elf32RelSize <= len(raw); i += elf32RelSize {
		offset := leUint32(raw[i : i+4])
		relocations = append(relocations, loader.Relocation{Offset: offset, Kind: loader.RelocateRAM})
	}
	return relocations
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func nextPowerOfTwoAtLeast512(n uint32) uint32 {
	size := uint32(512)
	for size < n {
		size <<= 1
	}
	return size
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "tbfgen: %s.\n", err)
		os.Exit(1)
	}
}
