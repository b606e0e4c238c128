// Package loader reads the code of ELF binaries for disassembly.
package loader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/sarchlab/vdt/bitvec"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment is a loadable segment of an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address the segment is loaded at.
	VirtAddr uint64
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint64
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Image is the loadable content of an ELF binary of any machine.
type Image struct {
	EntryPoint uint64
	Machine    elf.Machine
	Class      elf.Class
	// ByteOrder is the order instruction words are stored in.
	ByteOrder bitvec.ByteOrder
	Segments  []Segment
}

// Code returns the executable segments in file order.
func (img *Image) Code() []Segment {
	var code []Segment
	for _, seg := range img.Segments {
		if seg.Flags&SegmentFlagExecute != 0 {
			code = append(code, seg)
		}
	}
	return code
}

// Load opens the ELF file at path and reads its PT_LOAD segments.
func Load(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return read(f)
}

// Read parses an ELF binary from r.
func Read(r io.ReaderAt) (*Image, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	return read(f)
}

func read(f *elf.File) (*Image, error) {
	img := &Image{
		EntryPoint: f.Entry,
		Machine:    f.Machine,
		Class:      f.Class,
	}

	switch f.Data {
	case elf.ELFDATA2LSB:
		img.ByteOrder = bitvec.LittleEndian
	case elf.ELFDATA2MSB:
		img.ByteOrder = bitvec.BigEndian
	default:
		return nil, fmt.Errorf("unsupported ELF data encoding %v", f.Data)
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		img.Segments = append(img.Segments, Segment{
			VirtAddr: phdr.Vaddr,
			Data:     data,
			MemSize:  phdr.Memsz,
			Flags:    segmentFlags(phdr.Flags),
		})
	}

	return img, nil
}

func segmentFlags(f elf.ProgFlag) SegmentFlags {
	var flags SegmentFlags
	if f&elf.PF_X != 0 {
		flags |= SegmentFlagExecute
	}
	if f&elf.PF_W != 0 {
		flags |= SegmentFlagWrite
	}
	if f&elf.PF_R != 0 {
		flags |= SegmentFlagRead
	}
	return flags
}
