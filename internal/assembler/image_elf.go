// Completion: 100% - ELF32 image writer complete
package assembler

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// elfMachine is the made-up e_machine value this target claims in its ELF
// header (spec.md sec.6, "machine = 0xD105").
const elfMachine = 0xD105

const (
	elfHeaderSize  = 52
	elfPhentSize   = 32
	elfPhnum       = 3
	elfPhOffsetAll = elfHeaderSize + elfPhentSize*elfPhnum
)

const (
	phtLoad    = 1
	pfExecute  = 1
	pfWrite    = 2
	pfRead     = 4
	elfPageAln = 0x1000
)

// WriteELFImage renders a user-mode program as a little-endian 32-bit ELF
// executable with exactly three PT_LOAD segments (TEXT, RODATA, DATA);
// .bss is folded into the DATA segment's memsz without being written to
// the file (spec.md sec.6).
func WriteELFImage(prog *Program) ([]byte, error) {
	if prog.IsKernel {
		return nil, fmt.Errorf("WriteELFImage: program was assembled in kernel mode")
	}

	textBytes := nodeBytes(prog.SectionNodes[TEXT])
	rodataBytes := nodeBytes(prog.SectionNodes[RODATA])
	dataBytes := nodeBytes(prog.SectionNodes[DATA])
	bssSize := prog.Sections.Size[BSS]

	var buf bytes.Buffer
	writeELFHeader(&buf, prog.EntryPoint)

	textOff := uint32(elfPhOffsetAll)
	rodataOff := textOff + uint32(len(textBytes))
	dataOff := rodataOff + uint32(len(rodataBytes))

	writePhdr(&buf, phdr{
		offset: textOff, vaddr: prog.Sections.Base[TEXT],
		filesz: uint32(len(textBytes)), memsz: uint32(len(textBytes)),
		flags: pfRead | pfExecute,
	})
	writePhdr(&buf, phdr{
		offset: rodataOff, vaddr: prog.Sections.Base[RODATA],
		filesz: uint32(len(rodataBytes)), memsz: uint32(len(rodataBytes)),
		flags: pfRead,
	})
	writePhdr(&buf, phdr{
		offset: dataOff, vaddr: prog.Sections.Base[DATA],
		filesz: uint32(len(dataBytes)), memsz: uint32(len(dataBytes)) + bssSize,
		flags: pfRead | pfWrite,
	})

	buf.Write(textBytes)
	buf.Write(rodataBytes)
	buf.Write(dataBytes)

	return buf.Bytes(), nil
}

func nodeBytes(n *InstrNode) []byte {
	if n == nil {
		return nil
	}
	return n.Bytes()
}

func writeELFHeader(buf *bytes.Buffer, entry uint32) {
	var ident [16]byte
	ident[0], ident[1], ident[2], ident[3] = 0x7F, 'E', 'L', 'F'
	ident[4] = 1 // ELFCLASS32
	ident[5] = 1 // ELFDATA2LSB
	ident[6] = 1 // EV_CURRENT
	buf.Write(ident[:])

	binary.Write(buf, binary.LittleEndian, uint16(2))          // e_type: ET_EXEC
	binary.Write(buf, binary.LittleEndian, uint16(elfMachine)) // e_machine
	binary.Write(buf, binary.LittleEndian, uint32(1))          // e_version
	binary.Write(buf, binary.LittleEndian, entry)              // e_entry
	binary.Write(buf, binary.LittleEndian, uint32(elfHeaderSize))
	binary.Write(buf, binary.LittleEndian, uint32(0)) // e_shoff: no section headers
	binary.Write(buf, binary.LittleEndian, uint32(0)) // e_flags
	binary.Write(buf, binary.LittleEndian, uint16(elfHeaderSize))
	binary.Write(buf, binary.LittleEndian, uint16(elfPhentSize))
	binary.Write(buf, binary.LittleEndian, uint16(elfPhnum))
	binary.Write(buf, binary.LittleEndian, uint16(0)) // e_shentsize
	binary.Write(buf, binary.LittleEndian, uint16(0)) // e_shnum
	binary.Write(buf, binary.LittleEndian, uint16(0)) // e_shstrndx
}

type phdr struct {
	offset, vaddr, filesz, memsz, flags uint32
}

func writePhdr(buf *bytes.Buffer, p phdr) {
	binary.Write(buf, binary.LittleEndian, uint32(phtLoad))
	binary.Write(buf, binary.LittleEndian, p.offset)
	binary.Write(buf, binary.LittleEndian, p.vaddr)
	binary.Write(buf, binary.LittleEndian, p.vaddr) // p_paddr mirrors p_vaddr
	binary.Write(buf, binary.LittleEndian, p.filesz)
	binary.Write(buf, binary.LittleEndian, p.memsz)
	binary.Write(buf, binary.LittleEndian, p.flags)
	binary.Write(buf, binary.LittleEndian, uint32(elfPageAln))
}
