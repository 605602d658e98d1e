package pe

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"fmt"
)

// SectionHeader is one 40-byte record of the section table.
type SectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLinenumbers uint32
	NumberOfRelocations  uint16
	NumberOfLinenumbers  uint16
	Characteristics      uint32
}

func decodeSectionHeader(raw []byte) SectionHeader {
	var s SectionHeader
	copy(s.Name[:], raw[0x00:0x08])
	s.VirtualSize = binary.LittleEndian.Uint32(raw[0x08:])
	s.VirtualAddress = binary.LittleEndian.Uint32(raw[0x0C:])
	s.SizeOfRawData = binary.LittleEndian.Uint32(raw[0x10:])
	s.PointerToRawData = binary.LittleEndian.Uint32(raw[0x14:])
	s.PointerToRelocations = binary.LittleEndian.Uint32(raw[0x18:])
	s.PointerToLinenumbers = binary.LittleEndian.Uint32(raw[0x1C:])
	s.NumberOfRelocations = binary.LittleEndian.Uint16(raw[0x20:])
	s.NumberOfLinenumbers = binary.LittleEndian.Uint16(raw[0x22:])
	s.Characteristics = binary.LittleEndian.Uint32(raw[0x24:])
	return s
}

// SectionName returns the section name without NUL padding.
func (s SectionHeader) SectionName() string {
	name, _, _ := bytes.Cut(s.Name[:], []byte{0})
	return string(name)
}

// Permissions renders the memory access flags as "RWX", "R-X", etc.
func (s SectionHeader) Permissions() string {
	perms := [3]byte{'-', '-', '-'}

	if s.Characteristics&pe.IMAGE_SCN_MEM_READ != 0 {
		perms[0] = 'R'
	}
	if s.Characteristics&pe.IMAGE_SCN_MEM_WRITE != 0 {
		perms[1] = 'W'
	}
	if s.Characteristics&pe.IMAGE_SCN_MEM_EXECUTE != 0 {
		perms[2] = 'X'
	}

	return string(perms[:])
}

// sectionTable holds the section headers in on-disk order. Order matters:
// the first section containing an RVA wins.
type sectionTable []SectionHeader

// readSectionHeaders reads count records placed right after the COFF header
// and, if present, the optional header.
func readSectionHeaders(peHdr []byte, hasOptionalHeader bool, count int) (sectionTable, error) {
	base := coffHeaderSize
	if hasOptionalHeader {
		base += optionalHeaderSize
	}

	sections := make(sectionTable, 0, min(count, len(peHdr)/sectionHeaderSize))
	for i := 0; i < count; i++ {
		raw, ok := subslice(peHdr, base+i*sectionHeaderSize, sectionHeaderSize)
		if !ok {
			return nil, &FormatError{
				Kind:      ErrTruncatedSectionTable,
				Offset:    base + i*sectionHeaderSize,
				Expected:  count,
				Available: i,
				Index:     i,
				Detail:    fmt.Sprintf("应读取 %d 个节区头，但数据只够读取 %d 个", count, i),
			}
		}
		sections = append(sections, decodeSectionHeader(raw))
	}
	return sections, nil
}

// rvaToOffset converts RVA to file offset. The result is not checked
// against the file length.
func (t sectionTable) rvaToOffset(rva uint32) (int, error) {
	for _, s := range t {
		if rva >= s.VirtualAddress && uint64(rva) < uint64(s.VirtualAddress)+uint64(s.VirtualSize) {
			return int(uint64(s.PointerToRawData) + uint64(rva-s.VirtualAddress)), nil
		}
	}
	return 0, &FormatError{
		Kind:   ErrRVANotInAnySection,
		RVA:    rva,
		Detail: fmt.Sprintf("找不到包含 RVA 0x%X 的节区", rva),
	}
}
