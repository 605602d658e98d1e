package pe

import (
	"encoding/binary"
	"fmt"
)

// Fixed structure sizes of a PE32+ image.
const (
	peHeaderPointerOffset = 0x3C
	minHeaderLength       = 0x40

	coffHeaderSize     = 0x18 // "PE\0\0" signature plus the 20-byte file header.
	optionalHeaderSize = 0xF0
	sectionHeaderSize  = 40
	idtEntrySize       = 20
	iltEntrySize       = 8
	edtSize            = 40

	pe32PlusMagic = 0x020B
)

var peSignature = [4]byte{'P', 'E', 0, 0}

// coffHeader is a validated 24-byte view starting at the PE signature.
type coffHeader []byte

func (h coffHeader) machine() uint16 {
	return binary.LittleEndian.Uint16(h[0x04:])
}

func (h coffHeader) numberOfSections() uint16 {
	return binary.LittleEndian.Uint16(h[0x06:])
}

func (h coffHeader) sizeOfOptionalHeader() uint16 {
	return binary.LittleEndian.Uint16(h[0x14:])
}

// optionalHeader is a validated 240-byte PE32+ optional header view.
type optionalHeader []byte

func (h optionalHeader) magic() uint16 {
	return binary.LittleEndian.Uint16(h[0x00:])
}

func (h optionalHeader) entryPoint() uint32 {
	return binary.LittleEndian.Uint32(h[0x10:])
}

func (h optionalHeader) imageBase() uint64 {
	return binary.LittleEndian.Uint64(h[0x18:])
}

func (h optionalHeader) subsystem() uint16 {
	return binary.LittleEndian.Uint16(h[0x44:])
}

func (h optionalHeader) exportTableRVA() uint32 {
	return binary.LittleEndian.Uint32(h[0x70:])
}

func (h optionalHeader) importTableRVA() uint32 {
	return binary.LittleEndian.Uint32(h[0x78:])
}

func (h optionalHeader) importTableSize() uint32 {
	return binary.LittleEndian.Uint32(h[0x7C:])
}

// stripToPEHeader returns the part of the image starting at the offset
// stored at 0x3C.
func stripToPEHeader(image []byte) ([]byte, bool) {
	if len(image) < minHeaderLength {
		return nil, false
	}
	ptr, ok := u32At(image, peHeaderPointerOffset)
	if !ok || uint64(ptr) > uint64(len(image)) {
		return nil, false
	}
	return image[ptr:], true
}

// IsPE reports whether the image carries the "PE\0\0" signature at the
// offset stored at 0x3C. Nothing beyond the signature is validated.
func IsPE(image []byte) bool {
	pe, ok := stripToPEHeader(image)
	if !ok {
		return false
	}
	sig, ok := subslice(pe, 0, len(peSignature))
	return ok && [4]byte(sig) == peSignature
}

func coffHeaderOf(pe []byte) (coffHeader, error) {
	b, ok := subslice(pe, 0, coffHeaderSize)
	if !ok {
		return nil, eofError("COFF头", 0, coffHeaderSize, len(pe))
	}
	return coffHeader(b), nil
}

// optionalHeaderOf returns the optional header following the COFF header.
// A zero size means no optional header is present, which is not an error.
func optionalHeaderOf(pe []byte) (optionalHeader, bool, error) {
	coff, err := coffHeaderOf(pe)
	if err != nil {
		return nil, false, err
	}

	switch size := int(coff.sizeOfOptionalHeader()); size {
	case 0:
		return nil, false, nil
	case optionalHeaderSize:
		b, ok := subslice(pe, coffHeaderSize, optionalHeaderSize)
		if !ok {
			available := len(pe) - coffHeaderSize
			return nil, false, &FormatError{
				Kind:      ErrOptionalHeaderTooShort,
				Offset:    coffHeaderSize,
				Expected:  optionalHeaderSize,
				Available: available,
				Detail:    fmt.Sprintf("可选头应至少有 %d 字节，实际只有 %d 字节", optionalHeaderSize, available),
			}
		}
		opt := optionalHeader(b)
		if opt.magic() != pe32PlusMagic {
			return nil, false, &FormatError{
				Kind:   ErrNotPE32Plus,
				Offset: coffHeaderSize,
				Detail: fmt.Sprintf("可选头魔数为 0x%04X", opt.magic()),
			}
		}
		return opt, true, nil
	default:
		return nil, false, &FormatError{
			Kind:     ErrUnexpectedOptionalHeaderSize,
			Offset:   0x14,
			Expected: optionalHeaderSize,
			Detail:   fmt.Sprintf("可选头大小为 %d", size),
		}
	}
}
