// Package pe extracts import, export and section information from PE32+
// images held in memory. Every offset read from the image is bounds-checked;
// malformed input yields a *FormatError, never a panic.
package pe

import (
	"fmt"

	"github.com/pkg/errors"
)

// image is the parsed header chain of one PE32+ file. All views alias data.
type image struct {
	data     []byte
	coff     coffHeader
	opt      optionalHeader // nil when the image has no optional header
	sections sectionTable
}

// parseHeaders walks signature, COFF header, optional header and section
// table. A missing optional header is allowed here.
func parseHeaders(data []byte) (*image, error) {
	peHdr, ok := stripToPEHeader(data)
	if !ok {
		return nil, &FormatError{
			Kind:      ErrTooShortForHeaderPointer,
			Offset:    peHeaderPointerOffset,
			Expected:  minHeaderLength,
			Available: len(data),
			Detail:    fmt.Sprintf("文件大小 %d 字节，无法获取 [0x3C] 指向的部分", len(data)),
		}
	}
	if !IsPE(data) {
		return nil, &FormatError{
			Kind:   ErrNotPE,
			Offset: len(data) - len(peHdr),
			Detail: "签名不是 \"PE\\0\\0\"",
		}
	}

	coff, err := coffHeaderOf(peHdr)
	if err != nil {
		return nil, err
	}
	opt, hasOpt, err := optionalHeaderOf(peHdr)
	if err != nil {
		return nil, errors.Wrap(err, "读取可选头失败")
	}
	sections, err := readSectionHeaders(peHdr, hasOpt, int(coff.numberOfSections()))
	if err != nil {
		return nil, errors.Wrap(err, "读取节区表失败")
	}

	return &image{
		data:     data,
		coff:     coff,
		opt:      opt,
		sections: sections,
	}, nil
}

// parseImage is parseHeaders for callers that need the data directories.
func parseImage(data []byte) (*image, error) {
	img, err := parseHeaders(data)
	if err != nil {
		return nil, err
	}
	if img.opt == nil {
		return nil, &FormatError{Kind: ErrNoOptionalHeader}
	}
	return img, nil
}

// offsetOf translates rva and rejects offsets outside the file, which the
// section table alone cannot catch for sections with zero-filled tails.
func (img *image) offsetOf(rva uint32) (int, error) {
	off, err := img.sections.rvaToOffset(rva)
	if err != nil {
		return 0, err
	}
	if off >= len(img.data) {
		return 0, &FormatError{
			Kind:      ErrUnexpectedEOF,
			Offset:    off,
			RVA:       rva,
			Available: 0,
			Detail:    fmt.Sprintf("RVA 0x%X 对应的文件偏移 0x%X 超出文件末尾 (文件大小 0x%X)", rva, off, len(img.data)),
		}
	}
	return off, nil
}

// stringAt reads the null-terminated string an RVA points to.
func (img *image) stringAt(rva uint32) (string, error) {
	off, err := img.offsetOf(rva)
	if err != nil {
		return "", err
	}
	return readCString(img.data, off)
}

// ParseSections returns the section table in on-disk order.
func ParseSections(data []byte) ([]SectionHeader, error) {
	img, err := parseHeaders(data)
	if err != nil {
		return nil, err
	}
	return img.sections, nil
}
