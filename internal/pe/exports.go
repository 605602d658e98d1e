package pe

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// exportDirectory holds the IMAGE_EXPORT_DIRECTORY fields the walker uses.
type exportDirectory struct {
	NumberOfNames  uint32
	AddressOfNames uint32
}

func decodeExportDirectory(raw []byte) exportDirectory {
	return exportDirectory{
		NumberOfNames:  binary.LittleEndian.Uint32(raw[24:]),
		AddressOfNames: binary.LittleEndian.Uint32(raw[32:]),
	}
}

// ParseExports returns the exported function names in Export Name Pointer
// Table order. No ordering is assumed.
func ParseExports(data []byte) ([]string, error) {
	img, err := parseImage(data)
	if err != nil {
		return nil, err
	}

	edtRVA := img.opt.exportTableRVA()
	edtOffset, err := img.sections.rvaToOffset(edtRVA)
	if err != nil || edtRVA == 0 {
		return nil, &FormatError{
			Kind:   ErrExportDirectoryAbsent,
			RVA:    edtRVA,
			Detail: fmt.Sprintf("无法定位导出目录 (RVA 0x%X)，该文件可能没有导出任何函数", edtRVA),
		}
	}

	raw, ok := subslice(img.data, edtOffset, edtSize)
	if !ok {
		return nil, errors.Wrap(eofError("导出目录表", edtOffset, edtSize, len(img.data)), "读取导出目录失败")
	}
	edt := decodeExportDirectory(raw)

	// No named exports
	if edt.NumberOfNames == 0 {
		return []string{}, nil
	}

	enptOffset, err := img.offsetOf(edt.AddressOfNames)
	if err != nil {
		return nil, errors.Wrap(err, "无法定位导出名称指针表")
	}

	count := int(edt.NumberOfNames)
	exports := make([]string, 0, min(count, (len(img.data)-enptOffset)/4))
	for i := 0; i < count; i++ {
		pointerOffset := enptOffset + i*4
		nameRVA, ok := u32At(img.data, pointerOffset)
		if !ok {
			err := eofError("导出名称指针", pointerOffset, 4, len(img.data))
			err.Index = i
			return nil, errors.Wrapf(err, "读取导出名称指针表第 %d 项失败 (共 %d 项)", i, count)
		}

		name, err := img.stringAt(nameRVA)
		if err != nil {
			return nil, errors.Wrapf(err, "读取第 %d 个导出函数名失败", i)
		}
		exports = append(exports, name)
	}

	return exports, nil
}
