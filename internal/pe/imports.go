package pe

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

const ordinalFlag64 = uint64(1) << 63

// ImportInfo contains information about imported DLL and functions.
type ImportInfo struct {
	DLL       string
	Functions []string
}

// importDescriptor holds the IMAGE_IMPORT_DESCRIPTOR fields the walker uses.
type importDescriptor struct {
	OriginalFirstThunk uint32 // RVA to Import Lookup Table.
	Name               uint32 // RVA to DLL name.
	FirstThunk         uint32 // RVA to Import Address Table.
}

// ParseImports returns the imported DLLs with the names of their imported
// functions, both in on-disk order. Imports by ordinal are skipped.
func ParseImports(data []byte) ([]ImportInfo, error) {
	img, err := parseImage(data)
	if err != nil {
		return nil, err
	}

	idtRVA := img.opt.importTableRVA()
	idtSize := int(img.opt.importTableSize())
	if idtRVA == 0 && idtSize == 0 {
		return nil, nil
	}
	idtOffset, err := img.offsetOf(idtRVA)
	if err != nil {
		return nil, errors.Wrap(err, "无法定位导入目录表")
	}

	return img.parseImportDirectory(idtOffset, idtSize)
}

func (img *image) parseImportDirectory(idtOffset, idtSize int) ([]ImportInfo, error) {
	var imports []ImportInfo

	for i := 0; ; i++ {
		if (i+1)*idtEntrySize > idtSize {
			return nil, &FormatError{
				Kind:      ErrImportDirectoryOverrun,
				Offset:    idtOffset + i*idtEntrySize,
				Expected:  (i + 1) * idtEntrySize,
				Available: idtSize,
				Index:     i,
				Detail:    fmt.Sprintf("读取导入目录表第 %d 项将超出表大小 (%d 字节)", i, idtSize),
			}
		}

		entryOffset := idtOffset + i*idtEntrySize
		raw, ok := subslice(img.data, entryOffset, idtEntrySize)
		if !ok {
			err := eofError("导入目录表项", entryOffset, idtEntrySize, len(img.data))
			err.Index = i
			return nil, err
		}

		// An all-zero descriptor terminates the table.
		if isZero(raw) {
			return imports, nil
		}

		desc := importDescriptor{
			OriginalFirstThunk: binary.LittleEndian.Uint32(raw[0x00:]),
			Name:               binary.LittleEndian.Uint32(raw[0x0C:]),
			FirstThunk:         binary.LittleEndian.Uint32(raw[0x10:]),
		}

		imp, err := img.readImport(desc)
		if err != nil {
			return nil, errors.Wrapf(err, "解析导入目录表第 %d 项失败", i)
		}
		imports = append(imports, imp)
	}
}

func (img *image) readImport(desc importDescriptor) (ImportInfo, error) {
	dllName, err := img.stringAt(desc.Name)
	if err != nil {
		return ImportInfo{}, errors.Wrap(err, "读取DLL名称失败")
	}

	// Some linkers leave OriginalFirstThunk empty; the IAT then carries the
	// same entries on disk.
	thunkRVA := desc.OriginalFirstThunk
	if thunkRVA == 0 {
		thunkRVA = desc.FirstThunk
	}
	iltOffset, err := img.offsetOf(thunkRVA)
	if err != nil {
		return ImportInfo{}, errors.Wrapf(err, "无法定位 %s 的导入查找表", dllName)
	}

	functions, err := img.parseLookupTable(iltOffset)
	if err != nil {
		return ImportInfo{}, errors.Wrapf(err, "解析 %s 的导入查找表失败", dllName)
	}

	return ImportInfo{DLL: dllName, Functions: functions}, nil
}

// parseLookupTable walks 8-byte thunks until a zero entry. The table has no
// stored length, so reaching the end of the file is an error.
func (img *image) parseLookupTable(iltOffset int) ([]string, error) {
	var functions []string

	for i := 0; ; i++ {
		entryOffset := iltOffset + i*iltEntrySize
		thunk, ok := u64At(img.data, entryOffset)
		if !ok {
			return nil, &FormatError{
				Kind:      ErrUnterminatedImportLookupTable,
				Offset:    entryOffset,
				Expected:  iltEntrySize,
				Available: max(len(img.data)-entryOffset, 0),
				Index:     i,
				Detail: fmt.Sprintf("文件在 0x%X 字节处结束，无法读取位于 0x%08X 的导入查找表第 %d 项",
					len(img.data), entryOffset, i),
			}
		}
		if thunk == 0 {
			return functions, nil
		}
		if thunk&ordinalFlag64 != 0 {
			continue
		}

		name, err := img.hintNameAt(uint32(thunk))
		if err != nil {
			return nil, errors.Wrapf(err, "读取导入查找表第 %d 项的函数名失败", i)
		}
		functions = append(functions, name)
	}
}

// hintNameAt reads the name of an IMAGE_IMPORT_BY_NAME entry, skipping the
// 2-byte hint.
func (img *image) hintNameAt(rva uint32) (string, error) {
	off, err := img.offsetOf(rva)
	if err != nil {
		return "", err
	}
	return readCString(img.data, off+2)
}

func isZero(b []byte) bool {
	return len(bytes.Trim(b, "\x00")) == 0
}
