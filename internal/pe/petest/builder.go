// Package petest builds small synthetic PE32+ images for tests.
package petest

import (
	"debug/pe"
	"encoding/binary"
)

// Layout of every image produced by Builder.
const (
	PEOffset               = 0x40
	OptOffset              = PEOffset + 0x18
	SectionRVA             = 0x1000
	PayloadOffset          = 0x200
	ImageBase              = 0x140000000
	EntryPoint             = 0x1010
	SectionCharacteristics = pe.IMAGE_SCN_CNT_INITIALIZED_DATA | pe.IMAGE_SCN_MEM_READ | pe.IMAGE_SCN_MEM_WRITE

	optionalHeaderSize = 0xF0
	idtEntrySize       = 20
	iltEntrySize       = 8
	edtSize            = 40
	ordinalFlag        = uint64(1) << 63
)

// Import describes one import descriptor. Ordinal imports are written
// before the named ones in the lookup table.
type Import struct {
	DLL       string
	Functions []string
	Ordinals  []uint16
}

// Builder produces an image with a single ".data" section holding the
// import and export tables at PayloadOffset. Tables come first in the
// section and strings last, so the final byte of the file is always a
// needed NUL terminator.
type Builder struct {
	Imports []Import
	Exports []string
	// WithExportDir emits an export directory even when Exports is empty.
	WithExportDir bool
}

type payloadWriter struct {
	buf []byte
}

func (w *payloadWriter) reserve(n int) int {
	pos := len(w.buf)
	w.buf = append(w.buf, make([]byte, n)...)
	return pos
}

func (w *payloadWriter) cstring(s string) int {
	pos := len(w.buf)
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	return pos
}

// hintName writes an IMAGE_IMPORT_BY_NAME entry.
func (w *payloadWriter) hintName(hint uint16, name string) int {
	pos := w.reserve(2)
	binary.LittleEndian.PutUint16(w.buf[pos:], hint)
	w.cstring(name)
	return pos
}

func (w *payloadWriter) put32(pos int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[pos:], v)
}

func (w *payloadWriter) put64(pos int, v uint64) {
	binary.LittleEndian.PutUint64(w.buf[pos:], v)
}

func rvaOf(pos int) uint32 {
	return uint32(SectionRVA + pos)
}

type directory struct {
	rva, size uint32
}

func (b Builder) payload() ([]byte, directory, directory) {
	var w payloadWriter
	var importDir, exportDir directory

	var idt int
	ilts := make([]int, len(b.Imports))
	if len(b.Imports) > 0 {
		idtLen := (len(b.Imports) + 1) * idtEntrySize
		idt = w.reserve(idtLen)
		importDir = directory{rva: rvaOf(idt), size: uint32(idtLen)}
		for i, imp := range b.Imports {
			ilts[i] = w.reserve((len(imp.Ordinals) + len(imp.Functions) + 1) * iltEntrySize)
		}
	}

	var edt, enpt int
	if len(b.Exports) > 0 || b.WithExportDir {
		edt = w.reserve(edtSize)
		enpt = w.reserve(len(b.Exports) * 4)
		exportDir = directory{rva: rvaOf(edt), size: uint32(edtSize + len(b.Exports)*4)}
		w.put32(edt+24, uint32(len(b.Exports)))
		w.put32(edt+32, rvaOf(enpt))
	}

	for i, imp := range b.Imports {
		entry := idt + i*idtEntrySize
		w.put32(entry+0x00, rvaOf(ilts[i]))
		w.put32(entry+0x0C, rvaOf(w.cstring(imp.DLL)))
		w.put32(entry+0x10, rvaOf(ilts[i]))

		slot := ilts[i]
		for _, ord := range imp.Ordinals {
			w.put64(slot, ordinalFlag|uint64(ord))
			slot += iltEntrySize
		}
		for j, fn := range imp.Functions {
			w.put64(slot, uint64(rvaOf(w.hintName(uint16(j), fn))))
			slot += iltEntrySize
		}
	}

	for i, name := range b.Exports {
		w.put32(enpt+4*i, rvaOf(w.cstring(name)))
	}

	return w.buf, importDir, exportDir
}

// Build returns the complete image.
func (b Builder) Build() []byte {
	payload, importDir, exportDir := b.payload()

	img := make([]byte, PayloadOffset, PayloadOffset+len(payload))
	copy(img, "MZ")
	binary.LittleEndian.PutUint32(img[0x3C:], PEOffset)

	coff := img[PEOffset:]
	copy(coff, "PE\x00\x00")
	binary.LittleEndian.PutUint16(coff[0x04:], pe.IMAGE_FILE_MACHINE_AMD64)
	binary.LittleEndian.PutUint16(coff[0x06:], 1)
	binary.LittleEndian.PutUint16(coff[0x14:], optionalHeaderSize)

	opt := img[OptOffset:]
	binary.LittleEndian.PutUint16(opt[0x00:], 0x020B)
	binary.LittleEndian.PutUint32(opt[0x10:], EntryPoint)
	binary.LittleEndian.PutUint64(opt[0x18:], ImageBase)
	binary.LittleEndian.PutUint16(opt[0x44:], pe.IMAGE_SUBSYSTEM_WINDOWS_CUI)
	binary.LittleEndian.PutUint32(opt[0x70:], exportDir.rva)
	binary.LittleEndian.PutUint32(opt[0x74:], exportDir.size)
	binary.LittleEndian.PutUint32(opt[0x78:], importDir.rva)
	binary.LittleEndian.PutUint32(opt[0x7C:], importDir.size)

	sec := img[OptOffset+optionalHeaderSize:]
	copy(sec, ".data")
	binary.LittleEndian.PutUint32(sec[0x08:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(sec[0x0C:], SectionRVA)
	binary.LittleEndian.PutUint32(sec[0x10:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(sec[0x14:], PayloadOffset)
	binary.LittleEndian.PutUint32(sec[0x24:], SectionCharacteristics)

	return append(img, payload...)
}

// PutOptional32 overwrites a 32-bit optional header field of a built image.
func PutOptional32(img []byte, field int, v uint32) {
	binary.LittleEndian.PutUint32(img[OptOffset+field:], v)
}
