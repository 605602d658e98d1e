package pe

import "encoding/binary"

// subslice returns buf[offset:offset+n] when the whole range lies inside buf.
// Every other accessor in this package is built on it.
func subslice(buf []byte, offset, n int) ([]byte, bool) {
	if offset < 0 || n < 0 || offset > len(buf) || n > len(buf)-offset {
		return nil, false
	}
	return buf[offset : offset+n], true
}

func u16At(buf []byte, offset int) (uint16, bool) {
	b, ok := subslice(buf, offset, 2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

func u32At(buf []byte, offset int) (uint32, bool) {
	b, ok := subslice(buf, offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func u64At(buf []byte, offset int) (uint64, bool) {
	b, ok := subslice(buf, offset, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}
