package pe

import (
	"debug/pe"
	"testing"

	"github.com/ZacharyZcR/pe-parser/internal/pe/petest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSectionHeaders(t *testing.T) {
	img := petest.Builder{Exports: []string{"Foo"}}.Build()
	peHdr, _ := stripToPEHeader(img)

	sections, err := readSectionHeaders(peHdr, true, 1)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	s := sections[0]
	assert.Equal(t, ".data", s.SectionName())
	assert.Equal(t, uint32(petest.SectionRVA), s.VirtualAddress)
	assert.Equal(t, uint32(petest.PayloadOffset), s.PointerToRawData)
	assert.Equal(t, s.VirtualSize, s.SizeOfRawData)
	assert.Equal(t, uint32(petest.SectionCharacteristics), s.Characteristics)
	assert.Equal(t, "RW-", s.Permissions())
}

func TestReadSectionHeadersTruncated(t *testing.T) {
	img := petest.Builder{}.Build()
	peHdr, _ := stripToPEHeader(img)

	// Room for the real section plus part of the next few records.
	end := coffHeaderSize + optionalHeaderSize + sectionHeaderSize + 10
	_, err := readSectionHeaders(peHdr[:end], true, 3)
	require.True(t, errors.Is(err, ErrTruncatedSectionTable), "got %v", err)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, fe.Expected)
	assert.Equal(t, 1, fe.Available)
}

func TestReadSectionHeadersWithoutOptionalHeader(t *testing.T) {
	img := coffOnly(0, make([]byte, sectionHeaderSize))
	copy(img[petest.PEOffset+coffHeaderSize:], ".text")
	peHdr, _ := stripToPEHeader(img)

	sections, err := readSectionHeaders(peHdr, false, 1)
	require.NoError(t, err)
	assert.Equal(t, ".text", sections[0].SectionName())
}

func TestSectionPermissions(t *testing.T) {
	tests := []struct {
		name string
		char uint32
		want string
	}{
		{name: "Read only", char: pe.IMAGE_SCN_MEM_READ, want: "R--"},
		{name: "Read Write", char: pe.IMAGE_SCN_MEM_READ | pe.IMAGE_SCN_MEM_WRITE, want: "RW-"},
		{name: "Read Execute", char: pe.IMAGE_SCN_MEM_READ | pe.IMAGE_SCN_MEM_EXECUTE, want: "R-X"},
		{name: "Read Write Execute", char: pe.IMAGE_SCN_MEM_READ | pe.IMAGE_SCN_MEM_WRITE | pe.IMAGE_SCN_MEM_EXECUTE, want: "RWX"},
		{name: "Write Execute", char: pe.IMAGE_SCN_MEM_WRITE | pe.IMAGE_SCN_MEM_EXECUTE, want: "-WX"},
		{name: "No permissions", char: 0, want: "---"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SectionHeader{Characteristics: tt.char}
			assert.Equal(t, tt.want, s.Permissions())
		})
	}
}

func TestRVAToOffset(t *testing.T) {
	sections := sectionTable{
		{VirtualAddress: 0x1000, VirtualSize: 0x200, PointerToRawData: 0x400},
		{VirtualAddress: 0x2000, VirtualSize: 0x100, PointerToRawData: 0x600},
		// Overlaps the first section; never wins for shared RVAs.
		{VirtualAddress: 0x1100, VirtualSize: 0x400, PointerToRawData: 0x900},
	}

	tests := []struct {
		name    string
		rva     uint32
		want    int
		wantErr bool
	}{
		{name: "Section start", rva: 0x1000, want: 0x400},
		{name: "Inside section", rva: 0x1010, want: 0x410},
		{name: "Last byte", rva: 0x11FF, want: 0x5FF},
		{name: "First match wins", rva: 0x1150, want: 0x550},
		{name: "Falls through to next match", rva: 0x1200, want: 0xA00},
		{name: "Second section start", rva: 0x2000, want: 0x600},
		{name: "One past second section", rva: 0x2100, wantErr: true},
		{name: "Below every section", rva: 0x0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sections.rvaToOffset(tt.rva)
			if tt.wantErr {
				require.True(t, errors.Is(err, ErrRVANotInAnySection), "got %v", err)
				var fe *FormatError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, tt.rva, fe.RVA)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRVAToOffsetNoWrap(t *testing.T) {
	sections := sectionTable{
		{VirtualAddress: 0xFFFFFF00, VirtualSize: 0x200, PointerToRawData: 0x400},
	}

	got, err := sections.rvaToOffset(0xFFFFFFFF)
	require.NoError(t, err)
	assert.Equal(t, 0x4FF, got)

	_, err = sections.rvaToOffset(0x10)
	assert.True(t, errors.Is(err, ErrRVANotInAnySection))
}

func TestOffsetOfRejectsOffsetsPastEnd(t *testing.T) {
	img := &image{
		data: make([]byte, 0x500),
		sections: sectionTable{
			// Virtual size larger than the raw data on disk.
			{VirtualAddress: 0x1000, VirtualSize: 0x1000, SizeOfRawData: 0x100, PointerToRawData: 0x400},
		},
	}

	off, err := img.offsetOf(0x10FF)
	require.NoError(t, err)
	assert.Equal(t, 0x4FF, off)

	_, err = img.offsetOf(0x1100)
	assert.True(t, errors.Is(err, ErrUnexpectedEOF), "got %v", err)
}

func TestParseSections(t *testing.T) {
	sections, err := ParseSections(petest.Builder{Imports: []petest.Import{{DLL: "a.dll", Functions: []string{"f"}}}}.Build())
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, ".data", sections[0].SectionName())
}
