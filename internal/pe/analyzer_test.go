package pe

import (
	"debug/pe"
	"testing"

	"github.com/ZacharyZcR/pe-parser/internal/pe/petest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	img := petest.Builder{
		Imports: []petest.Import{{DLL: "KERNEL32.dll", Functions: []string{"ExitProcess"}}},
		Exports: []string{"Run"},
	}.Build()

	info, err := Analyze(img)
	require.NoError(t, err)

	assert.Equal(t, int64(len(img)), info.FileSize)
	assert.Equal(t, "x64 (64位)", info.Architecture)
	assert.Equal(t, "Windows 控制台", info.Subsystem)
	assert.Equal(t, uint64(petest.EntryPoint), info.EntryPoint)
	assert.Equal(t, uint64(petest.ImageBase), info.ImageBase)

	require.Len(t, info.Sections, 1)
	assert.Equal(t, ".data", info.Sections[0].Name)
	assert.Equal(t, "RW-", info.Sections[0].Permissions)

	assert.NoError(t, info.ImportsErr)
	assert.NoError(t, info.ExportsErr)
	assert.Equal(t, []ImportInfo{{DLL: "KERNEL32.dll", Functions: []string{"ExitProcess"}}}, info.Imports)
	assert.Equal(t, []string{"Run"}, info.Exports)
}

func TestAnalyzeRecordsTableErrors(t *testing.T) {
	img := petest.Builder{Imports: []petest.Import{{DLL: "a.dll", Functions: []string{"A"}}}}.Build()
	// Corrupt the DLL name RVA.
	img[petest.PayloadOffset+0x0F] = 0x7F

	info, err := Analyze(img)
	require.NoError(t, err)
	assert.True(t, errors.Is(info.ImportsErr, ErrRVANotInAnySection), "got %v", info.ImportsErr)
	assert.NoError(t, info.ExportsErr, "missing export directory is not an error")
	assert.Empty(t, info.Exports)
}

func TestAnalyzeHeaderErrorIsFatal(t *testing.T) {
	_, err := Analyze(make([]byte, 0x40))
	assert.True(t, errors.Is(err, ErrNotPE), "got %v", err)
}

func TestGetArchitecture(t *testing.T) {
	tests := []struct {
		name    string
		machine uint16
		want    string
	}{
		{name: "x86", machine: pe.IMAGE_FILE_MACHINE_I386, want: "x86 (32位)"},
		{name: "x64", machine: pe.IMAGE_FILE_MACHINE_AMD64, want: "x64 (64位)"},
		{name: "ARM64", machine: pe.IMAGE_FILE_MACHINE_ARM64, want: "ARM64"},
		{name: "Unknown", machine: 0x1234, want: "未知 (0x1234)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getArchitecture(tt.machine); got != tt.want {
				t.Errorf("getArchitecture() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSubsystem(t *testing.T) {
	tests := []struct {
		name      string
		subsystem uint16
		want      string
	}{
		{name: "Windows GUI", subsystem: pe.IMAGE_SUBSYSTEM_WINDOWS_GUI, want: "Windows GUI"},
		{name: "Windows Console", subsystem: pe.IMAGE_SUBSYSTEM_WINDOWS_CUI, want: "Windows 控制台"},
		{name: "EFI application", subsystem: pe.IMAGE_SUBSYSTEM_EFI_APPLICATION, want: "EFI 应用程序"},
		{name: "Unknown subsystem", subsystem: 0xFF, want: "未知 (0xFF)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getSubsystem(tt.subsystem); got != tt.want {
				t.Errorf("getSubsystem() = %v, want %v", got, tt.want)
			}
		})
	}
}
