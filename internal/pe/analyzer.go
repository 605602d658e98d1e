package pe

import (
	"debug/pe"
	"fmt"

	"github.com/pkg/errors"
)

// Info contains analyzed PE file information.
type Info struct {
	FileSize     int64
	Architecture string
	Subsystem    string
	EntryPoint   uint64
	ImageBase    uint64
	Sections     []SectionInfo
	Imports      []ImportInfo
	Exports      []string

	// ImportsErr and ExportsErr record why a table could not be read. The
	// rest of Info stays valid. An image without an export directory has
	// no ExportsErr.
	ImportsErr error
	ExportsErr error
}

// SectionInfo contains information about a PE section.
type SectionInfo struct {
	Name            string
	VirtualAddress  uint32
	VirtualSize     uint32
	Size            uint32
	Characteristics uint32
	Permissions     string
	Entropy         float64
}

// Analyze extracts all information from a PE32+ image. Only header errors
// are fatal; import and export failures are recorded in the result.
func Analyze(data []byte) (*Info, error) {
	img, err := parseImage(data)
	if err != nil {
		return nil, err
	}

	info := &Info{
		FileSize:     int64(len(data)),
		Architecture: getArchitecture(img.coff.machine()),
		Subsystem:    getSubsystem(img.opt.subsystem()),
		EntryPoint:   uint64(img.opt.entryPoint()),
		ImageBase:    img.opt.imageBase(),
	}

	for _, s := range img.sections {
		info.Sections = append(info.Sections, SectionInfo{
			Name:            s.SectionName(),
			VirtualAddress:  s.VirtualAddress,
			VirtualSize:     s.VirtualSize,
			Size:            s.SizeOfRawData,
			Characteristics: s.Characteristics,
			Permissions:     s.Permissions(),
			Entropy:         SectionEntropy(data, s),
		})
	}

	info.Imports, info.ImportsErr = ParseImports(data)

	exports, err := ParseExports(data)
	switch {
	case errors.Is(err, ErrExportDirectoryAbsent):
	case err != nil:
		info.ExportsErr = err
	default:
		info.Exports = exports
	}

	return info, nil
}

func getArchitecture(machine uint16) string {
	switch machine {
	case pe.IMAGE_FILE_MACHINE_I386:
		return "x86 (32位)"
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "x64 (64位)"
	case pe.IMAGE_FILE_MACHINE_ARM:
		return "ARM"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "ARM64"
	default:
		return fmt.Sprintf("未知 (0x%X)", machine)
	}
}

func getSubsystem(subsystem uint16) string {
	switch subsystem {
	case pe.IMAGE_SUBSYSTEM_WINDOWS_GUI:
		return "Windows GUI"
	case pe.IMAGE_SUBSYSTEM_WINDOWS_CUI:
		return "Windows 控制台"
	case pe.IMAGE_SUBSYSTEM_NATIVE:
		return "Native"
	case pe.IMAGE_SUBSYSTEM_EFI_APPLICATION:
		return "EFI 应用程序"
	default:
		return fmt.Sprintf("未知 (0x%X)", subsystem)
	}
}
