// Package cli provides command-line interface utilities.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ZacharyZcR/pe-parser/internal/pe"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Reporter formats and prints parse results.
type Reporter struct {
	out     io.Writer
	verbose bool
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// SetVerbose enables verbose mode (show all functions in the info report).
func (r *Reporter) SetVerbose(verbose bool) {
	r.verbose = verbose
}

// PrintImports prints one line per DLL followed by its indented functions.
func (r *Reporter) PrintImports(imports []pe.ImportInfo) {
	green := color.New(color.FgGreen)
	for _, imp := range imports {
		_, _ = green.Fprintln(r.out, imp.DLL)
		for _, fn := range imp.Functions {
			_, _ = fmt.Fprintf(r.out, "    %s\n", fn)
		}
	}
}

// PrintExports prints one exported function name per line.
func (r *Reporter) PrintExports(exports []string) {
	for _, name := range exports {
		_, _ = fmt.Fprintln(r.out, name)
	}
}

// PrintSections prints the section table. data is the image the sections
// were read from and is used for entropy.
func (r *Reporter) PrintSections(sections []pe.SectionHeader, data []byte) {
	yellow := color.New(color.FgYellow, color.Bold)
	_, _ = yellow.Fprintf(r.out, "【节区信息】(共 %d 个)\n", len(sections))

	infos := make([]pe.SectionInfo, 0, len(sections))
	for _, s := range sections {
		infos = append(infos, pe.SectionInfo{
			Name:            s.SectionName(),
			VirtualAddress:  s.VirtualAddress,
			VirtualSize:     s.VirtualSize,
			Size:            s.SizeOfRawData,
			Characteristics: s.Characteristics,
			Permissions:     s.Permissions(),
			Entropy:         pe.SectionEntropy(data, s),
		})
	}
	r.printSectionRows(infos)
}

// PrintInfo outputs the complete analysis report.
func (r *Reporter) PrintInfo(path string, info *pe.Info) {
	r.printHeader()
	r.printBasicInfo(path, info)

	yellow := color.New(color.FgYellow, color.Bold)
	_, _ = yellow.Fprintf(r.out, "\n【节区信息】(共 %d 个)\n", len(info.Sections))
	r.printSectionRows(info.Sections)

	r.printImports(info)
	r.printExports(info)
}

func (r *Reporter) printHeader() {
	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Fprintln(r.out, "\n╔════════════════════════════════════════╗")
	_, _ = cyan.Fprintln(r.out, "║          PE-Parser 分析报告            ║")
	_, _ = cyan.Fprintln(r.out, "╚════════════════════════════════════════╝")
}

func (r *Reporter) printBasicInfo(path string, info *pe.Info) {
	yellow := color.New(color.FgYellow, color.Bold)
	_, _ = yellow.Fprintln(r.out, "\n【基本信息】")

	if path == "" {
		path = "(标准输入)"
	}
	_, _ = fmt.Fprintf(r.out, "  %-20s: %s\n", "文件路径", path)
	_, _ = fmt.Fprintf(r.out, "  %-20s: %s\n", "文件大小", humanize.IBytes(uint64(info.FileSize)))
	_, _ = fmt.Fprintf(r.out, "  %-20s: %s\n", "架构", info.Architecture)
	_, _ = fmt.Fprintf(r.out, "  %-20s: %s\n", "子系统", info.Subsystem)
	_, _ = fmt.Fprintf(r.out, "  %-20s: 0x%X\n", "入口点", info.EntryPoint)
	_, _ = fmt.Fprintf(r.out, "  %-20s: 0x%X\n", "镜像基址", info.ImageBase)
}

func (r *Reporter) printSectionRows(sections []pe.SectionInfo) {
	if len(sections) == 0 {
		_, _ = fmt.Fprintln(r.out, "  未发现节区")
		return
	}

	_, _ = fmt.Fprintln(r.out, strings.Repeat("-", 100))
	_, _ = fmt.Fprintf(r.out, "  %-10s %-12s %-15s %-15s %-8s %-8s %-12s\n",
		"名称", "虚拟地址", "虚拟大小", "原始大小", "权限", "熵", "特征")
	_, _ = fmt.Fprintln(r.out, strings.Repeat("-", 100))

	for _, section := range sections {
		// Highlight dangerous permissions (RWX)
		permColor := color.New(color.FgWhite)
		if section.Permissions == "RWX" {
			permColor = color.New(color.FgRed, color.Bold)
		} else if strings.Contains(section.Permissions, "X") {
			permColor = color.New(color.FgYellow)
		}

		_, _ = fmt.Fprintf(r.out, "  %-10s 0x%08X   %-15s %-15s ",
			section.Name,
			section.VirtualAddress,
			humanize.IBytes(uint64(section.VirtualSize)),
			humanize.IBytes(uint64(section.Size)),
		)
		_, _ = permColor.Fprintf(r.out, "%-8s", section.Permissions)
		_, _ = fmt.Fprintf(r.out, " %-8.3f 0x%08X\n", section.Entropy, section.Characteristics)
	}
	_, _ = fmt.Fprintln(r.out, strings.Repeat("-", 100))
}

func (r *Reporter) printImports(info *pe.Info) {
	yellow := color.New(color.FgYellow, color.Bold)
	_, _ = yellow.Fprintf(r.out, "\n【导入表】(共 %d 个DLL)\n", len(info.Imports))

	if info.ImportsErr != nil {
		red := color.New(color.FgRed)
		_, _ = red.Fprintf(r.out, "  解析导入表失败: %v\n", info.ImportsErr)
		return
	}
	if len(info.Imports) == 0 {
		_, _ = fmt.Fprintln(r.out, "  未发现导入")
		return
	}

	green := color.New(color.FgGreen)
	for i, imp := range info.Imports {
		funcCount := len(imp.Functions)
		_, _ = green.Fprintf(r.out, "  %3d. %s (%d 个函数)\n", i+1, imp.DLL, funcCount)

		displayCount := r.limit(funcCount, 10)
		for j := 0; j < displayCount; j++ {
			_, _ = fmt.Fprintf(r.out, "       - %s\n", imp.Functions[j])
		}
		r.printRemaining("       ", funcCount-displayCount)
	}
}

func (r *Reporter) printExports(info *pe.Info) {
	yellow := color.New(color.FgYellow, color.Bold)
	_, _ = yellow.Fprintf(r.out, "\n【导出表】(共 %d 个函数)\n", len(info.Exports))

	if info.ExportsErr != nil {
		red := color.New(color.FgRed)
		_, _ = red.Fprintf(r.out, "  解析导出表失败: %v\n", info.ExportsErr)
		return
	}
	if len(info.Exports) == 0 {
		_, _ = fmt.Fprintln(r.out, "  未发现导出")
		return
	}

	green := color.New(color.FgGreen)
	displayCount := r.limit(len(info.Exports), 20)
	for i := 0; i < displayCount; i++ {
		_, _ = green.Fprintf(r.out, "  %3d. %s\n", i+1, info.Exports[i])
	}
	r.printRemaining("  ", len(info.Exports)-displayCount)
}

// limit caps n at maxDisplay unless verbose mode is on.
func (r *Reporter) limit(n, maxDisplay int) int {
	if r.verbose || n <= maxDisplay {
		return n
	}
	return maxDisplay
}

func (r *Reporter) printRemaining(indent string, n int) {
	if n <= 0 {
		return
	}
	gray := color.New(color.FgHiBlack)
	_, _ = gray.Fprintf(r.out, "%s... (还有 %d 个函数)\n", indent, n)
}
