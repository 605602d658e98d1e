package main

import (
	"fmt"
	"os"

	"github.com/ZacharyZcR/pe-parser/internal/cli"
	"github.com/ZacharyZcR/pe-parser/internal/pe"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// readImage loads the image named by args, or stdin when args is empty.
func (a *app) readImage(args []string) ([]byte, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	if path == "" || path == "-" {
		if f, ok := a.stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			a.log.Warn("正在从终端读取标准输入，按 Ctrl-D 结束")
		}
		path = "-"
	}

	data, err := cli.ReadInput(path, a.stdin)
	if err != nil {
		return nil, err
	}
	a.log.WithField("path", path).Debugf("读取 %d 字节", len(data))
	return data, nil
}

func (a *app) newIsPECmd() *cobra.Command {
	return &cobra.Command{
		Use:   "is-pe [infile]",
		Short: "检查输入是否为 PE 文件",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readImage(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !pe.IsPE(data) {
				_, _ = fmt.Fprintln(out, "Not PE")
				return errNotPE
			}
			_, _ = fmt.Fprintln(out, "PE")
			return nil
		},
	}
}

func (a *app) newImportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "import-functions [infile]",
		Aliases: []string{"imports"},
		Short:   "列出导入的 DLL 及其按名称导入的函数",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readImage(args)
			if err != nil {
				return err
			}

			imports, err := pe.ParseImports(data)
			if err != nil {
				return errors.Wrap(err, "解析导入表失败")
			}
			a.log.Debugf("导入 %d 个DLL", len(imports))

			cli.NewReporter(cmd.OutOrStdout()).PrintImports(imports)
			return nil
		},
	}
}

func (a *app) newExportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "export-functions [infile]",
		Aliases: []string{"exports"},
		Short:   "列出按名称导出的函数",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readImage(args)
			if err != nil {
				return err
			}

			exports, err := pe.ParseExports(data)
			if errors.Is(err, pe.ErrExportDirectoryAbsent) {
				yellow := color.New(color.FgYellow)
				_, _ = yellow.Fprintln(cmd.ErrOrStderr(), "提示: 该文件可能没有导出任何函数")
			}
			if err != nil {
				return errors.Wrap(err, "解析导出表失败")
			}
			a.log.Debugf("导出 %d 个函数", len(exports))

			cli.NewReporter(cmd.OutOrStdout()).PrintExports(exports)
			return nil
		},
	}
}

func (a *app) newSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections [infile]",
		Short: "显示节区表、权限和熵值",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readImage(args)
			if err != nil {
				return err
			}

			sections, err := pe.ParseSections(data)
			if err != nil {
				return errors.Wrap(err, "解析节区表失败")
			}
			a.log.Debugf("共 %d 个节区", len(sections))

			cli.NewReporter(cmd.OutOrStdout()).PrintSections(sections, data)
			return nil
		},
	}
}

func (a *app) newInfoCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "info [infile]",
		Short: "显示完整的 PE 分析报告",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readImage(args)
			if err != nil {
				return err
			}

			info, err := pe.Analyze(data)
			if err != nil {
				return errors.Wrap(err, "分析失败")
			}
			if info.ImportsErr != nil {
				a.log.Debugf("导入表: %v", info.ImportsErr)
			}
			if info.ExportsErr != nil {
				a.log.Debugf("导出表: %v", info.ExportsErr)
			}

			path := ""
			if len(args) > 0 && args[0] != "-" {
				path = args[0]
			}

			reporter := cli.NewReporter(cmd.OutOrStdout())
			reporter.SetVerbose(verbose)
			reporter.PrintInfo(path, info)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "详细模式：显示所有导入/导出函数")
	return cmd
}
