// Package main provides the pe-parser CLI tool.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// errNotPE makes is-pe exit with status 1 without printing an error.
var errNotPE = errors.New("not a PE image")

// app carries what every command needs.
type app struct {
	flags *GlobalFlags
	log   *logrus.Logger
	stdin io.Reader
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command tree and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd, a := BuildRoot(stdin)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	if errors.Is(err, errNotPE) {
		return 1
	}

	red := color.New(color.FgRed, color.Bold)
	if a.flags.Debug {
		_, _ = red.Fprintf(stderr, "错误: %+v\n", err)
	} else {
		_, _ = red.Fprintf(stderr, "错误: %v\n", err)
	}
	return 1
}

// BuildRoot creates the root command with all subcommands attached.
func BuildRoot(stdin io.Reader) (*cobra.Command, *app) {
	a := &app{
		log:   logrus.New(),
		stdin: stdin,
	}

	rootCmd := &cobra.Command{
		Use:           "pe-parser",
		Short:         "PE32+ 导入/导出表解析工具",
		Long:          "解析 PE32+ 文件的导入表、导出表和节区表。未指定文件时从标准输入读取。",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.log.SetOutput(cmd.ErrOrStderr())
			a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
			if a.flags.Debug {
				a.log.SetLevel(logrus.DebugLevel)
			}
			if a.flags.NoColor {
				color.NoColor = true
			}
		},
	}
	a.flags = SetGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(a.newIsPECmd())
	rootCmd.AddCommand(a.newImportsCmd())
	rootCmd.AddCommand(a.newExportsCmd())
	rootCmd.AddCommand(a.newSectionsCmd())
	rootCmd.AddCommand(a.newInfoCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return rootCmd, a
}
