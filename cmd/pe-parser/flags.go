package main

import (
	flag "github.com/spf13/pflag"
)

// GlobalFlags holds the flags shared by every command.
type GlobalFlags struct {
	Debug   bool
	NoColor bool
}

// SetGlobalFlags applies the global flags
func SetGlobalFlags(flags *flag.FlagSet) *GlobalFlags {
	globalFlags := &GlobalFlags{}

	flags.BoolVar(&globalFlags.Debug, "debug", false, "输出调试日志，出错时打印堆栈")
	flags.BoolVar(&globalFlags.NoColor, "no-color", false, "禁用彩色输出")
	return globalFlags
}
