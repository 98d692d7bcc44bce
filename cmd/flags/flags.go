package flags

import (
	flag "github.com/spf13/pflag"
)

type GlobalFlags struct {
	LogOutput string
	EnvFile   string

	Debug  bool
	Silent bool
}

// SetGlobalFlags applies the global flags
func SetGlobalFlags(flags *flag.FlagSet) *GlobalFlags {
	globalFlags := &GlobalFlags{}

	flags.StringVar(&globalFlags.LogOutput, "log-output", "plain", "The log format to use. Can be either plain, raw or json")
	flags.StringVar(&globalFlags.EnvFile, "env-file", ".env", "The env file to read AMPLITUDE_* variables from if it exists")
	flags.BoolVar(&globalFlags.Debug, "debug", false, "Prints the requests and responses")
	flags.BoolVar(&globalFlags.Silent, "silent", false, "Run in silent mode and prevents any log output except panics & fatals")
	return globalFlags
}
