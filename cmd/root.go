package cmd

import (
	"fmt"
	"os"

	"github.com/loft-sh/amplitude/cmd/flags"
	"github.com/loft-sh/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd returns a new root command
func NewRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "amplitude",
		Short:         "Send events to Amplitude",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// build the root command
	rootCmd := BuildRoot()

	// execute command
	err := rootCmd.Execute()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// BuildRoot creates a new root command with all subcommands
func BuildRoot() *cobra.Command {
	rootCmd := NewRootCmd()
	persistentFlags := rootCmd.PersistentFlags()
	globalFlags := flags.SetGlobalFlags(persistentFlags)
	rootCmd.PersistentPreRunE = func(cobraCmd *cobra.Command, args []string) error {
		return configureLogger(globalFlags)
	}

	rootCmd.AddCommand(NewSendCmd(globalFlags))
	rootCmd.AddCommand(NewValidateCmd(globalFlags))
	rootCmd.AddCommand(NewVersionCmd())
	return rootCmd
}

func configureLogger(flags *flags.GlobalFlags) error {
	if flags.Silent {
		log.Default.SetLevel(logrus.FatalLevel)
	} else if flags.Debug {
		log.Default.SetLevel(logrus.DebugLevel)
	}

	switch flags.LogOutput {
	case "json":
		log.Default.SetFormat(log.JSONFormat)
	case "raw":
		log.Default.MakeRaw()
	case "plain", "":
	default:
		return fmt.Errorf("unknown log output %q, expected plain, raw or json", flags.LogOutput)
	}

	return nil
}
