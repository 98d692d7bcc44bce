package cmd

import (
	"fmt"

	"github.com/loft-sh/amplitude/pkg/version"
	"github.com/spf13/cobra"
)

// VersionCmd holds the version cmd flags
type VersionCmd struct {
	UserAgent bool
}

// NewVersionCmd creates a new version command
func NewVersionCmd() *cobra.Command {
	cmd := &VersionCmd{}
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Prints the version",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}

	versionCmd.Flags().BoolVar(&cmd.UserAgent, "user-agent", false, "Print the User-Agent header sent with every upload")
	return versionCmd
}

// Run runs the command logic
func (cmd *VersionCmd) Run(cobraCmd *cobra.Command, _ []string) error {
	if cmd.UserAgent {
		_, _ = fmt.Fprintln(cobraCmd.OutOrStdout(), version.UserAgent())
		return nil
	}

	_, _ = fmt.Fprintln(cobraCmd.OutOrStdout(), version.GetVersion())
	return nil
}
