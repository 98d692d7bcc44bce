package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/loft-sh/amplitude/cmd/flags"
	"github.com/loft-sh/amplitude/pkg/event"
	"github.com/loft-sh/amplitude/pkg/eventfile"
	"github.com/loft-sh/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// ValidateCmd holds the validate cmd flags
type ValidateCmd struct {
	*flags.GlobalFlags

	Format string

	Log log.Logger
}

// NewValidateCmd creates a new validate command
func NewValidateCmd(flags *flags.GlobalFlags) *cobra.Command {
	cmd := &ValidateCmd{
		GlobalFlags: flags,
	}
	validateCmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Checks event files without sending them",
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			cmd.Log = log.Default.ErrorStreamOnly()
			return cmd.Run(cobraCmd.Context(), cobraCmd.OutOrStdout(), args)
		},
	}

	validateCmd.Flags().StringVar(&cmd.Format, "format", "", "The event file format. Can be either json or yaml, guessed if empty")
	return validateCmd
}

// Run runs the command logic
func (cmd *ValidateCmd) Run(_ context.Context, out io.Writer, args []string) error {
	if cmd.Log == nil {
		cmd.Log = log.Discard
	}

	options, err := readOptions(cmd.Format)
	if err != nil {
		return err
	}

	events, err := readEvents(args, options, cmd.Log)
	if err != nil {
		return err
	}

	for i, e := range events {
		cmd.Log.Debugf("Event %d: %s", i, e.EventType)
	}

	_, _ = fmt.Fprintf(out, "%d valid event(s)\n", len(events))
	return nil
}

func readOptions(format string) (eventfile.Options, error) {
	switch eventfile.Format(format) {
	case eventfile.FormatAuto, eventfile.FormatJSON, eventfile.FormatYAML:
		return eventfile.Options{Format: eventfile.Format(format)}, nil
	}

	return eventfile.Options{}, fmt.Errorf("unknown format %q, expected json or yaml", format)
}

// readEvents reads all files in order. No files means stdin.
func readEvents(paths []string, options eventfile.Options, log log.Logger) ([]event.Event, error) {
	if len(paths) == 0 {
		paths = []string{eventfile.Stdin}
	}
	for _, path := range paths {
		if path == eventfile.Stdin && isatty.IsTerminal(os.Stdin.Fd()) {
			log.Info("Reading events from stdin, press Ctrl+D to finish")
			break
		}
	}

	events := []event.Event{}
	for _, path := range paths {
		fileEvents, err := eventfile.ReadFileWithOptions(path, options)
		if err != nil {
			return nil, err
		}

		events = append(events, fileEvents...)
	}

	return events, nil
}
