package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/loft-sh/amplitude/cmd/flags"
	"github.com/loft-sh/amplitude/pkg/amplitude"
	"github.com/loft-sh/amplitude/pkg/config"
	"github.com/loft-sh/amplitude/pkg/encoding"
	"github.com/loft-sh/amplitude/pkg/event"
	"github.com/loft-sh/amplitude/pkg/response"
	"github.com/loft-sh/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// dryRunAPIKey stands in for a missing api key during a dry run
const dryRunAPIKey = "dry-run"

// SendCmd holds the send cmd flags
type SendCmd struct {
	*flags.GlobalFlags

	Batch       bool
	EU          bool
	URL         string
	MinIDLength int
	Format      string

	InsertIDs           bool
	DeviceIDFromMachine bool
	DryRun              bool

	Log log.Logger
}

// NewSendCmd creates a new send command
func NewSendCmd(flags *flags.GlobalFlags) *cobra.Command {
	cmd := &SendCmd{
		GlobalFlags: flags,
	}
	sendCmd := &cobra.Command{
		Use:   "send [file...]",
		Short: "Sends events from files or stdin",
		Long: `Sends the events read from the given files in one upload.
A file holds a single event object, an array of events or one event per line
as JSON, JSONC or YAML. Use - or no argument to read from stdin.

The api key and defaults are read from AMPLITUDE_* environment variables
and the env file.`,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			cmd.Log = log.Default.ErrorStreamOnly()
			return cmd.Run(cobraCmd.Context(), cobraCmd.OutOrStdout(), args)
		},
	}

	sendCmd.Flags().BoolVar(&cmd.Batch, "batch", false, "Use the batch endpoint")
	sendCmd.Flags().BoolVar(&cmd.EU, "eu", false, "Send to the EU data center")
	sendCmd.Flags().StringVar(&cmd.URL, "url", "", "Send to this url instead of an Amplitude endpoint")
	sendCmd.Flags().IntVar(&cmd.MinIDLength, "min-id-length", 0, "Minimum length of user_id and device_id accepted by the collector")
	sendCmd.Flags().StringVar(&cmd.Format, "format", "", "The event file format. Can be either json or yaml, guessed if empty")
	sendCmd.Flags().BoolVar(&cmd.InsertIDs, "insert-ids", false, "Set a random insert_id on events without one")
	sendCmd.Flags().BoolVar(&cmd.DeviceIDFromMachine, "device-id-from-machine", false, "Use a device id derived from this machine for events without user_id and device_id")
	sendCmd.Flags().BoolVar(&cmd.DryRun, "dry-run", false, "Print the request body without the api key instead of sending it")
	return sendCmd
}

// Run runs the command logic
func (cmd *SendCmd) Run(ctx context.Context, out io.Writer, args []string) error {
	if cmd.Log == nil {
		cmd.Log = log.Discard
	}

	options, err := readOptions(cmd.Format)
	if err != nil {
		return err
	}
	if cmd.DeviceIDFromMachine {
		options.DeviceID = encoding.GetDeviceID(cmd.Log)
		cmd.Log.Debugf("Using device id %s for events without identity", options.DeviceID)
	}

	events, err := readEvents(args, options, cmd.Log)
	if err != nil {
		return err
	}
	if cmd.InsertIDs {
		events = withInsertIDs(events)
	}

	client, err := cmd.client()
	if err != nil {
		return err
	}

	if cmd.DryRun {
		envelope := client.Envelope(events)
		envelope.APIKey = ""
		raw, err := json.MarshalIndent(envelope, "", "  ")
		if err != nil {
			return errors.Wrap(err, "marshal upload envelope")
		}

		_, _ = fmt.Fprintln(out, string(raw))
		cmd.Log.Infof("Would send %d event(s) to %s", len(events), client.URL())
		return nil
	}

	resp, err := client.Send(ctx, events)
	if err != nil {
		return err
	}

	raw, err := response.Encode(resp)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, string(raw))

	if !response.IsSuccess(resp) {
		return fmt.Errorf("upload rejected with status %d (%s)", resp.StatusCode(), resp.Kind())
	}

	cmd.Log.Donef("Sent %d event(s) to %s", len(events), client.URL())
	return nil
}

func (cmd *SendCmd) client() (*amplitude.Client, error) {
	cfg, err := config.ReadFile(cmd.EnvFile)
	if err != nil {
		return nil, err
	}

	if cmd.DryRun && cfg.APIKey == "" {
		cfg.APIKey = dryRunAPIKey
	}
	if cmd.Batch {
		cfg.Endpoint = config.EndpointBatch
	}
	if cmd.EU {
		cfg.Region = config.RegionEU
	}
	if cmd.URL != "" {
		cfg.URL = cmd.URL
	}
	if cmd.MinIDLength > 0 {
		cfg.MinIDLength = cmd.MinIDLength
	}

	client, err := amplitude.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return client.SetLogger(cmd.Log), nil
}

func withInsertIDs(events []event.Event) []event.Event {
	out := make([]event.Event, 0, len(events))
	for _, e := range events {
		if e.InsertID == nil || *e.InsertID == "" {
			e = e.WithRandomInsertID()
		}
		out = append(out, e)
	}

	return out
}
