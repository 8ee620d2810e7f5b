package cli

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/eventhistory/internal/channels"
	"github.com/roach88/eventhistory/internal/ident"
)

// LogsOptions holds flags for the logs command.
type LogsOptions struct {
	*RootOptions
	Type      string
	After     string
	Limit     int
	UUIDs     []string
	Anonymize bool
	URN       string

	// ChannelConfig is the channel's config, e.g. auth_token=..., used to
	// check that no credential is ever displayed.
	ChannelConfig map[string]string
}

// LogsResult is the JSON output of the logs command.
type LogsResult struct {
	Logs []*channels.Display `json:"logs"`
	Prev ident.UUID          `json:"prev,omitempty"`
	Next ident.UUID          `json:"next,omitempty"`
}

// NewLogsCommand creates the logs command.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "logs <org-id> <channel-uuid>",
		Short: "Show a channel's logs",
		Long: `Show the logs of a channel, newest first, a page at a time.

Pass the Next cursor of one page as --after to get the following page, or
select logs directly with --uuid. With --anonymize every URL, trace and
error message has the contact's URN masked.

Example:
  eventhistory logs 1 7c1a5e30-2f4b-4a9d-8c6e-0d1f2a3b4c5d --type T
  eventhistory logs 1 7c1a5e30-2f4b-4a9d-8c6e-0d1f2a3b4c5d --type T --anonymize --urn tel:+593979123456`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "channel type code, e.g. T (required)")
	cmd.Flags().StringVar(&opts.After, "after", "", "page cursor: only logs older than this log")
	cmd.Flags().IntVar(&opts.Limit, "limit", channels.DefaultPageSize, "page size")
	cmd.Flags().StringSliceVar(&opts.UUIDs, "uuid", nil, "fetch these logs instead of a page")
	cmd.Flags().BoolVar(&opts.Anonymize, "anonymize", false, "mask contact details")
	cmd.Flags().StringVar(&opts.URN, "urn", "", "contact URN to mask when anonymizing")
	cmd.Flags().StringToStringVar(&opts.ChannelConfig, "channel-config", nil, "channel config values, e.g. auth_token=... (merged over channels.configs)")

	return cmd
}

func runLogs(cmd *cobra.Command, opts *LogsOptions, args []string) error {
	if opts.Type == "" {
		return NewExitError(ExitCommandError, "required flag \"type\" not set")
	}
	orgID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", fmt.Errorf("org id %q: %w", args[0], err))
	}
	chUUID, err := ident.Parse(args[1])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", fmt.Errorf("channel uuid: %w", err))
	}

	var after ident.UUID
	if opts.After != "" {
		if after, err = ident.Parse(opts.After); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", fmt.Errorf("--after: %w", err))
		}
	}
	uuids := make([]ident.UUID, 0, len(opts.UUIDs))
	for _, s := range opts.UUIDs {
		u, err := ident.Parse(s)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", fmt.Errorf("--uuid: %w", err))
		}
		uuids = append(uuids, u)
	}

	var types *channels.Registry
	if path := opts.Config.Channels.TypesFile; path != "" {
		if types, err = channels.LoadRegistry(path); err != nil {
			return WrapExitError(ExitCommandError, "failed to load channel types", err)
		}
	}

	e := &env{}
	defer e.close()
	if err := opts.openStore(e); err != nil {
		return err
	}

	logs := channels.NewLogs(e.store.Table(channelLogsTable), types)
	if !logs.Types().Has(opts.Type) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown channel type %q", opts.Type))
	}
	ch := &channels.Channel{UUID: chUUID, OrgID: orgID, Type: opts.Type, Config: opts.channelConfig(chUUID)}

	ctx := cmd.Context()
	result := &LogsResult{}
	var found []*channels.Log

	if len(uuids) > 0 {
		if found, err = logs.GetByUUID(ctx, ch, uuids); err != nil {
			return WrapExitError(ExitFailure, "failed to read logs", err)
		}
	} else {
		page, err := logs.GetByChannel(ctx, ch, opts.Limit, after)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read logs", err)
		}
		found, result.Prev, result.Next = page.Logs, page.Prev, page.Next
	}

	if result.Logs, err = displayLogs(logs, found, opts.Anonymize, opts.URN); err != nil {
		return WrapExitError(ExitFailure, "refusing to display logs", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	out := cmd.OutOrStdout()
	for _, d := range result.Logs {
		status := "ok"
		if d.IsError {
			status = "error"
		}
		fmt.Fprintf(out, "%s  %s  %-22s %6dms  %s\n", d.CreatedOn.UTC().Format("2006-01-02T15:04:05.000Z"), d.UUID, d.Type.Display(), d.ElapsedMS, status)
		for _, le := range d.Errors {
			fmt.Fprintf(out, "    ! %s: %s\n", le.Code, le.Message)
		}
	}
	if result.Next != "" {
		fmt.Fprintf(out, "next: --after %s\n", result.Next)
	}
	return nil
}

// channelConfig merges the --channel-config values over the configured ones
// for the channel.
func (o *LogsOptions) channelConfig(ch ident.UUID) map[string]string {
	merged := map[string]string{}
	maps.Copy(merged, o.Config.Channels.Configs[string(ch)])
	maps.Copy(merged, o.ChannelConfig)
	return merged
}

// displayLogs projects logs for display, turning a credential found in a
// log into an error instead of a crash.
func displayLogs(logs *channels.Logs, found []*channels.Log, anonymize bool, urn string) (displays []*channels.Display, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	displays = make([]*channels.Display, len(found))
	for i, l := range found {
		displays[i] = logs.GetDisplay(l, anonymize, urn)
	}
	return displays, nil
}
