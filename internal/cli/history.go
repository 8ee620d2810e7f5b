package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eventhistory/internal/events"
	"github.com/roach88/eventhistory/internal/ident"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Before string
	After  string
	Ticket string
	Limit  int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <org-id> <contact-uuid>",
		Short: "Show a contact's event history",
		Long: `Show the events in a contact's history.

Events are listed newest first unless only --after is given, in which case
they are listed oldest first starting from that time. Ticket events are
limited to ticket lifecycle events unless --ticket selects a ticket.

Example:
  eventhistory history 1 019877a4-3b2c-7c1e-9a4f-6c2b8d3e1f00
  eventhistory history 1 019877a4-3b2c-7c1e-9a4f-6c2b8d3e1f00 --after 2025-08-01T00:00:00Z --format json`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Before, "before", "", "only events before this time (RFC 3339)")
	cmd.Flags().StringVar(&opts.After, "after", "", "only events at or after this time (RFC 3339)")
	cmd.Flags().StringVar(&opts.Ticket, "ticket", "", "include the events of this ticket")
	cmd.Flags().IntVar(&opts.Limit, "limit", events.DefaultLimit, "maximum number of events")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, args []string) error {
	contact, err := parseContact(args[0], args[1])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	q := events.HistoryQuery{Limit: opts.Limit}
	if q.Before, err = parseTime("--before", opts.Before); err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}
	if q.After, err = parseTime("--after", opts.After); err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}
	if opts.Ticket != "" {
		if q.Ticket, err = ident.Parse(opts.Ticket); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", fmt.Errorf("--ticket: %w", err))
		}
	}

	ctx := cmd.Context()
	e := &env{}
	defer e.close()

	users, err := opts.users(ctx, e)
	if err != nil {
		return err
	}
	if err := opts.openStore(e); err != nil {
		return err
	}

	history := events.NewHistory(e.store.Table(historyTable), users)
	evts, err := history.GetByContact(ctx, contact, q)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(evts)
	}

	out := cmd.OutOrStdout()
	for _, evt := range evts {
		fmt.Fprintln(out, formatEventLine(evt))
	}
	formatter.VerboseLog("%d events", len(evts))
	return nil
}

// formatEventLine renders an event as a single line of text.
func formatEventLine(evt events.Event) string {
	b := evt.Envelope()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %-26s %s", b.CreatedOn.UTC().Format(time.RFC3339Nano), b.Type, b.UUID)
	if b.User != nil {
		fmt.Fprintf(&sb, "  by %s", b.User.Name)
	}
	if b.Status != nil {
		fmt.Fprintf(&sb, "  [%s]", b.Status.Status)
	}
	if b.Deleted != nil {
		if b.Deleted.ByContact {
			sb.WriteString("  [deleted by contact]")
		} else {
			sb.WriteString("  [deleted]")
		}
	}
	return sb.String()
}

func parseContact(orgArg, uuidArg string) (events.Contact, error) {
	orgID, err := strconv.ParseInt(orgArg, 10, 64)
	if err != nil {
		return events.Contact{}, fmt.Errorf("org id %q: %w", orgArg, err)
	}
	uuid, err := ident.Parse(uuidArg)
	if err != nil {
		return events.Contact{}, fmt.Errorf("contact uuid: %w", err)
	}
	return events.Contact{UUID: uuid, OrgID: orgID}, nil
}

func parseTime(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", flag, err)
	}
	return t, nil
}
