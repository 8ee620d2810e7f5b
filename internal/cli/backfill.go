package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eventhistory/internal/backfill"
)

// dateLayout is the format of --since and --until.
const dateLayout = "2006-01-02"

// BackfillOptions holds flags for the update and import commands.
type BackfillOptions struct {
	*RootOptions
	OrgID     int64
	Suspended bool
	Since     string
	Until     string
}

// NewBackfillCommand creates the update or import command.
func NewBackfillCommand(rootOpts *RootOptions, step string) *cobra.Command {
	opts := &BackfillOptions{RootOptions: rootOpts}

	short := map[string]string{
		"update": "Rewrite message archives into the history format",
		"import": "Import message archives into contact histories",
	}[step]

	cmd := &cobra.Command{
		Use:   step,
		Short: short,
		Long: fmt.Sprintf(`%s.

Processes the daily and monthly message archives of every active org, or of
a single org with --org. Monthly archives are used wherever they exist and
daily archives fill in the rest. --since and --until limit the archives to
those overlapping the given dates.

Run update before import: import requires every record to have a UUID.

Example:
  eventhistory %[2]s --org 1234
  eventhistory %[2]s --since 2024-01-01 --until 2024-06-30 --suspended=false`, short, step),
		Args:          exactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(cmd, opts, backfill.Step(step))
		},
	}

	cmd.Flags().Int64Var(&opts.OrgID, "org", 0, "only process this org")
	cmd.Flags().BoolVar(&opts.Suspended, "suspended", true, "include suspended orgs")
	cmd.Flags().StringVar(&opts.Since, "since", "", "only archives on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "only archives on or before this date (YYYY-MM-DD)")

	return cmd
}

func runBackfill(cmd *cobra.Command, opts *BackfillOptions, step backfill.Step) error {
	since, until, err := parseDateRange(opts.Since, opts.Until)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid date range", err)
	}

	ctx := cmd.Context()
	e := &env{}
	defer e.close()

	repo, err := opts.repository(ctx, e)
	if err != nil {
		return err
	}
	if err := opts.openStore(e); err != nil {
		return err
	}

	b, err := backfill.New(repo, e.store.Table(historyTable), cmd.OutOrStdout())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load record schema", err)
	}

	slog.Debug("backfill starting", "step", step, "org", opts.OrgID, "since", opts.Since, "until", opts.Until)

	err = b.Run(ctx, step, backfill.Options{
		OrgID:            opts.OrgID,
		IncludeSuspended: opts.Suspended,
		Since:            since,
		Until:            until,
	})
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("%s failed", step), err)
	}
	return nil
}

// parseDateRange parses --since and --until. until covers the whole of its
// day. Empty values give zero times.
func parseDateRange(sinceStr, untilStr string) (since, until time.Time, err error) {
	if sinceStr != "" {
		if since, err = time.Parse(dateLayout, sinceStr); err != nil {
			return since, until, fmt.Errorf("--since: %w", err)
		}
	}
	if untilStr != "" {
		if until, err = time.Parse(dateLayout, untilStr); err != nil {
			return since, until, fmt.Errorf("--until: %w", err)
		}
		until = until.Add(24*time.Hour - time.Nanosecond)
	}
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return since, until, fmt.Errorf("--until %s is before --since %s", untilStr, sinceStr)
	}
	return since, until, nil
}
