package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chore-tracker/internal/calendar"
	"chore-tracker/internal/config"
	"chore-tracker/internal/service"
)

type reportOptions struct {
	familyID uint
	kind     string
	date     string
	from     string
	to       string
}

// NewReportCommand creates the command that prints a family rollup.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the weekly or monthly completion rollup of a family",
		Example: `  choretracker report --family 1 --kind weekly --format json
  choretracker report --family 1 --kind monthly --date 2025-02-10 --format yaml
  choretracker report --family 1 --from 2025-03-01 --to 2025-03-10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigFile)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			rollup, familyName, err := runReport(cmd.Context(), cfg, opts, time.Now())
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, rollup, service.FormatRollup(familyName, rollup))
		},
	}
	cmd.Flags().UintVar(&opts.familyID, "family", 0, "family id")
	cmd.Flags().StringVar(&opts.kind, "kind", string(calendar.Weekly), "weekly|monthly")
	cmd.Flags().StringVar(&opts.date, "date", "", "any day inside the period, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.from, "from", "", "explicit period start, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "explicit period end, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("family")
	cmd.MarkFlagsRequiredTogether("from", "to")
	cmd.MarkFlagsMutuallyExclusive("date", "from")
	return cmd
}

func runReport(ctx context.Context, cfg config.Config, opts *reportOptions, now time.Time) (calendar.PeriodRollup, string, error) {
	kind, err := calendar.ParseKind(opts.kind)
	if err != nil {
		return calendar.PeriodRollup{}, "", err
	}

	a, err := newApp(cfg)
	if err != nil {
		return calendar.PeriodRollup{}, "", err
	}
	defer a.Close()

	family, err := a.members.FindFamily(ctx, opts.familyID)
	if err != nil {
		return calendar.PeriodRollup{}, "", fmt.Errorf("family %d: %w", opts.familyID, err)
	}
	loc := family.Location()

	if opts.from != "" {
		from, err := time.ParseInLocation(calendar.DateLayout, opts.from, loc)
		if err != nil {
			return calendar.PeriodRollup{}, "", fmt.Errorf("invalid --from: %w", err)
		}
		to, err := time.ParseInLocation(calendar.DateLayout, opts.to, loc)
		if err != nil {
			return calendar.PeriodRollup{}, "", fmt.Errorf("invalid --to: %w", err)
		}
		rollup, err := a.reportSvc.Rollup(ctx, *family, kind, from, to)
		return rollup, family.Name, err
	}

	day := now.In(loc)
	if opts.date != "" {
		day, err = time.ParseInLocation(calendar.DateLayout, opts.date, loc)
		if err != nil {
			return calendar.PeriodRollup{}, "", fmt.Errorf("invalid --date: %w", err)
		}
	}
	rollup, err := a.reportSvc.RollupFor(ctx, *family, kind, day)
	return rollup, family.Name, err
}
