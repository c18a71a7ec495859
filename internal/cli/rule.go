package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chore-tracker/internal/recurrence"
)

type ruleInfo struct {
	Rule        string   `json:"rule" yaml:"rule"`
	Frequency   string   `json:"frequency" yaml:"frequency"`
	Description string   `json:"description" yaml:"description"`
	Start       string   `json:"start,omitempty" yaml:"start,omitempty"`
	Next        []string `json:"next,omitempty" yaml:"next,omitempty"`
}

type encodeOptions struct {
	frequency string
	interval  int
	days      string
	monthDay  int
	start     string
	timezone  string
}

// NewRuleCommand groups the recurrence rule helpers.
func NewRuleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Encode, describe and expand recurrence rules",
	}
	cmd.AddCommand(newRuleEncodeCommand(rootOpts))
	cmd.AddCommand(newRuleDescribeCommand(rootOpts))
	cmd.AddCommand(newRuleNextCommand(rootOpts))
	return cmd
}

func newRuleEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &encodeOptions{}
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a rule string from a pattern",
		Example: `  choretracker rule encode --freq weekly --interval 2 --days mon,wed --start 2024-01-01
  choretracker rule encode --freq monthly --month-day 31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := encodeRule(opts, time.Now())
			if err != nil {
				return err
			}
			info, err := describeRule(rule)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, info, rule)
		},
	}
	cmd.Flags().StringVar(&opts.frequency, "freq", recurrence.FrequencyDaily, "daily|weekly|monthly|custom")
	cmd.Flags().IntVar(&opts.interval, "interval", 1, "repeat every N periods")
	cmd.Flags().StringVar(&opts.days, "days", "", "weekdays for weekly rules, e.g. mon,wed,fri")
	cmd.Flags().IntVar(&opts.monthDay, "month-day", 1, "day of month for monthly rules")
	cmd.Flags().StringVar(&opts.start, "start", "", "start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.timezone, "tz", "UTC", "time zone that defines day boundaries")
	return cmd
}

func newRuleDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <rule>",
		Short: "Print a rule in plain words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := describeRule(normalizeRuleArg(args[0]))
			if err != nil {
				return err
			}
			text := info.Description
			if info.Start != "" {
				text += ", starting " + info.Start
			}
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, info, text)
		},
	}
}

func newRuleNextCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		count    int
		timezone string
	)
	cmd := &cobra.Command{
		Use:   "next <rule>",
		Short: "List the first dates of a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", timezone, err)
			}
			rule := normalizeRuleArg(args[0])
			info, err := describeRule(rule)
			if err != nil {
				return err
			}
			dates, err := recurrence.NextOccurrences(rule, count, loc)
			if err != nil {
				return err
			}
			lines := make([]string, 0, len(dates))
			for _, d := range dates {
				info.Next = append(info.Next, d.Format("2006-01-02"))
				lines = append(lines, d.Format("Mon 2006-01-02"))
			}
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, info, strings.Join(lines, "\n"))
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of dates")
	cmd.Flags().StringVar(&timezone, "tz", "UTC", "time zone that defines day boundaries")
	return cmd
}

func encodeRule(opts *encodeOptions, now time.Time) (string, error) {
	days, err := recurrence.ParseWeekdays(opts.days)
	if err != nil {
		return "", err
	}
	pattern, err := recurrence.NewPattern(opts.frequency, opts.interval, days, opts.monthDay)
	if err != nil {
		return "", err
	}
	loc := time.UTC
	if opts.timezone != "" {
		loc, err = time.LoadLocation(opts.timezone)
		if err != nil {
			return "", fmt.Errorf("invalid timezone %q: %w", opts.timezone, err)
		}
	}
	start := now
	if opts.start != "" {
		start, err = time.ParseInLocation("2006-01-02", opts.start, loc)
		if err != nil {
			return "", fmt.Errorf("invalid start date %q: %w", opts.start, err)
		}
	}
	return recurrence.Encode(pattern, start, loc)
}

func describeRule(rule string) (ruleInfo, error) {
	decoded, err := recurrence.Decode(rule)
	if err != nil {
		return ruleInfo{}, err
	}
	info := ruleInfo{
		Rule:        rule,
		Frequency:   decoded.Pattern.Frequency(),
		Description: recurrence.Describe(decoded.Pattern),
	}
	if !decoded.Start.IsZero() {
		info.Start = decoded.Start.Format("2006-01-02")
	}
	return info, nil
}

// normalizeRuleArg accepts the two rule lines separated by a space or a
// literal \n, as typed in a shell.
func normalizeRuleArg(raw string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(raw, `\n`, " ")), "\n")
}
