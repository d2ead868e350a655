package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/subtlepseudonym/lukashian"
	"github.com/subtlepseudonym/lukashian/transport"
)

var (
	beepStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F4D03F"))
	dayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#20B9B4"))
	yearStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
)

var (
	buildOut    string
	buildFormat string
	sunDate     string

	nowCmd = &cobra.Command{
		Use:   "now",
		Short: "Print the current Lukashian date",
		Args:  cobra.NoArgs,
		RunE:  runNow,
	}
	dateCmd = &cobra.Command{
		Use:   "date <unix-ms>...",
		Short: "Print the Lukashian date of unix millisecond timestamps",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDate,
	}
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build tables for the configured range and write them out",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}
	sunCmd = &cobra.Command{
		Use:   "sun",
		Short: "Print sunrise, solar noon and sunset at the configured location",
		Args:  cobra.NoArgs,
		RunE:  runSun,
	}
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print the date at the start of every day",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
)

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "-", "output file, - for stdout")
	buildCmd.Flags().StringVar(&buildFormat, "format", "json", "output format: json or cbor")
	sunCmd.Flags().StringVar(&sunDate, "date", "", "civil date as YYYY-MM-DD, default today")
}

// formatDate styles the date when w is a terminal
func formatDate(w io.Writer, date lukashian.Date, layout lukashian.Layout) string {
	f, ok := w.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return date.Format(layout)
	}

	beep := beepStyle.Render(fmt.Sprintf("%04d", date.Beep))
	day := dayStyle.Render(fmt.Sprintf("%03d", date.Day))
	year := yearStyle.Render(strconv.Itoa(date.Year))
	if layout == lukashian.LayoutYearFirst {
		return fmt.Sprintf("%s-%s %s", year, day, beep)
	}
	return fmt.Sprintf("%s %s-%s", beep, day, year)
}

func runNow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, _, cal, closer, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closer()

	date, err := cal.Now(ctx)
	if err != nil {
		return fmt.Errorf("resolve now: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, formatDate(out, date, cfg.DateLayout()))
	return nil
}

func runDate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, _, cal, closer, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closer()

	out := cmd.OutOrStdout()
	for _, arg := range args {
		unix, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", arg, err)
		}

		date, err := cal.Resolve(ctx, unix)
		if err != nil {
			return fmt.Errorf("resolve %d: %w", unix, err)
		}
		fmt.Fprintln(out, formatDate(out, date, cfg.DateLayout()))
	}
	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, cal, closer, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closer()

	var data []byte
	switch buildFormat {
	case "json":
		start, end, err := cfg.CivilSpan(time.Now())
		if err != nil {
			return err
		}
		record := transport.FromTables(cal.Tables()).WithSpan(time.UnixMilli(start), time.UnixMilli(end))
		data, err = json.MarshalIndent(record, "", "\t")
		if err != nil {
			return fmt.Errorf("encode tables: %w", err)
		}
	case "cbor":
		data, err = transport.MarshalCBOR(cal.Tables())
		if err != nil {
			return fmt.Errorf("encode tables: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q", buildFormat)
	}

	if buildOut == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(buildOut, data, 0644); err != nil {
		return fmt.Errorf("write tables: %w", err)
	}
	logger.Info("wrote tables", "path", buildOut, "range", cal.Tables().Range().String(), "bytes", len(data))
	return nil
}

func runSun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, _, cal, closer, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closer()

	day := time.Now()
	if sunDate != "" {
		day, err = time.Parse("2006-01-02", sunDate)
		if err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
	}

	events, err := lukashian.SunEvents(ctx, cal, cfg.Location, day)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range []struct {
		name  string
		event lukashian.SunEvent
	}{
		{"sunrise", events.Sunrise},
		{"noon", events.Noon},
		{"sunset", events.Sunset},
	} {
		fmt.Fprintf(out, "%-8s %s  %s\n", e.name, formatDate(out, e.event.Date, cfg.DateLayout()), e.event.Time.Local().Format(time.RFC3339))
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, cal, closer, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closer()

	out := cmd.OutOrStdout()
	printDate := func(date lukashian.Date) {
		fmt.Fprintln(out, formatDate(out, date, cfg.DateLayout()))
	}

	date, err := cal.Now(ctx)
	if err != nil {
		return fmt.Errorf("resolve now: %w", err)
	}
	printDate(date)

	schedule := &lukashian.DaySchedule{Calendar: cal, Logger: logger}
	logger.Info("watching for day starts", "next", schedule.Next(time.Now()).Local().Format(time.RFC3339))

	dayCron := cron.New()
	dayCron.Schedule(schedule, lukashian.DayJob{Calendar: cal, Func: printDate, Logger: logger})
	dayCron.Start()
	defer dayCron.Stop()

	<-ctx.Done()
	return nil
}
