package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/subtlepseudonym/lukashian"
	"github.com/subtlepseudonym/lukashian/config"
	"github.com/subtlepseudonym/lukashian/store"
)

var (
	configFile string
	layoutFlag string
	levelFlag  string

	rootCmd = &cobra.Command{
		Use:   "lukashian",
		Short: "Dates and times in The Lukashian Calendar",
		Long: `lukashian converts civil time to The Lukashian Calendar, where years
end at the December solstice and days end at true solar midnight, each
day divided into 10000 beeps.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (.json, .yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&layoutFlag, "layout", "", "date layout: beep-first or year-first")
	rootCmd.PersistentFlags().StringVar(&levelFlag, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(nowCmd, dateCmd, buildCmd, sunCmd, watchCmd, serveCmd)
}

func main() {
	// manually set local timezone for docker container
	if tz := os.Getenv("TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Fatalf("ERR: load tz location: %s", err)
		}
		time.Local = loc
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.Open(configFile)
		if err != nil {
			return nil, err
		}
	}

	if layoutFlag != "" {
		cfg.Layout = layoutFlag
	}
	if levelFlag != "" {
		cfg.LogLevel = levelFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	return logger
}

// newCalendar returns a Calendar backed by the configured cache. The
// returned function closes the cache.
func newCalendar(cfg *config.Config, logger *slog.Logger) (*lukashian.Calendar, func(), error) {
	opts := cfg.CalendarOptions(logger)
	closer := func() {}

	if cfg.CacheEnabled() {
		s, err := store.Open(cfg.StoreConfig(logger.With("component", "store")))
		if err != nil {
			return nil, nil, fmt.Errorf("open table cache: %w", err)
		}
		opts.Cache = s
		closer = func() {
			if err := s.Close(); err != nil {
				logger.Error("close table cache", "error", err)
			}
		}
	}

	return lukashian.New(opts), closer, nil
}

// setup loads config, logging and a calendar covering the configured
// span
func setup(ctx context.Context) (*config.Config, *slog.Logger, *lukashian.Calendar, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger := newLogger(cfg)

	cal, closer, err := newCalendar(cfg, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	start, end, err := cfg.CivilSpan(time.Now())
	if err != nil {
		closer()
		return nil, nil, nil, nil, err
	}
	if err := cal.Ensure(ctx, start, end); err != nil {
		closer()
		return nil, nil, nil, nil, fmt.Errorf("build tables: %w", err)
	}

	return cfg, logger, cal, closer, nil
}
