package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/subtlepseudonym/lukashian"
	"github.com/subtlepseudonym/lukashian/config"
	"github.com/subtlepseudonym/lukashian/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dates and tables over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// service is the state a config reload replaces
type service struct {
	config   *config.Config
	calendar *lukashian.Calendar
	handler  http.Handler
}

// swapHandler serves with whichever service is current
type swapHandler struct {
	current atomic.Pointer[service]
}

func (h *swapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.current.Load().handler.ServeHTTP(w, r)
}

// currentCalendar resolves with whichever calendar is current
type currentCalendar struct {
	handler *swapHandler
}

func (c currentCalendar) NextBoundary(ctx context.Context, civil int64) (int64, error) {
	return c.handler.current.Load().calendar.NextBoundary(ctx, civil)
}

func (c currentCalendar) Now(ctx context.Context) (lukashian.Date, error) {
	return c.handler.current.Load().calendar.Now(ctx)
}

func newService(cfg *config.Config, cal *lukashian.Calendar, logger *slog.Logger) *service {
	srv := &server.Server{
		Calendar: cal,
		Layout:   cfg.DateLayout(),
		Logger:   logger,
	}
	return &service{config: cfg, calendar: cal, handler: srv.Handler()}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, cal, closer, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closer()

	handler := &swapHandler{}
	handler.current.Store(newService(cfg, cal, logger))

	now := time.Now()
	jobs := cron.New()

	refresh, err := cfg.RefreshSchedule()
	if err != nil {
		return fmt.Errorf("parse refresh schedule: %w", err)
	}
	jobs.Schedule(refresh, cron.FuncJob(func() {
		refreshTables(ctx, handler.current.Load(), logger)
	}))
	logger.Info("scheduled table refresh", "next", refresh.Next(now).Local().Format(time.RFC3339))

	current := currentCalendar{handler: handler}
	daySchedule := &lukashian.DaySchedule{Calendar: current, Logger: logger}
	jobs.Schedule(daySchedule, lukashian.DayJob{
		Calendar: current,
		Logger:   logger,
		Func: func(date lukashian.Date) {
			logger.Info("new day", "date", date.String())
		},
	})

	if configFile != "" {
		watcher, err := watchConfig(ctx, configFile, logger, func(next *config.Config) {
			reload(ctx, handler, next, logger)
		})
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: handler,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			logger.Error("shut down server", "error", err)
		}
	}()

	jobs.Start()
	defer jobs.Stop()

	logger.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// refreshTables makes sure the configured span around today is built
func refreshTables(ctx context.Context, svc *service, logger *slog.Logger) {
	start, end, err := svc.config.CivilSpan(time.Now())
	if err != nil {
		logger.Error("refresh tables", "error", err)
		return
	}
	if err := svc.calendar.Ensure(ctx, start, end); err != nil {
		logger.Error("refresh tables", "error", err)
	}
}

// reload swaps in a calendar and handler built from next. The table
// cache is kept from startup.
func reload(ctx context.Context, handler *swapHandler, next *config.Config, logger *slog.Logger) {
	current := handler.current.Load()

	opts := next.CalendarOptions(logger)
	opts.Cache = current.calendar.Cache()
	cal := lukashian.New(opts)
	cal.Set(current.calendar.Tables())

	svc := newService(next, cal, logger)
	refreshTables(ctx, svc, logger)
	handler.current.Store(svc)

	if next.Listen != current.config.Listen {
		logger.Warn("listen address changes need a restart", "listen", current.config.Listen)
	}
	logger.Info("reloaded config")
}

// watchConfig calls apply with every valid version of the config file
// written after it is called
func watchConfig(ctx context.Context, path string, logger *slog.Logger, apply func(*config.Config)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}

	// editors often replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}

				next, err := config.Open(path)
				if err == nil {
					err = next.Validate()
				}
				if err != nil {
					logger.Error("reload config", "error", err)
					continue
				}
				apply(next)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("watch config", "error", err)
			}
		}
	}()

	return watcher, nil
}
