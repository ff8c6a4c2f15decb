package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jasperbot/jasper"
	"github.com/jasperbot/jasper/apps/remindme"
	"github.com/jasperbot/jasper/config"
	"github.com/jasperbot/jasper/events"
	"github.com/jasperbot/jasper/model"
	"github.com/jasperbot/jasper/ops"
	"github.com/jasperbot/jasper/rest"
	"github.com/jasperbot/jasper/storage"
	"github.com/jasperbot/jasper/storage/memory"
	"github.com/jasperbot/jasper/storage/natskv"
	"github.com/jasperbot/jasper/util"
)

func runCmd() *cobra.Command {
	var (
		configPath string
		debugWire  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the gateway and serve commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return run(ctx, cfg, debugWire)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a JSON config file")
	cmd.Flags().BoolVar(&debugWire, "debug-wire", false, "print every gateway frame to stderr")

	return cmd
}

func openStore(ctx context.Context, r config.Reminders) (storage.Store, func(), error) {
	switch r.Backend {
	case config.BackendNATS:
		s, err := natskv.Connect(ctx, r.NATSURL, r.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}

func run(ctx context.Context, cfg *config.Config, debugWire bool) error {
	logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := jasper.NewMetrics()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg.Reminders)
	if err != nil {
		return fmt.Errorf("open reminder store: %w", err)
	}
	defer closeStore()

	api := rest.New(cfg.Token, cfg.BaseURL, &http.Client{Timeout: cfg.Timeout.Std()})

	opts := &jasper.WsOptions{
		Timeout: cfg.Timeout.Std(),
		Gateway: api,
		Version: cfg.GatewayVersion,
		Logger:  logger,
		Metrics: metrics,
	}
	if debugWire {
		opts.Debugger = &util.StderrDebugger{Truncate: true}
	}
	bot := jasper.New(cfg.Token, opts)

	reminders := remindme.New(api, store, logger, cfg.Reminders.TimeZone())
	if err := bot.On(events.MessageCreate, reminders.Handler()); err != nil {
		return err
	}
	if err := bot.On(events.Ready, readyHandler(logger)); err != nil {
		return err
	}

	srv := ops.NewServer(cfg.OpsAddr, ops.Router(reg, bot.Connected), logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.ListenAndServe)

	g.Go(func() error {
		err := reminders.Run(gctx, cfg.Reminders.PollInterval.Std())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		err := bot.Start(gctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		if derr := bot.Stop(cfg.DrainTimeout.Std()); derr != nil {
			logger.Warn("handlers still running at shutdown", "error", derr)
		}
		return err
	})

	// The bot, the poller and the server stop together.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shut down")
	return nil
}

// readyHandler logs who the bot is connected as.
func readyHandler(logger *slog.Logger) events.Handler {
	return events.OnReady(func(_ context.Context, r *model.Ready) error {
		user := ""
		if r.User != nil {
			user = r.User.Username
		}
		logger.Info("ready", "user", user, "guilds", len(r.Guilds))
		return nil
	})
}
