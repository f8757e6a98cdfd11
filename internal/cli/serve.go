package cli

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

	"github.com/dandantas/refreshwatch/internal/config"
	"github.com/dandantas/refreshwatch/internal/database"
	"github.com/dandantas/refreshwatch/internal/handler"
	"github.com/dandantas/refreshwatch/internal/monitor"
	"github.com/dandantas/refreshwatch/internal/render"
	"github.com/dandantas/refreshwatch/internal/scheduler"
	"github.com/dandantas/refreshwatch/internal/service"
	"github.com/dandantas/refreshwatch/internal/webhook"
	"github.com/dandantas/refreshwatch/pkg/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ServeOptions struct {
	GlobalOptions
	Port       string
	NoDiscover bool
	Console    bool
}

func DefaultServeOptions() *ServeOptions {
	return &ServeOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdServe() *cobra.Command {
	o := DefaultServeOptions()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the refresh monitor with its HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context())
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ServeOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Port, "port", "p", o.Port, "HTTP port (overrides HTTP_PORT)")
	fs.BoolVar(&o.NoDiscover, "no-discover", o.NoDiscover, "Do not look for a running refresh on start")
	fs.BoolVar(&o.Console, "console", o.Console, "Also draw the progress bar on stderr")
}

func (o *ServeOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	if o.Port != "" {
		o.cfg.HTTPPort = o.Port
	}
	return nil
}

func (o *ServeOptions) Run(ctx context.Context) error {
	cfg := o.Config()
	config.InitLogger(cfg)

	slog.Info("Starting refreshwatch", "version", Version, "dashboard_url", cfg.DashboardURL)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Optional MongoDB-backed history and scheduler lock
	var (
		sessionStore  service.SessionStore
		deliveryStore webhook.DeliveryStore
		locker        scheduler.Locker
		pinger        handler.Pinger
	)
	if cfg.MongoEnabled {
		db, err := database.Connect(ctx, mongoOptions(cfg))
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				slog.Error("Failed to disconnect from MongoDB", "error", err)
			}
		}()

		if err := database.CreateIndexes(ctx, db); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		sessionStore = database.NewSessionRepository(db)
		deliveryStore = database.NewDeliveryRepository(db)
		locker = database.NewLockRepository(db)
		pinger = db
	} else {
		slog.Info("MongoDB disabled, session history is not kept")
	}

	history := service.NewHistoryService(sessionStore)

	client, err := newStatusClient(cfg)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(cfg, deliveryStore)
	if err != nil {
		return err
	}

	target := render.NewTarget(cfg.RenderTarget)
	var sink render.Sink = target
	if o.Console {
		sink = render.Fanout{target, render.NewConsole(os.Stderr)}
	}
	mon := monitor.New(client, sink, monitorConfig(cfg), notifier, history)

	if !o.NoDiscover {
		mon.StartOrDiscover(ctx)
	}

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched, err = scheduler.New(cfg.RefreshSchedule, cfg.SchedulerLockTTL, mon, locker)
		if err != nil {
			return err
		}
		sched.Start()
	} else {
		slog.Info("Scheduler is disabled by configuration")
	}

	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	router := handler.NewRouter(
		handler.NewProgressHandler(mon, target),
		handler.NewSessionHandler(history),
		handler.NewHealthHandler(pinger, Version),
		corsConfig,
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case <-sigChan:
		slog.Info("Received shutdown signal, initiating graceful shutdown")
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop triggering first, then polling, then serving
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := mon.Stop(shutdownCtx); err != nil {
		slog.Error("Refresh monitor shutdown error", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	if err := notifier.Wait(shutdownCtx); err != nil {
		slog.Warn("Pending notifications dropped", "error", err)
	}

	slog.Info("refreshwatch stopped")
	return runErr
}
