package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dandantas/refreshwatch/internal/config"
	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/dandantas/refreshwatch/internal/monitor"
	"github.com/dandantas/refreshwatch/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ErrRefreshNotStarted is returned when a requested refresh could not be submitted
var ErrRefreshNotStarted = errors.New("refresh could not be started")

// ErrStatusCheckFailed is returned when the dashboard could not be asked for a running refresh
var ErrStatusCheckFailed = errors.New("refresh status check failed")

type WatchOptions struct {
	GlobalOptions
	Trigger bool
	Timeout time.Duration
}

func DefaultWatchOptions() *WatchOptions {
	return &WatchOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdWatch() *cobra.Command {
	o := DefaultWatchOptions()
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the progress of the dashboard refresh in the terminal",
		Long: "Show the progress of a running dashboard refresh until it finishes.\n" +
			"With --trigger a new refresh is submitted first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd, args)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *WatchOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.BoolVarP(&o.Trigger, "trigger", "t", o.Trigger, "Submit a new refresh before watching")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Give up after this long (0 waits until the refresh ends)")
}

func (o *WatchOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

func (o *WatchOptions) Run(cmd *cobra.Command, args []string) error {
	cfg := o.Config()
	// stdout belongs to the progress bar
	config.InitLoggerTo(cfg, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	client, err := newStatusClient(cfg)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(cfg, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	mon := monitor.New(client, render.NewConsole(out), monitorConfig(cfg), notifier, nil)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = mon.Stop(shutdownCtx)
		_ = notifier.Wait(shutdownCtx)
	}()

	var session *model.PollSession
	if o.Trigger {
		session = mon.TriggerRefresh(ctx)
		if session == nil {
			fmt.Fprintln(out, model.UnexpectedErrorMessage)
			return ErrRefreshNotStarted
		}
	} else {
		session, err = mon.Discover(ctx)
		if err != nil {
			fmt.Fprintln(out, model.UnexpectedErrorMessage)
			return fmt.Errorf("%w: %w", ErrStatusCheckFailed, err)
		}
		if session == nil {
			fmt.Fprintln(out, "No refresh in progress.")
			return nil
		}
	}

	outcome, err := mon.Wait(ctx)
	if err != nil {
		return fmt.Errorf("stopped watching session %s: %w", session.ID, err)
	}

	switch outcome.Outcome {
	case model.OutcomeCompleted:
		return nil
	case model.OutcomeLocked:
		fmt.Fprintln(out, "Progress of this refresh is reported elsewhere.")
		return nil
	default:
		return fmt.Errorf("refresh %s: %s", outcome.Outcome, outcome.Message)
	}
}
