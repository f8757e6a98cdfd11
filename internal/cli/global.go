package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/dandantas/refreshwatch/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GlobalOptions are the flags shared by every command. Everything else is
// configured through the environment.
type GlobalOptions struct {
	DashboardURL string
	LogLevel     string

	cfg *config.Config
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.DashboardURL, "dashboard-url", "u", o.DashboardURL, "Base URL of the dashboard (overrides DASHBOARD_URL)")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level: debug, info, warn or error (overrides LOG_LEVEL)")
}

// Complete loads the environment configuration and applies flag overrides
func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	o.cfg = config.Load()
	if o.DashboardURL != "" {
		o.cfg.DashboardURL = o.DashboardURL
	}
	if o.LogLevel != "" {
		o.cfg.LogLevel = o.LogLevel
	}
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	if o.cfg == nil {
		return errors.New("options not completed")
	}
	u, err := url.Parse(o.cfg.DashboardURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid dashboard URL %q", o.cfg.DashboardURL)
	}
	if o.cfg.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL_MS must be positive")
	}
	return nil
}

// Config returns the completed configuration
func (o *GlobalOptions) Config() *config.Config {
	return o.cfg
}
