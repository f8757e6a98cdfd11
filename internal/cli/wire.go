package cli

import (
	"fmt"

	"github.com/dandantas/refreshwatch/internal/config"
	"github.com/dandantas/refreshwatch/internal/database"
	"github.com/dandantas/refreshwatch/internal/decoder"
	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/dandantas/refreshwatch/internal/monitor"
	"github.com/dandantas/refreshwatch/internal/service"
	"github.com/dandantas/refreshwatch/internal/webhook"
)

// newStatusClient builds the dashboard client from configuration
func newStatusClient(cfg *config.Config) (*service.StatusClient, error) {
	dec, err := decoder.New(decoder.FieldPaths{
		State:   cfg.StatusPathState,
		Current: cfg.StatusPathCurrent,
		Total:   cfg.StatusPathTotal,
		Result:  cfg.StatusPathResult,
		Locked:  cfg.StatusPathLocked,
		Message: cfg.StatusPathMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid status field paths: %w", err)
	}

	dashboard := model.Dashboard{
		URL:         cfg.DashboardURL,
		StatusPath:  cfg.DashboardStatusPath,
		RefreshPath: cfg.DashboardRefreshPath,
		Auth: model.Auth{
			Type:     cfg.DashboardAuthType,
			Username: cfg.DashboardUsername,
			Password: cfg.DashboardPassword,
			Token:    cfg.DashboardToken,
		},
		SessionCookie: cfg.DashboardSessionCookie,
		Timeout:       cfg.RequestTimeout,
	}

	return service.NewStatusClient(service.NewHTTPClient(cfg.RequestTimeout), dashboard, dec)
}

// newNotifier builds the notifier; the webhook is optional
func newNotifier(cfg *config.Config, store webhook.DeliveryStore) (*webhook.Notifier, error) {
	if cfg.WebhookURL == "" {
		return webhook.NewNotifier(nil, nil, false, nil), nil
	}

	wh := &model.Webhook{URL: cfg.WebhookURL}
	if err := wh.Validate(); err != nil {
		return nil, fmt.Errorf("invalid webhook: %w", err)
	}

	dispatcher := webhook.NewDispatcher(cfg.WebhookTimeout, nil)
	return webhook.NewNotifier(dispatcher, wh, cfg.WebhookNotifyTerminal, store), nil
}

func monitorConfig(cfg *config.Config) monitor.Config {
	return monitor.Config{
		Target:       cfg.RenderTarget,
		PollInterval: cfg.PollInterval,
		MaxDuration:  cfg.PollMaxDuration,
		MaxFailures:  cfg.PollMaxFailures,
	}
}

// mongoOptions sizes the history connection from configuration
func mongoOptions(cfg *config.Config) database.Options {
	poolSize := cfg.MongoMaxPool
	if poolSize < 1 {
		poolSize = 1
	}
	return database.Options{
		URI:         cfg.MongoURI,
		Database:    cfg.MongoDatabase,
		Timeout:     cfg.MongoTimeout,
		MaxPoolSize: uint64(poolSize),
		AppName:     "refreshwatch/" + Version,
	}
}
