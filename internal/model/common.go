package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Auth represents authentication configuration
type Auth struct {
	Type     string `json:"type" bson:"type"`                             // "basic" | "bearer" | "none"
	Username string `json:"username,omitempty" bson:"username,omitempty"` // For basic auth
	Password string `json:"password,omitempty" bson:"password,omitempty"` // For basic auth
	Token    string `json:"token,omitempty" bson:"token,omitempty"`       // For bearer token
}

// Validate validates auth configuration
func (a *Auth) Validate() error {
	switch strings.ToLower(a.Type) {
	case "basic":
		if a.Username == "" || a.Password == "" {
			return errors.New("username and password required for basic auth")
		}
	case "bearer":
		if a.Token == "" {
			return errors.New("token required for bearer auth")
		}
	case "none", "":
		// No validation needed
	default:
		return fmt.Errorf("invalid auth type: %s (must be 'basic', 'bearer', or 'none')", a.Type)
	}
	return nil
}

// Dashboard describes the case dashboard whose refresh job is observed
type Dashboard struct {
	URL           string        `json:"url"`
	StatusPath    string        `json:"status_path"`
	RefreshPath   string        `json:"refresh_path"`
	Auth          Auth          `json:"auth,omitempty"`
	SessionCookie string        `json:"-"` // Raw Cookie header for dashboards behind a login
	Timeout       time.Duration `json:"timeout,omitempty"`
}

// Validate validates dashboard configuration and fills defaults
func (d *Dashboard) Validate() error {
	if d.URL == "" {
		return errors.New("dashboard URL is required")
	}

	parsedURL, err := url.Parse(d.URL)
	if err != nil {
		return fmt.Errorf("invalid dashboard URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("dashboard URL must start with http:// or https://")
	}

	if d.StatusPath == "" {
		d.StatusPath = "/progress/status"
	}
	if d.RefreshPath == "" {
		d.RefreshPath = "/refresh"
	}

	if err := d.Auth.Validate(); err != nil {
		return fmt.Errorf("auth validation failed: %w", err)
	}

	if d.Timeout == 0 {
		d.Timeout = 30 * time.Second
	}

	return nil
}

// RetryConfig represents webhook retry configuration
type RetryConfig struct {
	MaxAttempts    int     `json:"max_attempts" bson:"max_attempts"`
	InitialDelayMs int     `json:"initial_delay_ms" bson:"initial_delay_ms"`
	MaxDelayMs     int     `json:"max_delay_ms" bson:"max_delay_ms"`
	Multiplier     float64 `json:"multiplier" bson:"multiplier"`
}

// SetDefaults sets default values for retry configuration
func (rc *RetryConfig) SetDefaults() {
	if rc.MaxAttempts == 0 {
		rc.MaxAttempts = 3
	}
	if rc.InitialDelayMs == 0 {
		rc.InitialDelayMs = 1000
	}
	if rc.MaxDelayMs == 0 {
		rc.MaxDelayMs = 30000
	}
	if rc.Multiplier == 0 {
		rc.Multiplier = 2.0
	}
}

// Webhook represents the notification webhook configuration
type Webhook struct {
	URL         string            `json:"url" bson:"url"`
	Method      string            `json:"method" bson:"method"`
	Headers     map[string]string `json:"headers,omitempty" bson:"headers,omitempty"`
	RetryConfig RetryConfig       `json:"retry_config,omitempty" bson:"retry_config,omitempty"`
}

// Validate validates webhook configuration
func (w *Webhook) Validate() error {
	if w.URL == "" {
		return errors.New("webhook URL is required")
	}

	parsedURL, err := url.Parse(w.URL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("webhook URL must start with http:// or https://")
	}

	if w.Method == "" {
		w.Method = "POST"
	}
	w.Method = strings.ToUpper(w.Method)

	w.RetryConfig.SetDefaults()

	return nil
}
