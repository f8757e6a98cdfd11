package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dandantas/refreshwatch/internal/decoder"
	"github.com/dandantas/refreshwatch/internal/model"
)

// maxStatusBody caps how much of a status response is read
const maxStatusBody = 1024 * 1024

// StatusClient talks to the dashboard's refresh endpoints
type StatusClient struct {
	httpClient *http.Client
	dashboard  model.Dashboard
	baseURL    *url.URL
	decoder    *decoder.Decoder
}

// NewStatusClient creates a client for the given dashboard
func NewStatusClient(httpClient *http.Client, dashboard model.Dashboard, dec *decoder.Decoder) (*StatusClient, error) {
	if err := dashboard.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(dashboard.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard URL: %w", err)
	}

	if dec == nil {
		dec = decoder.MustNew()
	}

	return &StatusClient{
		httpClient: httpClient,
		dashboard:  dashboard,
		baseURL:    baseURL,
		decoder:    dec,
	}, nil
}

// CheckActive asks the dashboard whether a refresh is running. It returns
// the status locator of the running job, or model.ErrNoActiveJob.
func (c *StatusClient) CheckActive(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.resolve(c.dashboard.StatusPath))
	if err != nil {
		return "", fmt.Errorf("status check failed: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status check returned status %d", resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if resp.StatusCode != http.StatusAccepted || location == "" {
		return "", model.ErrNoActiveJob
	}

	return c.resolve(location), nil
}

// Submit starts a new refresh job and returns its status locator
func (c *StatusClient) Submit(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.resolve(c.dashboard.RefreshPath))
	if err != nil {
		return "", fmt.Errorf("refresh submission failed: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("refresh submission returned status %d", resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", model.ErrMissingLocation
	}

	return c.resolve(location), nil
}

// Fetch retrieves and decodes the job status at a locator
func (c *StatusClient) Fetch(ctx context.Context, statusURL string) (*model.JobStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, statusURL)
	if err != nil {
		return nil, fmt.Errorf("status fetch failed: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}

	status, err := c.decoder.Decode(body)
	if err != nil {
		return nil, err
	}

	slog.Debug("Fetched job status",
		"status_url", statusURL,
		"state", status.State,
		"current", status.Current,
		"total", status.Total,
		"locked", status.Locked,
	)

	return status, nil
}

// resolve turns a path or a relative Location into an absolute URL
func (c *StatusClient) resolve(ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.baseURL.ResolveReference(parsed).String()
}

func (c *StatusClient) do(ctx context.Context, method, target string) (*http.Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.dashboard.Timeout)

	req, err := http.NewRequestWithContext(reqCtx, method, target, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.dashboard.SessionCookie != "" {
		req.Header.Set("Cookie", c.dashboard.SessionCookie)
	}
	if err := setAuthentication(req, c.dashboard.Auth); err != nil {
		cancel()
		return nil, err
	}

	slog.Debug("Dashboard request", "method", method, "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// setAuthentication sets authentication headers on the request
func setAuthentication(req *http.Request, auth model.Auth) error {
	switch strings.ToLower(auth.Type) {
	case "basic":
		req.SetBasicAuth(auth.Username, auth.Password)
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case "none", "":
		// No authentication
	default:
		return fmt.Errorf("unsupported auth type: %s", auth.Type)
	}
	return nil
}

// cancelOnClose releases the request context once the body is closed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxStatusBody))
	resp.Body.Close()
}
