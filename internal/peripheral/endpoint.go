package peripheral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize caps how much of a device response is read. Device state
// documents are small; anything larger is treated as malformed.
const maxBodySize = 64 << 10

// endpoint holds the outbound HTTP plumbing shared by networked
// peripheral kinds. Each state read or command write is a single attempt
// bounded by the configured call timeout.
type endpoint struct {
	cfg     Config
	battery int
	timeout time.Duration
	client  *http.Client
	logger  Logger
}

func (e *endpoint) ID() string { return e.cfg.ID }

func (e *endpoint) Config() Config { return e.cfg }

func (e *endpoint) BatteryLevel() int { return e.battery }

func (e *endpoint) stateURL() string {
	addr := e.cfg.Address
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return fmt.Sprintf("%s/state?id=%s", strings.TrimSuffix(addr, "/"), url.QueryEscape(e.cfg.ID))
}

// fetch performs one GET against the device state endpoint and returns
// the raw body along with its decoded JSON fields.
func (e *endpoint) fetch(ctx context.Context) (string, map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.stateURL(), nil)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return string(body), fields, nil
}

// post sends one state-change command to the device.
func (e *endpoint) post(ctx context.Context, state string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"state": state})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadCommand, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.stateURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize)) //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

// numericField extracts a JSON number from a decoded state document.
func numericField(fields map[string]any, name string) (float64, bool) {
	v, ok := fields[name]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// boolField extracts a JSON boolean from a decoded state document.
func boolField(fields map[string]any, name string) (bool, bool) {
	v, ok := fields[name]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
