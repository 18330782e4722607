// Package tracker talks to the eye tracker controller over HTTP. Types
// mirror the controller wire protocol without importing server
// packages.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zekun-wu/EyeReadDemo/internal/gaze"
)

// Client drives one device tracking session on the controller daemon.
// Lifecycle calls fold every failure, transport included, into the
// success/message outcome shape the coordinator branches on.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client targeting the given base URL
// (e.g. "http://127.0.0.1:8000").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type gazeResponse struct {
	Success         bool      `json:"success"`
	CurrentPosition *position `json:"current_position,omitempty"`
}

type position struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// Connect asks the controller to find and connect an eye tracker.
func (c *Client) Connect(ctx context.Context) gaze.Result {
	return c.lifecycle(ctx, "/eye-tracking/connect", nil)
}

// SetContext tells the device which page the reader is viewing.
func (c *Client) SetContext(ctx context.Context, imageFile string) gaze.Result {
	form := url.Values{"image_filename": {imageFile}}
	return c.lifecycle(ctx, "/eye-tracking/set-context", form)
}

// Start begins the gaze stream.
func (c *Client) Start(ctx context.Context) gaze.Result {
	return c.lifecycle(ctx, "/eye-tracking/start", nil)
}

// Stop ends the gaze stream. Safe to call in any session state.
func (c *Client) Stop(ctx context.Context) gaze.Result {
	return c.lifecycle(ctx, "/eye-tracking/stop", nil)
}

// Sample fetches the device's current gaze position. ok is false when
// the device holds no valid sample right now; that is not an error.
func (c *Client) Sample(ctx context.Context) (gaze.Sample, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/eye-tracking/gaze", nil)
	if err != nil {
		return gaze.Sample{}, false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return gaze.Sample{}, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return gaze.Sample{}, false, fmt.Errorf("GET /eye-tracking/gaze: %d %s", resp.StatusCode, string(body))
	}
	var out gazeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return gaze.Sample{}, false, err
	}
	if !out.Success || out.CurrentPosition == nil {
		return gaze.Sample{}, false, nil
	}
	return gaze.Sample{
		X:          out.CurrentPosition.X,
		Y:          out.CurrentPosition.Y,
		CapturedAt: timeFromUnix(out.CurrentPosition.Timestamp),
	}, true, nil
}

func (c *Client) lifecycle(ctx context.Context, path string, form url.Values) gaze.Result {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return gaze.Failure(err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return gaze.Failure(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return gaze.Result{OK: false, Message: fmt.Sprintf("POST %s: %d %s", path, resp.StatusCode, string(respBody))}
	}
	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return gaze.Failure(err)
	}
	return gaze.Result{OK: out.Success, Message: out.Message}
}

func timeFromUnix(ts float64) time.Time {
	if ts <= 0 {
		return time.Now()
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9))
}
