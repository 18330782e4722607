// Package client makes REST calls to the GlimmerRead daemon on behalf
// of the reading app: narration requests, the picture shelf, and the
// daemon status line. The device session lifecycle has its own client
// in internal/tracker; this package covers everything else.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Narration is the daemon's answer to a narration request. The text is
// always present (the daemon falls back rather than failing); the audio
// URL is empty when speech synthesis was unavailable.
type Narration struct {
	Text       string   `json:"narration_text"`
	AudioURL   string   `json:"audio_url"`
	Age        int      `json:"age"`
	Language   string   `json:"language"`
	Filenames  []string `json:"image_filenames,omitempty"`
	ImageCount int      `json:"image_count,omitempty"`
	Timestamp  int64    `json:"timestamp"`
}

// Status is the daemon status snapshot shown in the status bar.
type Status struct {
	Connected     bool    `json:"connected"`
	Tracking      bool    `json:"tracking"`
	Model         string  `json:"model,omitempty"`
	DeviceName    string  `json:"device_name,omitempty"`
	Serial        string  `json:"serial_number,omitempty"`
	CurrentImage  string  `json:"current_image,omitempty"`
	BufferSize    int     `json:"buffer_size"`
	Observers     int     `json:"ws_clients"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// API is the HTTP client for the daemon's app surface.
type API struct {
	baseURL string
	client  *http.Client
}

// New creates a client targeting the given base URL
// (e.g. "http://127.0.0.1:8000").
func New(baseURL string) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Narrate asks the daemon to narrate the given pages for a reader of
// the given age and language. Pages are joined into the comma-separated
// form the daemon expects.
func (a *API) Narrate(ctx context.Context, pages []string, age int, language string) (*Narration, error) {
	form := url.Values{
		"image_filenames": {strings.Join(pages, ",")},
		"age":             {strconv.Itoa(age)},
		"language":        {language},
	}
	var n Narration
	if err := a.postForm(ctx, "/generate-from-filename", form, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Pictures fetches the picture shelf, sorted the way the daemon serves
// it.
func (a *API) Pictures(ctx context.Context) ([]string, error) {
	var out struct {
		Pictures []string `json:"pictures"`
	}
	if err := a.get(ctx, "/api/pictures", &out); err != nil {
		return nil, err
	}
	return out.Pictures, nil
}

// Status fetches /eye-tracking/status.
func (a *API) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := a.get(ctx, "/eye-tracking/status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AudioURL resolves a daemon-relative audio path ("/static/...") into
// an absolute URL the player can fetch.
func (a *API) AudioURL(path string) string {
	if path == "" || strings.Contains(path, "://") {
		return path
	}
	return a.baseURL + path
}

func (a *API) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *API) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
