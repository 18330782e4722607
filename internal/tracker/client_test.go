package tracker

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type recordedCall struct {
	method string
	path   string
	form   string
	ctype  string
}

// newTestServer answers every lifecycle call with the scripted body and
// records what arrived.
func newTestServer(t *testing.T, body string) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var mu sync.Mutex
	calls := &[]recordedCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		mu.Lock()
		*calls = append(*calls, recordedCall{
			method: r.Method,
			path:   r.URL.Path,
			form:   r.PostForm.Encode(),
			ctype:  r.Header.Get("Content-Type"),
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestLifecycleCallsHitControllerEndpoints(t *testing.T) {
	srv, calls := newTestServer(t, `{"success": true, "message": "ok"}`)
	c := NewClient(srv.URL)
	ctx := t.Context()

	if res := c.Connect(ctx); !res.OK || res.Message != "ok" {
		t.Fatalf("Connect: %+v", res)
	}
	if res := c.SetContext(ctx, "4.png"); !res.OK {
		t.Fatalf("SetContext: %+v", res)
	}
	if res := c.Start(ctx); !res.OK {
		t.Fatalf("Start: %+v", res)
	}
	if res := c.Stop(ctx); !res.OK {
		t.Fatalf("Stop: %+v", res)
	}

	want := []struct {
		path string
		form string
	}{
		{"/eye-tracking/connect", ""},
		{"/eye-tracking/set-context", "image_filename=4.png"},
		{"/eye-tracking/start", ""},
		{"/eye-tracking/stop", ""},
	}
	if len(*calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(*calls))
	}
	for i, w := range want {
		got := (*calls)[i]
		if got.method != http.MethodPost {
			t.Errorf("call %d: method %s, want POST", i, got.method)
		}
		if got.path != w.path {
			t.Errorf("call %d: path %s, want %s", i, got.path, w.path)
		}
		if got.form != w.form {
			t.Errorf("call %d: form %q, want %q", i, got.form, w.form)
		}
	}
	if ct := (*calls)[1].ctype; ct != "application/x-www-form-urlencoded" {
		t.Errorf("set-context content type %q", ct)
	}
}

func TestLifecycleFoldsDeviceFailure(t *testing.T) {
	srv, _ := newTestServer(t, `{"success": false, "message": "no eye trackers found"}`)
	c := NewClient(srv.URL)

	res := c.Connect(t.Context())
	if res.OK {
		t.Fatal("expected failure outcome")
	}
	if res.Message != "no eye trackers found" {
		t.Fatalf("message %q", res.Message)
	}
}

func TestLifecycleFoldsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	c := NewClient(srv.URL)

	res := c.Connect(t.Context())
	if res.OK {
		t.Fatal("expected failure outcome")
	}
	if res.Message == "" {
		t.Fatal("transport error must carry a message")
	}
}

func TestLifecycleFoldsHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "tracker service wedged", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL)

	res := c.Start(t.Context())
	if res.OK {
		t.Fatal("expected failure outcome")
	}
	if !strings.Contains(res.Message, "500") {
		t.Fatalf("message should carry the status, got %q", res.Message)
	}
}

func TestSampleDecodesPosition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/eye-tracking/gaze" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"success": true, "current_position": {"x": 955.5, "y": 541.25, "timestamp": 1700000000.5}}`)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL)

	s, ok, err := c.Sample(t.Context())
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !ok {
		t.Fatal("expected a valid sample")
	}
	if s.X != 955.5 || s.Y != 541.25 {
		t.Fatalf("sample position %v,%v", s.X, s.Y)
	}
	if s.CapturedAt.Unix() != 1700000000 {
		t.Fatalf("captured at %v", s.CapturedAt)
	}
}

func TestSampleWithoutValidGaze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": false}`)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL)

	_, ok, err := c.Sample(t.Context())
	if err != nil {
		t.Fatalf("a blink is not an error, got %v", err)
	}
	if ok {
		t.Fatal("expected no valid sample")
	}
}

func TestSampleTransportErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := NewClient(srv.URL)

	if _, _, err := c.Sample(t.Context()); err == nil {
		t.Fatal("expected an error from a dead controller")
	}
}
