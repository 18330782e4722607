package client

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNarratePostsFormAndDecodes(t *testing.T) {
	var gotPath, gotForm, gotCType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotPath = r.URL.Path
		gotForm = r.PostForm.Encode()
		gotCType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"narration_text": "Once there was a fox.", "audio_url": "/static/narration_ab.mp3",
			"age": 6, "language": "fr-FR", "image_filenames": ["1.png", "2.png"], "image_count": 2, "timestamp": 1700000000}`)
	}))
	t.Cleanup(srv.Close)

	api := New(srv.URL)
	n, err := api.Narrate(t.Context(), []string{"1.png", "2.png"}, 6, "fr-FR")
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}

	if gotPath != "/generate-from-filename" {
		t.Errorf("path = %q", gotPath)
	}
	if gotCType != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", gotCType)
	}
	if !strings.Contains(gotForm, "image_filenames=1.png%2C2.png") {
		t.Errorf("form = %q, want comma-joined filenames", gotForm)
	}
	if !strings.Contains(gotForm, "age=6") || !strings.Contains(gotForm, "language=fr-FR") {
		t.Errorf("form = %q, want age and language", gotForm)
	}
	if n.Text != "Once there was a fox." {
		t.Errorf("Text = %q", n.Text)
	}
	if n.AudioURL != "/static/narration_ab.mp3" {
		t.Errorf("AudioURL = %q", n.AudioURL)
	}
	if n.ImageCount != 2 || len(n.Filenames) != 2 {
		t.Errorf("images = %d %v", n.ImageCount, n.Filenames)
	}
}

func TestNarrateSurfacesRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "narration: age must be between 3 and 10", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	api := New(srv.URL)
	_, err := api.Narrate(t.Context(), []string{"1.png"}, 12, "en-US")
	if err == nil {
		t.Fatal("want error for 400 response")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "age must be between") {
		t.Errorf("err = %v, want status and body", err)
	}
}

func TestPictures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pictures" || r.Method != http.MethodGet {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"pictures": ["1.png", "2.png", "10.png"], "count": 3}`)
	}))
	t.Cleanup(srv.Close)

	api := New(srv.URL)
	pics, err := api.Pictures(t.Context())
	if err != nil {
		t.Fatalf("Pictures: %v", err)
	}
	if len(pics) != 3 || pics[2] != "10.png" {
		t.Errorf("pics = %v", pics)
	}
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"connected": true, "tracking": false, "device_name": "SimTracker Fusion",
			"buffer_size": 42, "ws_clients": 1, "cpu_percent": 12.5, "memory_percent": 40.1, "uptime_seconds": 9.0}`)
	}))
	t.Cleanup(srv.Close)

	api := New(srv.URL)
	st, err := api.Status(t.Context())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Connected || st.Tracking {
		t.Errorf("flags = %+v", st)
	}
	if st.DeviceName != "SimTracker Fusion" || st.Observers != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestAudioURL(t *testing.T) {
	api := New("http://127.0.0.1:8000/")
	if got := api.AudioURL("/static/narration_ab.mp3"); got != "http://127.0.0.1:8000/static/narration_ab.mp3" {
		t.Errorf("AudioURL = %q", got)
	}
	if got := api.AudioURL("https://cdn.example/clip.mp3"); got != "https://cdn.example/clip.mp3" {
		t.Errorf("absolute AudioURL = %q", got)
	}
	if got := api.AudioURL(""); got != "" {
		t.Errorf("empty AudioURL = %q", got)
	}
}
