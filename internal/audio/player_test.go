package audio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewPlayerWithoutCommand(t *testing.T) {
	p := NewPlayer(nil)
	if _, ok := p.(NopPlayer); !ok {
		t.Fatalf("NewPlayer(nil) = %T, want NopPlayer", p)
	}
	if err := p.Play(t.Context(), "http://127.0.0.1:8000/static/clip.mp3"); err != nil {
		t.Errorf("NopPlayer.Play: %v", err)
	}
}

func TestExecPlayerAppendsURL(t *testing.T) {
	out := filepath.Join(t.TempDir(), "argv.txt")
	script := filepath.Join(t.TempDir(), "player.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > "+out+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	p := NewPlayer([]string{script, "--no-video"})
	if err := p.Play(t.Context(), "http://127.0.0.1:8000/static/clip.mp3"); err != nil {
		t.Fatalf("Play: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != "--no-video http://127.0.0.1:8000/static/clip.mp3" {
		t.Errorf("player argv = %q", got)
	}
}

func TestExecPlayerSkipsEmptyURL(t *testing.T) {
	p := NewPlayer([]string{"/nonexistent/player"})
	if err := p.Play(t.Context(), ""); err != nil {
		t.Errorf("Play with empty URL: %v", err)
	}
}

func TestExecPlayerReportsFailure(t *testing.T) {
	p := NewPlayer([]string{"/nonexistent/player"})
	err := p.Play(t.Context(), "http://127.0.0.1:8000/static/clip.mp3")
	if err == nil {
		t.Fatal("want error for missing player binary")
	}
	if !strings.Contains(err.Error(), "/nonexistent/player") {
		t.Errorf("err = %v, want command name", err)
	}
}
