package gallery

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func seedDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	return dir
}

func TestListOrdersPagesNumerically(t *testing.T) {
	dir := seedDir(t, "10.png", "2.png", "1.png", "cover.jpg", "21.jpeg", "appendix.png")

	got, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"1.png", "2.png", "10.png", "21.jpeg", "appendix.png", "cover.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
}

func TestListSkipsNonImages(t *testing.T) {
	dir := seedDir(t, "1.png", "notes.txt", "narration.wav", "page.PNG")
	if err := os.Mkdir(filepath.Join(dir, "thumbs.png"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"1.png", "page.PNG"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
}

func TestListMissingDir(t *testing.T) {
	if _, err := List(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestContains(t *testing.T) {
	dir := seedDir(t, "1.png", "story.jpeg")

	cases := []struct {
		name string
		want bool
	}{
		{"1.png", true},
		{"story.jpeg", true},
		{"2.png", false},
		{"1.gif", false},
		{"../1.png", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Contains(dir, tc.name); got != tc.want {
			t.Errorf("Contains(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
