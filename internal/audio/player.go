// Package audio hands narration audio to an external player. The app
// does not decode or stream audio itself; it shells out to whatever
// command the reader's machine has (mpv, ffplay, afplay) and lets the
// daemon serve the file.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Player plays one audio URL. Play blocks until playback ends or the
// context is cancelled.
type Player interface {
	Play(ctx context.Context, url string) error
}

// NewPlayer builds a player from a command template. An empty template
// disables playback.
func NewPlayer(argv []string) Player {
	if len(argv) == 0 {
		return NopPlayer{}
	}
	return &ExecPlayer{argv: argv}
}

// ExecPlayer runs a configured command with the audio URL appended as
// the final argument.
type ExecPlayer struct {
	argv []string
}

func (p *ExecPlayer) Play(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	args := append(append([]string(nil), p.argv[1:]...), url)
	cmd := exec.CommandContext(ctx, p.argv[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%s: %w: %s", p.argv[0], err, stderr.String())
		}
		return fmt.Errorf("%s: %w", p.argv[0], err)
	}
	return nil
}

// NopPlayer ignores playback requests. Used when no player command is
// configured and in tests.
type NopPlayer struct{}

func (NopPlayer) Play(context.Context, string) error { return nil }
