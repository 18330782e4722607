package narration

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
)

// Synthesizer turns narration text into playable audio and returns the
// URL path clients fetch it from. An empty URL means no audio is
// available and the client falls back to reading the text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (string, error)
}

// NewSynthesizer builds the synthesizer named by kind. "none" disables
// audio generation.
func NewSynthesizer(kind, model, staticDir string, voice func(language string) string) (Synthesizer, error) {
	switch kind {
	case "openai":
		return NewSpeechSynthesizer(model, staticDir, voice), nil
	case "none", "":
		return NopSynthesizer{}, nil
	default:
		return nil, fmt.Errorf("unknown tts provider %q", kind)
	}
}

// SpeechSynthesizer renders narration audio with the OpenAI speech API
// and stores the files under the daemon's static directory.
type SpeechSynthesizer struct {
	client    openai.Client
	model     string
	staticDir string
	voice     func(language string) string
}

func NewSpeechSynthesizer(model, staticDir string, voice func(string) string) *SpeechSynthesizer {
	return &SpeechSynthesizer{
		client:    openai.NewClient(),
		model:     model,
		staticDir: staticDir,
		voice:     voice,
	}
}

func (s *SpeechSynthesizer) Synthesize(ctx context.Context, text, language string) (string, error) {
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice(language)),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return "", fmt.Errorf("synthesize speech: %w", err)
	}
	defer resp.Body.Close()

	u := uuid.New()
	name := fmt.Sprintf("narration_%s.mp3", hex.EncodeToString(u[:]))
	f, err := os.Create(filepath.Join(s.staticDir, name))
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return "/static/" + name, nil
}

// NopSynthesizer skips audio generation; readers get text-only
// narration.
type NopSynthesizer struct{}

func (NopSynthesizer) Synthesize(context.Context, string, string) (string, error) {
	return "", nil
}
