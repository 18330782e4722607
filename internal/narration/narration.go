// Package narration turns picture-book pages into child-friendly
// stories. A multimodal provider writes the text, a safety pass scrubs
// and trims it for the reader's age, and a synthesizer renders the
// audio the client plays back.
package narration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/zekun-wu/EyeReadDemo/internal/gallery"
)

// Reader ages the prompts and safety limits are tuned for.
const (
	MinAge = 3
	MaxAge = 10
)

// DefaultMaxImages caps how many pages one story request may cover.
const DefaultMaxImages = 4

// ErrInvalidRequest wraps caller mistakes (bad age, unreadable images)
// so the HTTP layer can report them as client errors.
var ErrInvalidRequest = errors.New("invalid narration request")

// Image is one page handed to a provider.
type Image struct {
	Data      []byte
	MediaType string
}

// Request carries everything a provider needs to narrate a set of
// pages for one reader.
type Request struct {
	Images   []Image
	Age      int
	Language string
}

// Provider generates the narration text for a request.
type Provider interface {
	Narrate(ctx context.Context, req Request) (string, error)
}

// NewProvider builds the provider named by kind ("openai" or
// "anthropic") using model for generation.
func NewProvider(kind, model string) (Provider, error) {
	switch kind {
	case "openai":
		return NewOpenAIProvider(model), nil
	case "anthropic":
		return NewAnthropicProvider(model), nil
	default:
		return nil, fmt.Errorf("unknown narration provider %q", kind)
	}
}

// Narration is the response payload returned to clients.
type Narration struct {
	Text       string   `json:"narration_text"`
	AudioURL   string   `json:"audio_url"`
	Age        int      `json:"age"`
	Language   string   `json:"language"`
	Filenames  []string `json:"image_filenames,omitempty"`
	ImageCount int      `json:"image_count,omitempty"`
	Timestamp  int64    `json:"timestamp"`
}

// Service narrates pages from the pictures library or direct uploads.
// Provider and synthesis failures degrade to fallback text and silent
// playback instead of failing the request.
type Service struct {
	picturesDir string
	maxImages   int
	provider    Provider
	tts         Synthesizer
	log         *slog.Logger
}

func NewService(picturesDir string, maxImages int, provider Provider, tts Synthesizer, log *slog.Logger) *Service {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		picturesDir: picturesDir,
		maxImages:   maxImages,
		provider:    provider,
		tts:         tts,
		log:         log,
	}
}

// Generate narrates a single uploaded page image.
func (s *Service) Generate(ctx context.Context, img Image, age int, language string) (*Narration, error) {
	if err := checkAge(age); err != nil {
		return nil, err
	}
	mediaType, err := sniffImage(img.Data)
	if err != nil {
		return nil, err
	}
	img.MediaType = mediaType
	req := Request{Images: []Image{img}, Age: age, Language: language}
	return s.narrate(ctx, req, nil, 50+age*10)
}

// GenerateFromFiles narrates pages already in the pictures library.
// Missing or unreadable files are skipped; more than maxImages names
// are quietly truncated, matching the upload limit.
func (s *Service) GenerateFromFiles(ctx context.Context, filenames []string, age int, language string) (*Narration, error) {
	if err := checkAge(age); err != nil {
		return nil, err
	}
	var requested []string
	for _, name := range filenames {
		if name = strings.TrimSpace(name); name != "" {
			requested = append(requested, name)
		}
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("no image filenames given: %w", ErrInvalidRequest)
	}
	if len(requested) > s.maxImages {
		requested = requested[:s.maxImages]
	}

	var images []Image
	var valid []string
	for _, name := range requested {
		if !gallery.Contains(s.picturesDir, name) {
			s.log.Warn("page image not found, skipping", "file", name)
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.picturesDir, name))
		if err != nil {
			s.log.Warn("read page image, skipping", "file", name, "error", err)
			continue
		}
		mediaType, err := sniffImage(data)
		if err != nil {
			s.log.Warn("unreadable page image, skipping", "file", name, "error", err)
			continue
		}
		images = append(images, Image{Data: data, MediaType: mediaType})
		valid = append(valid, name)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no valid images found: %w", ErrInvalidRequest)
	}

	req := Request{Images: images, Age: age, Language: language}
	return s.narrate(ctx, req, valid, 50+age*10+len(images)*30)
}

func (s *Service) narrate(ctx context.Context, req Request, filenames []string, maxWords int) (*Narration, error) {
	text, err := s.provider.Narrate(ctx, req)
	if err != nil {
		s.log.Warn("narration provider failed, using fallback", "images", len(req.Images), "error", err)
		text = fallbackNarration(len(req.Images))
	}
	text = filterText(text, maxWords)

	audioURL := ""
	if s.tts != nil {
		audioURL, err = s.tts.Synthesize(ctx, text, req.Language)
		if err != nil {
			s.log.Warn("speech synthesis failed, returning text only", "error", err)
			audioURL = ""
		}
	}

	return &Narration{
		Text:       text,
		AudioURL:   audioURL,
		Age:        req.Age,
		Language:   req.Language,
		Filenames:  filenames,
		ImageCount: len(filenames),
		Timestamp:  time.Now().Unix(),
	}, nil
}

func checkAge(age int) error {
	if age < MinAge || age > MaxAge {
		return fmt.Errorf("age %d out of range (%d-%d): %w", age, MinAge, MaxAge, ErrInvalidRequest)
	}
	return nil
}

// sniffImage verifies data decodes as a supported page image and
// returns its media type.
func sniffImage(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("not a readable image (%v): %w", err, ErrInvalidRequest)
	}
	switch format {
	case "png":
		return "image/png", nil
	case "jpeg":
		return "image/jpeg", nil
	default:
		return "", fmt.Errorf("unsupported image format %q: %w", format, ErrInvalidRequest)
	}
}

// fallbackNarration keeps story time going when the provider is down.
func fallbackNarration(images int) string {
	if images <= 1 {
		return "What a wonderful picture! I can see so many interesting things happening here. Let's look closely together and imagine the story!"
	}
	return fmt.Sprintf("What an amazing collection of %d pictures! Each one tells part of a wonderful story. I can see so many exciting things happening across all these images. Together, they create a magical adventure that we can explore and imagine together!", images)
}
