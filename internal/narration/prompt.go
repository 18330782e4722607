package narration

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Complexity bands keyed by reader age. Single-page narrations stay
// short; multi-page stories grow with the reader.
var (
	pageBands = map[int]string{
		3:  "very simple words, 1-2 sentences",
		4:  "simple words, 2-3 sentences",
		5:  "easy words, 3-4 sentences",
		6:  "basic vocabulary, 4-5 sentences",
		7:  "elementary vocabulary, 5-6 sentences",
		8:  "grade-school vocabulary, 6-7 sentences",
		9:  "richer vocabulary, 7-8 sentences",
		10: "richer vocabulary, 8-10 sentences",
	}
	storyBands = map[int]string{
		3:  "very simple words, 3-4 sentences total",
		4:  "simple words, 4-6 sentences total",
		5:  "easy words, 6-8 sentences total",
		6:  "basic vocabulary, 8-10 sentences total",
		7:  "elementary vocabulary, 10-12 sentences total",
		8:  "grade-school vocabulary, 12-14 sentences total",
		9:  "richer vocabulary, 14-16 sentences total",
		10: "richer vocabulary, 16-18 sentences total",
	}
)

func complexityBand(age, images int) string {
	if images > 1 {
		if band, ok := storyBands[age]; ok {
			return band
		}
		return "easy words, 6-8 sentences total"
	}
	if band, ok := pageBands[age]; ok {
		return band
	}
	return "simple words, 3-4 sentences"
}

// buildPrompt writes the instruction text sent alongside the page
// images. The model is asked for a JSON object so extra prose around
// the answer can be stripped by extractNarration.
func buildPrompt(req Request) string {
	count := len(req.Images)
	band := complexityBand(req.Age, count)

	var b strings.Builder
	if count <= 1 {
		fmt.Fprintf(&b, "You are a friendly children's reading assistant. Look at this picture book page and create a warm, engaging narration for a %d-year-old child.\n\n", req.Age)
		b.WriteString("Guidelines:\n")
		fmt.Fprintf(&b, "- Use %s\n", band)
		b.WriteString("- Be encouraging and positive\n")
		b.WriteString("- Focus on what's happening in the picture\n")
		b.WriteString("- Use child-friendly language\n")
		b.WriteString("- Make it sound like a caring adult reading to a child\n")
		b.WriteString("- Include emotions and descriptive words that help imagination\n")
		b.WriteString("- Keep it safe and appropriate\n")
	} else {
		fmt.Fprintf(&b, "You are a friendly children's reading assistant. Look at these %d picture book pages and create a warm, engaging story that connects all the images for a %d-year-old child.\n\n", count, req.Age)
		b.WriteString("Guidelines:\n")
		fmt.Fprintf(&b, "- Use %s\n", band)
		fmt.Fprintf(&b, "- Create a flowing story that connects all %d images\n", count)
		b.WriteString("- Be encouraging and positive\n")
		b.WriteString("- Focus on what's happening across all the pictures\n")
		b.WriteString("- Use child-friendly language\n")
		b.WriteString("- Make it sound like a caring adult telling a complete story\n")
		b.WriteString("- Include emotions and descriptive words that help imagination\n")
		b.WriteString("- Keep it safe and appropriate\n")
		b.WriteString("- Connect the scenes logically to create one cohesive narrative\n")
	}
	b.WriteString("\nReturn your response as JSON with this exact structure:\n")
	b.WriteString(`{"narration_text": "Your warm, engaging narration here"}`)
	fmt.Fprintf(&b, "\n\nLanguage: %s\n", req.Language)
	return b.String()
}

// maxNarrationTokens bounds generation: short answers for one page,
// more room when a story spans several.
func maxNarrationTokens(images int) int64 {
	if images <= 1 {
		return 300
	}
	return int64(500 + images*100)
}

var narrationJSON = regexp.MustCompile(`(?s)\{.*\}`)

// extractNarration pulls the narration text out of a model reply,
// tolerating prose or code fences around the JSON object.
func extractNarration(content string) (string, error) {
	match := narrationJSON.FindString(content)
	if match == "" {
		return "", errors.New("no JSON object in model response")
	}
	var payload struct {
		Text string `json:"narration_text"`
	}
	if err := json.Unmarshal([]byte(match), &payload); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	if strings.TrimSpace(payload.Text) == "" {
		return "", errors.New("model response missing narration_text")
	}
	return payload.Text, nil
}
