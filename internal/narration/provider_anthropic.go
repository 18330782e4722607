package narration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicProvider narrates pages with a Claude multimodal model. The
// client reads ANTHROPIC_API_KEY from the environment.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

func NewAnthropicProvider(model string) *AnthropicProvider {
	return &AnthropicProvider{client: anthropic.NewClient(), model: model}
}

func (p *AnthropicProvider) Narrate(ctx context.Context, req Request) (string, error) {
	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewTextBlock(buildPrompt(req)),
	}
	for _, img := range req.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MediaType, base64.StdEncoding.EncodeToString(img.Data)))
	}

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxNarrationTokens(len(req.Images)),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic narration: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("anthropic narration: no text in response")
	}
	return extractNarration(text.String())
}
