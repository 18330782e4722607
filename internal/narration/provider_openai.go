package narration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAIProvider narrates pages with an OpenAI multimodal chat model.
// The client reads OPENAI_API_KEY from the environment.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

func NewOpenAIProvider(model string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(), model: model}
}

func (p *OpenAIProvider) Narrate(ctx context.Context, req Request) (string, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(buildPrompt(req)),
	}
	for _, img := range req.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: fmt.Sprintf("data:%s;base64,%s", img.MediaType, base64.StdEncoding.EncodeToString(img.Data)),
		}))
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
		MaxTokens:   openai.Int(maxNarrationTokens(len(req.Images))),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("openai narration: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai narration: no choices in response")
	}
	return extractNarration(resp.Choices[0].Message.Content)
}
