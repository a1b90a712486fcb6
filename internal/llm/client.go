// Package llm wraps the external classification collaborator (an OpenAI
// chat model) behind a small interface the pipeline stages depend on.
//
// The collaborator returns free text that is merely *expected* to contain
// one JSON object. Every consumer goes through ExtractJSONBlock and applies
// its own documented default when nothing parses; no stage treats a garbled
// response as fatal.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/svedin/kontera/internal/logger"
)

// Request is one collaborator call. Either Text or Document (with MediaType)
// carries the source content; System and User carry the rubric.
type Request struct {
	System string
	User   string

	// Document attaches the raw document bytes as an inline image for
	// vision-capable models. Empty Document means text-only.
	Document  []byte
	MediaType string // e.g. "image/png", required when Document is set
}

// Client is the collaborator interface the pipeline stages depend on.
// Implementations must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientConfig configures the OpenAI-backed client.
type ClientConfig struct {
	Model       string
	Temperature float32
	MaxRetries  int
	MaxTokens   int
}

// OpenAIClient implements Client on top of the OpenAI chat completions API.
type OpenAIClient struct {
	api    *openai.Client
	config ClientConfig
	log    zerolog.Logger
}

// NewOpenAIClient creates a collaborator client for the given API key.
func NewOpenAIClient(apiKey string, config ClientConfig) *OpenAIClient {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1500
	}
	return &OpenAIClient{
		api:    openai.NewClient(apiKey),
		config: config,
		log:    logger.WithComponent("llm-client"),
	}
}

// Complete sends one chat completion request and returns the raw message
// content. Transport failures are retried up to MaxRetries; the last error
// is returned if all attempts fail.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	const op = "Complete"

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.System},
	}

	if len(req.Document) > 0 {
		dataURL := fmt.Sprintf("data:%s;base64,%s",
			req.MediaType, base64.StdEncoding.EncodeToString(req.Document))
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: req.User},
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
				},
			},
		})
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.User,
		})
	}

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Temperature: c.config.Temperature,
			Messages:    messages,
			MaxTokens:   c.config.MaxTokens,
		})
		if err != nil {
			lastErr = err
			c.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", c.config.MaxRetries).
				Msg("Collaborator request failed, retrying")
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = ErrEmptyResponse
			continue
		}
		content := resp.Choices[0].Message.Content
		c.log.Debug().
			Int("response_length", len(content)).
			Int("attempt", attempt).
			Msg("Collaborator response received")
		return content, nil
	}

	return "", fmt.Errorf("%s: all %d attempts failed: %w", op, c.config.MaxRetries, lastErr)
}
