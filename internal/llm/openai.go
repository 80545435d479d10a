package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implOpenAI talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, DeepSeek, Qwen, local servers).
type implOpenAI struct {
	client   openai.Client
	provider string
	model    string
}

func newOpenAI(provider, apiKey, baseURL, model string, timeout time.Duration) *implOpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}

	return &implOpenAI{
		client:   openai.NewClient(opts...),
		provider: provider,
		model:    model,
	}
}

func (c *implOpenAI) Name() string {
	return c.provider + "/" + c.model
}

// Complete sends one chat completion request and returns the first choice
func (c *implOpenAI) Complete(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    c.model,
	}
	params.Temperature = openai.Float(req.Temperature)
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(c.provider + ": no response choices returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New(c.provider + ": empty response")
	}
	return text, nil
}
