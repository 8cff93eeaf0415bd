// Package chat relays a single user message to a chat completion model.
package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-oauth-broker/internal/config"
	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	SystemPrompt = "You are a helpful assistant."
	DefaultModel = openai.ChatModelGPT4_1Mini
)

type Options struct {
	APIKey  string
	BaseURL string // Empty means the public API
	Model   string
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

func OptionsFromConfig(c config.ChatConfig, timeout time.Duration) Options {
	return Options{
		APIKey:  c.GetOpenAIAPIKey(),
		BaseURL: c.GetOpenAIBaseURL(),
		Model:   c.GetChatModel(),
		Timeout: timeout,
	}
}

// Client asks the model for one reply per message. No history is kept between calls.
type Client struct {
	api   openai.Client
	model openai.ChatModel
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", errors.ErrConfiguration)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(opts.BaseURL))
	}

	model := openai.ChatModel(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: openai.NewClient(requestOptions...), model: model}, nil
}

// Reply returns the content of the model's first choice for message.
func (c *Client) Reply(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", errors.ErrInvalidRequest)
	}

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(message),
		},
	})
	if err != nil {
		return "", &errors.UpstreamError{Kind: errors.ErrUpstreamWrite, Op: "chat completion", Err: err}
	}
	if len(completion.Choices) == 0 {
		return "", &errors.UpstreamError{Kind: errors.ErrUpstreamWrite, Op: "chat completion: no choices"}
	}
	return completion.Choices[0].Message.Content, nil
}
