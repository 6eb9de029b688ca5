// Package llm is a small text-completion client for OpenAI-compatible chat
// endpoints (OpenAI itself, or Ollama's /v1 API). Callers get fallback text
// instead of an error when the provider is down and fallback is enabled.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	ErrUnavailable     = errors.New("llm unavailable")
	ErrInvalidResponse = errors.New("llm returned an unusable response")
)

// FallbackText is returned in place of a completion when the provider fails.
const FallbackText = "AI assistant is temporarily unavailable. Core task management features remain functional."

// Compile-time interface check
var _ Client = (*OpenAI)(nil)

type Completion struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

type Client interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
	CompleteJSON(ctx context.Context, prompt string, v any) error
	Available() bool
}

// ChatService is the slice of the OpenAI SDK used here, so tests can stub it.
type ChatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	Fallback bool
}

// OpenAI implements Client over the chat completions API.
type OpenAI struct {
	chat     ChatService
	model    string
	timeout  time.Duration
	fallback bool
}

// NewOpenAI returns a client. With neither an API key nor a base URL the
// client is disabled and every call takes the fallback path.
func NewOpenAI(cfg Config) *OpenAI {
	var chat ChatService
	if cfg.APIKey != "" || cfg.BaseURL != "" {
		opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		client := openai.NewClient(opts...)
		chat = client.Chat.Completions
	}
	return newOpenAI(chat, cfg)
}

func newOpenAI(chat ChatService, cfg Config) *OpenAI {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAI{
		chat:     chat,
		model:    cfg.Model,
		timeout:  timeout,
		fallback: cfg.Fallback,
	}
}

func (o *OpenAI) Available() bool {
	return o.chat != nil
}

// Complete returns the model's reply to prompt.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (Completion, error) {
	text, err := o.complete(ctx, prompt)
	if err != nil {
		if !o.fallback {
			return Completion{}, err
		}
		slog.Warn("llm completion failed, using fallback", "component", "llm", "error", err)
		return Completion{Text: FallbackText, Fallback: true}, nil
	}
	return Completion{Text: text}, nil
}

// CompleteJSON decodes the first JSON array or object in the reply into v.
// There is no fallback for structured output.
func (o *OpenAI) CompleteJSON(ctx context.Context, prompt string, v any) error {
	text, err := o.complete(ctx, prompt)
	if err != nil {
		slog.Warn("llm json completion failed", "component", "llm", "error", err)
		return err
	}

	raw, ok := extractJSON(text)
	if !ok {
		return fmt.Errorf("%w: no JSON found", ErrInvalidResponse)
	}

	err = json.Unmarshal([]byte(raw), v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func (o *OpenAI) complete(ctx context.Context, prompt string) (string, error) {
	if o.chat == nil {
		return "", fmt.Errorf("%w: not configured", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Model:       openai.F(openai.ChatModel(o.model)),
		Temperature: openai.F(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrUnavailable)
	}

	slog.Debug("llm completion",
		"component", "llm",
		"model", o.model,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return resp.Choices[0].Message.Content, nil
}

// extractJSON slices the outermost array or object out of text, skipping any
// prose or code fences around it.
func extractJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return "", false
	}

	closer := "]"
	if text[start] == '{' {
		closer = "}"
	}

	end := strings.LastIndex(text, closer)
	if end < start {
		return "", false
	}
	return text[start : end+1], true
}
