package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// mockChat implements ChatService for testing
type mockChat struct {
	mu       sync.Mutex
	reply    string
	err      error
	block    bool
	requests []openai.ChatCompletionNewParams
}

func (m *mockChat) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.mu.Lock()
	m.requests = append(m.requests, body)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: m.reply}},
		},
	}, nil
}

func (m *mockChat) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func TestComplete_ReturnsReply(t *testing.T) {
	chat := &mockChat{reply: "Drink water"}
	client := newOpenAI(chat, Config{Model: "gpt-4o-mini"})

	got, err := client.Complete(context.Background(), "suggest a habit")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Text != "Drink water" || got.Fallback {
		t.Errorf("Complete = %+v, want reply without fallback", got)
	}
	if chat.calls() != 1 {
		t.Errorf("calls = %d, want 1", chat.calls())
	}
}

func TestComplete_FallbackOnError(t *testing.T) {
	client := newOpenAI(&mockChat{err: errors.New("connection refused")}, Config{Fallback: true})

	got, err := client.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !got.Fallback || got.Text != FallbackText {
		t.Errorf("Complete = %+v, want fallback text", got)
	}
}

func TestComplete_ErrorWithoutFallback(t *testing.T) {
	client := newOpenAI(&mockChat{err: errors.New("connection refused")}, Config{})

	_, err := client.Complete(context.Background(), "hi")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Complete error = %v, want ErrUnavailable", err)
	}
}

func TestComplete_Timeout(t *testing.T) {
	client := newOpenAI(&mockChat{block: true}, Config{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := client.Complete(context.Background(), "hi")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Complete error = %v, want ErrUnavailable", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Complete took %v, want it bounded by the timeout", elapsed)
	}
}

func TestDisabledClient(t *testing.T) {
	client := NewOpenAI(Config{Fallback: true})
	if client.Available() {
		t.Error("Available = true without credentials")
	}

	got, err := client.Complete(context.Background(), "hi")
	if err != nil || !got.Fallback {
		t.Errorf("Complete = %+v, %v; want fallback", got, err)
	}

	var out []string
	if err := client.CompleteJSON(context.Background(), "hi", &out); !errors.Is(err, ErrUnavailable) {
		t.Errorf("CompleteJSON error = %v, want ErrUnavailable", err)
	}
}

func TestCompleteJSON_StripsProse(t *testing.T) {
	reply := "Sure! Here you go:\n```json\n[{\"title\": \"Outline\", \"estimated_duration\": 15}]\n```\nGood luck."
	client := newOpenAI(&mockChat{reply: reply}, Config{})

	var out []struct {
		Title             string `json:"title"`
		EstimatedDuration int    `json:"estimated_duration"`
	}
	if err := client.CompleteJSON(context.Background(), "break it down", &out); err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if len(out) != 1 || out[0].Title != "Outline" || out[0].EstimatedDuration != 15 {
		t.Errorf("CompleteJSON decoded %+v", out)
	}
}

func TestCompleteJSON_InvalidResponse(t *testing.T) {
	client := newOpenAI(&mockChat{reply: "I cannot help with that."}, Config{Fallback: true})

	var out []string
	err := client.CompleteJSON(context.Background(), "break it down", &out)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("CompleteJSON error = %v, want ErrInvalidResponse", err)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`[1,2]`, `[1,2]`, true},
		{`text {"a": [1]} more`, `{"a": [1]}`, true},
		{`no json here`, "", false},
		{`broken [ only`, "", false},
	}

	for _, tt := range tests {
		got, ok := extractJSON(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("extractJSON(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
