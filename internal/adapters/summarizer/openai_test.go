package summarizer

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "link-notes-bot/internal/infra/openai"
)

type stubChat struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestCompleteBuildsRequest(t *testing.T) {
	chat := &stubChat{resp: openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatMessage{Role: "assistant", Content: ` {"article_title":"t"} `}},
	}}}
	s := NewOpenAI(chat, "", time.Second, []string{"a", "b"})
	out, err := s.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if out != `{"article_title":"t"}` {
		t.Fatalf("unexpected content %q", out)
	}
	if chat.req.Model != "gpt-4.1-mini" || chat.req.Temperature != 0.5 || chat.req.TopP != 0.9 {
		t.Fatalf("unexpected request params: %+v", chat.req)
	}
	if len(chat.req.Messages) != 2 || chat.req.Messages[0].Content != "a\nb" || chat.req.Messages[1].Content != "prompt" {
		t.Fatalf("unexpected messages: %+v", chat.req.Messages)
	}
	if chat.req.ResponseFormat == nil || chat.req.ResponseFormat.Type != openai.ResponseFormatTypeJSONObject {
		t.Fatal("expected json_object response format")
	}
}

func TestCompleteWithoutSystem(t *testing.T) {
	chat := &stubChat{resp: openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatMessage{Content: "{}"}}}}}
	if _, err := NewOpenAI(chat, "m", 0, nil).Complete(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	if len(chat.req.Messages) != 1 {
		t.Fatalf("expected only user message, got %d", len(chat.req.Messages))
	}
}

func TestCompleteEmptyReply(t *testing.T) {
	for name, resp := range map[string]openai.ChatCompletionResponse{
		"no choices":    {},
		"blank message": {Choices: []openai.ChatCompletionChoice{{Message: openai.ChatMessage{Content: "  "}, FinishReason: "length"}}},
	} {
		chat := &stubChat{resp: resp}
		if _, err := NewOpenAI(chat, "m", time.Second, nil).Complete(context.Background(), "p"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCompleteTransportError(t *testing.T) {
	boom := errors.New("boom")
	chat := &stubChat{err: boom}
	_, err := NewOpenAI(chat, "m", time.Second, nil).Complete(context.Background(), "p")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
