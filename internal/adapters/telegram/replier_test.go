package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestHandleRoundTrip(t *testing.T) {
	h := EncodeHandle(-100123, 42)
	chat, msg, err := DecodeHandle(h)
	if err != nil || chat != -100123 || msg != 42 {
		t.Fatalf("unexpected decode: %d %d %v", chat, msg, err)
	}
	if _, _, err := DecodeHandle("garbage"); err == nil {
		t.Fatal("expected error for bad handle")
	}
	chat, msg, err = DecodeHandle("77")
	if err != nil || chat != 77 || msg != 0 {
		t.Fatalf("chat-only handle: %d %d %v", chat, msg, err)
	}
}

func TestReplyQuotesFirstPart(t *testing.T) {
	s := &fakeSender{}
	long := strings.Repeat("a", MessageLimit) + "\n" + "tail"
	if err := NewReplier(s).Reply(context.Background(), EncodeHandle(5, 9), long); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.sent))
	}
	if s.sent[0].ChatID != 5 || s.sent[0].ReplyToMessageID != 9 {
		t.Fatalf("first part must quote the message: %+v", s.sent[0].BaseChat)
	}
	if s.sent[1].ReplyToMessageID != 0 || s.sent[1].Text != "tail" {
		t.Fatalf("unexpected second part: %+v", s.sent[1])
	}
}

func TestReplySendError(t *testing.T) {
	s := &fakeSender{err: errors.New("forbidden")}
	if err := NewReplier(s).Reply(context.Background(), EncodeHandle(1, 1), "hi"); err == nil {
		t.Fatal("expected error")
	}
}

func TestReplyEmptyText(t *testing.T) {
	if err := NewReplier(&fakeSender{}).Reply(context.Background(), EncodeHandle(1, 1), "  "); err == nil {
		t.Fatal("expected error for empty text")
	}
}
