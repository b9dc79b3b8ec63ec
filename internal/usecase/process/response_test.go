package process

import (
	"strings"
	"testing"

	"link-notes-bot/internal/domain"
)

func TestParseAIResponse(t *testing.T) {
	resp, err := ParseAIResponse(`{"article_title":" T ","tag":[{"name":"news"},{"name":" "},{"name":"go"}],"ai_response":"summary"}`)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if resp.Title != "T" || resp.Body != "summary" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Tags) != 2 || resp.Tags[0] != "news" || resp.Tags[1] != "go" {
		t.Fatalf("unexpected tags: %v", resp.Tags)
	}
}

func TestParseAIResponseFenced(t *testing.T) {
	raw := "```json\n{\"article_title\":\"T\",\"tag\":[],\"ai_response\":\"b\"}\n```"
	resp, err := ParseAIResponse(raw)
	if err != nil || resp.Body != "b" {
		t.Fatalf("fenced json must parse: %+v %v", resp, err)
	}
}

func TestParseAIResponseErrors(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"article_title":"T","ai_response":"  "}`} {
		if _, err := ParseAIResponse(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestFormatReply(t *testing.T) {
	text := FormatReply(domain.AIResponse{Title: "T", Tags: []string{"machine learning", "go"}, Body: "summary"})
	if !strings.HasPrefix(text, "T\n\nsummary") || !strings.HasSuffix(text, "#machine_learning #go") {
		t.Fatalf("unexpected reply: %q", text)
	}
	if got := FormatReply(fallbackResponse(AIUnavailableText)); got != AIUnavailableText {
		t.Fatalf("fallback reply must be the body only: %q", got)
	}
}
