package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClipTextKeepsShortText(t *testing.T) {
	if got := ClipText("привет", 10); got != "привет" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestClipTextAppendsMarker(t *testing.T) {
	text := strings.Repeat("ж", MaxExtractedChars+500)
	got := ClipText(text, MaxExtractedChars)
	want := MaxExtractedChars + utf8.RuneCountInString(TruncationMarker)
	if n := utf8.RuneCountInString(got); n != want {
		t.Fatalf("expected %d runes, got %d", want, n)
	}
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Fatal("expected truncation marker at the end")
	}
}

func TestAIResponseUsable(t *testing.T) {
	if (AIResponse{Body: "ошибка"}).Usable() {
		t.Fatal("response without title must not be stored")
	}
	if !(AIResponse{Title: "T"}).Usable() {
		t.Fatal("response with title must be usable")
	}
}
