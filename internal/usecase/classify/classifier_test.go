package classify

import (
	"testing"

	"link-notes-bot/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		kind   domain.Kind
		source string
	}{
		{"bare url", "https://example.com/article", domain.KindURL, "https://example.com/article"},
		{"url in text", "глянь http://a.b/c?d=1 и https://second.io", domain.KindURL, "http://a.b/c?d=1"},
		{"url up to whitespace", "see https://x.y/z\tnext", domain.KindURL, "https://x.y/z"},
		{"plain text", "hello there", domain.KindSummary, ""},
		{"scheme without slashes", "mailto:someone", domain.KindSummary, ""},
		{"empty", "", domain.KindSummary, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.text)
			if got.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s", got.Kind, tc.kind)
			}
			if got.SourceValue != tc.source {
				t.Fatalf("source = %q, want %q", got.SourceValue, tc.source)
			}
		})
	}
}
