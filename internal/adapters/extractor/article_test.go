package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"link-notes-bot/internal/domain"
)

const longParagraph = "Это достаточно длинный абзац статьи, который точно превышает пятьдесят символов текста."

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("User-Agent"), "Chrome") {
			t.Errorf("expected browser user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractPrefersArticle(t *testing.T) {
	srv := serve(t, `<html><body><nav>Меню сайта</nav><article><h1>Заголовок</h1><p>`+longParagraph+`</p><script>var x=1;</script></article><footer>подвал</footer></body></html>`)
	res := New(time.Second, zerolog.Nop()).Extract(context.Background(), srv.URL)
	if res.Failed {
		t.Fatalf("expected success, got %+v", res)
	}
	if !strings.Contains(res.Text, "Заголовок") || !strings.Contains(res.Text, longParagraph) {
		t.Fatalf("article text missing: %q", res.Text)
	}
	for _, junk := range []string{"Меню", "подвал", "var x"} {
		if strings.Contains(res.Text, junk) {
			t.Fatalf("text must not contain %q: %q", junk, res.Text)
		}
	}
}

func TestExtractFallsBackToBody(t *testing.T) {
	srv := serve(t, `<html><body><div>`+longParagraph+`</div></body></html>`)
	res := New(time.Second, zerolog.Nop()).Extract(context.Background(), srv.URL)
	if res.Failed || !strings.Contains(res.Text, longParagraph) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExtractShortTextFails(t *testing.T) {
	srv := serve(t, `<html><body><p>коротко</p></body></html>`)
	res := New(time.Second, zerolog.Nop()).Extract(context.Background(), srv.URL)
	if !res.Failed || res.Text != ShortPlaceholder {
		t.Fatalf("expected short placeholder, got %+v", res)
	}
}

func TestExtractHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	res := New(time.Second, zerolog.Nop()).Extract(context.Background(), srv.URL)
	if !res.Failed || res.Text != FailurePlaceholder {
		t.Fatalf("expected failure placeholder, got %+v", res)
	}
}

func TestExtractUnreachable(t *testing.T) {
	res := New(200*time.Millisecond, zerolog.Nop()).Extract(context.Background(), "http://127.0.0.1:1/none")
	if !res.Failed || res.Text == "" {
		t.Fatalf("expected failure with placeholder, got %+v", res)
	}
}

func TestExtractVideoHost(t *testing.T) {
	a := New(time.Second, zerolog.Nop())
	for _, u := range []string{
		"https://www.youtube.com/watch?v=x",
		"https://youtu.be/x",
		"https://m.youtube.com/watch?v=y",
		"https://gaming.youtube.com/watch?v=z",
		"https://www.youtu.be/x",
		"https://YOUTUBE.com./watch?v=x",
	} {
		res := a.Extract(context.Background(), u)
		if res.Failed || res.Text != VideoPlaceholder {
			t.Fatalf("%s: expected video placeholder, got %+v", u, res)
		}
	}
}

func TestIsVideoRejectsLookalikes(t *testing.T) {
	for _, u := range []string{"https://notyoutube.com/x", "https://youtube.com.evil.org/x", "https://example.com/youtube.com", "://bad"} {
		if isVideo(u) {
			t.Fatalf("%s must not be treated as video", u)
		}
	}
}

func TestExtractTruncates(t *testing.T) {
	srv := serve(t, `<html><body><article><p>`+strings.Repeat("а", 9000)+`</p></article></body></html>`)
	res := New(time.Second, zerolog.Nop()).Extract(context.Background(), srv.URL)
	if res.Failed {
		t.Fatalf("unexpected failure")
	}
	if !strings.HasSuffix(res.Text, domain.TruncationMarker) {
		t.Fatalf("expected truncation marker")
	}
	want := domain.MaxExtractedChars + utf8.RuneCountInString(domain.TruncationMarker)
	if got := utf8.RuneCountInString(res.Text); got != want {
		t.Fatalf("expected %d runes, got %d", want, got)
	}
}

func TestExtractDecodesCharset(t *testing.T) {
	// "Привет" в windows-1251
	cp1251 := string([]byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		_, _ = w.Write([]byte(`<html><body><article><p>` + strings.Repeat(cp1251+" ", 20) + `</p></article></body></html>`))
	}))
	defer srv.Close()
	res := New(time.Second, zerolog.Nop()).Extract(context.Background(), srv.URL)
	if res.Failed || !strings.Contains(res.Text, "Привет") {
		t.Fatalf("expected decoded text, got %+v", res)
	}
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func TestExtractUsesCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`<html><body><article><p>` + longParagraph + `</p></article></body></html>`))
	}))
	defer srv.Close()

	cache := &memCache{data: map[string]string{}}
	a := New(time.Second, zerolog.Nop(), WithCache(cache, time.Hour))
	first := a.Extract(context.Background(), srv.URL)
	second := a.Extract(context.Background(), srv.URL)
	if hits != 1 {
		t.Fatalf("expected one fetch, got %d", hits)
	}
	if first.Text != second.Text || second.Failed {
		t.Fatalf("cached result differs: %+v vs %+v", first, second)
	}
}
