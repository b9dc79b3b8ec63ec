package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestClient(url string) *Client {
	c := NewClient(Config{BaseURL: url, Token: "secret", DatabaseID: "db1", Timeout: time.Second})
	c.now = func() time.Time { return time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestCreateEntry(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/pages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" || r.Header.Get("Notion-Version") != "2022-06-28" {
			t.Errorf("unexpected headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"object":"page","id":"page-1"}`))
	}))
	defer srv.Close()

	body := strings.Repeat("я", 4500)
	id, err := newTestClient(srv.URL).CreateEntry(context.Background(), "Заголовок", []string{"go", "a, b", "go", " "}, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "page-1" {
		t.Fatalf("unexpected page id %q", id)
	}

	parent := got["parent"].(map[string]any)
	if parent["database_id"] != "db1" {
		t.Fatalf("unexpected parent: %v", parent)
	}
	props := got["properties"].(map[string]any)
	date := props["Date"].(map[string]any)["date"].(map[string]any)
	if date["start"] != "2024-05-17" {
		t.Fatalf("unexpected date: %v", date)
	}
	tags := props["Tags"].(map[string]any)["multi_select"].([]any)
	if len(tags) != 2 || tags[1].(map[string]any)["name"] != "a b" {
		t.Fatalf("unexpected tags: %v", tags)
	}
	title := props["Name"].(map[string]any)["title"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"]
	if title != "Заголовок" {
		t.Fatalf("unexpected title: %v", title)
	}
	children := got["children"].([]any)
	if len(children) != 3 {
		t.Fatalf("expected 3 paragraph blocks, got %d", len(children))
	}
}

func TestCreateEntryAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","code":"validation_error","message":"Tags is not a property"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateEntry(context.Background(), "t", nil, "b")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "validation_error" {
		t.Fatalf("unexpected code %q", apiErr.Code)
	}
}

func TestCreateEntryRequiresCredentials(t *testing.T) {
	c := NewClient(Config{})
	if _, err := c.CreateEntry(context.Background(), "t", nil, "b"); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/databases/db1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"object":"database","id":"db1"}`))
	}))
	defer srv.Close()
	if err := newTestClient(srv.URL).Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParagraphsSplitByRunes(t *testing.T) {
	blocks := paragraphs(strings.Repeat("ж", maxBlockRunes+1))
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if n := utf8.RuneCountInString(blocks[0].Paragraph.RichText[0].Text.Content); n != maxBlockRunes {
		t.Fatalf("first block has %d runes", n)
	}
	if len(paragraphs("   ")) != 0 {
		t.Fatal("blank body must produce no blocks")
	}
}
