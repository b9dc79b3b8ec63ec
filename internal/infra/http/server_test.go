package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

type stubHealth struct {
	running bool
	size    int
	err     error
}

func (s stubHealth) Running() bool                         { return s.running }
func (s stubHealth) QueueLen(context.Context) (int, error) { return s.size, s.err }

func TestHealthHandlerOK(t *testing.T) {
	srv := NewServer(zerolog.Nop())
	srv.Router.Get("/healthz", HealthHandler(stubHealth{running: true, size: 3}))

	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["queue_len"].(float64) != 3 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHealthHandlerWorkerStopped(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(stubHealth{err: errors.New("redis down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMetricsRouteMounted(t *testing.T) {
	srv := NewServer(zerolog.Nop())
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
}
