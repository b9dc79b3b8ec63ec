package queue

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR не задан")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisQueueEviction(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	key := "test_events_" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, key) })

	q := NewRedis(client, key, 4, zerolog.Nop())
	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, event(i)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	size, err := q.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if size != 3 {
		t.Fatalf("expected 3 events after eviction, got %d", size)
	}
	for _, want := range []string{"m2", "m3", "m4"} {
		ev, ok, err := q.Dequeue(ctx, time.Second)
		if err != nil || !ok {
			t.Fatalf("dequeue: ok=%v err=%v", ok, err)
		}
		if ev.MessageID != want {
			t.Fatalf("expected %s, got %s", want, ev.MessageID)
		}
	}
}

func TestRedisDequeueHonoursCancel(t *testing.T) {
	// клиент без ContextTimeoutEnabled: сам BRPOP отмену не видит
	client := redisClient(t)
	q := NewRedis(client, "test_events_"+uuid.NewString(), 4, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, ok, err := q.Dequeue(ctx, 30*time.Second)
	if ok {
		t.Fatal("empty queue must not yield an event")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*blockStep {
		t.Fatalf("dequeue ignored cancellation for %v", elapsed)
	}
}

func TestRedisDequeueEmptyReturnsAfterWait(t *testing.T) {
	client := redisClient(t)
	q := NewRedis(client, "test_events_"+uuid.NewString(), 4, zerolog.Nop())
	_, ok, err := q.Dequeue(context.Background(), time.Second)
	if err != nil || ok {
		t.Fatalf("expected empty result, ok=%v err=%v", ok, err)
	}
}
