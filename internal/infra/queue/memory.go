package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/metrics"
)

// DefaultCapacity задаёт мягкий предел очереди.
const DefaultCapacity = 100

// Memory — ограниченная FIFO-очередь в памяти процесса.
// Писателей может быть много, читатель один. При переполнении вытесняется
// старшая половина очереди, Enqueue никогда не блокируется.
type Memory struct {
	mu       sync.Mutex
	items    []domain.InboundEvent
	capacity int
	notify   chan struct{}
	log      zerolog.Logger
}

// NewMemory создаёт очередь заданной ёмкости.
func NewMemory(capacity int, log zerolog.Logger) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		log:      log,
	}
}

// Enqueue добавляет событие в конец очереди.
func (q *Memory) Enqueue(_ context.Context, ev domain.InboundEvent) error {
	q.mu.Lock()
	evicted := 0
	if len(q.items) >= q.capacity {
		evicted = max(len(q.items)/2, 1)
		q.items = append([]domain.InboundEvent(nil), q.items[evicted:]...)
	}
	q.items = append(q.items, ev)
	size := len(q.items)
	q.mu.Unlock()

	if evicted > 0 {
		metrics.ObserveEvictions(evicted)
		q.log.Warn().Int("evicted", evicted).Int("size", size).Msg("queue: переполнение, старые события вытеснены")
	}
	metrics.QueueDepth.Set(float64(size))

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Dequeue возвращает первое событие, ожидая не дольше wait.
func (q *Memory) Dequeue(ctx context.Context, wait time.Duration) (domain.InboundEvent, bool, error) {
	if ev, ok := q.pop(); ok {
		return ev, true, nil
	}
	if wait <= 0 {
		return domain.InboundEvent{}, false, nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return domain.InboundEvent{}, false, ctx.Err()
		case <-timer.C:
			ev, ok := q.pop()
			return ev, ok, nil
		case <-q.notify:
			if ev, ok := q.pop(); ok {
				return ev, true, nil
			}
		}
	}
}

// Len возвращает текущий размер очереди.
func (q *Memory) Len(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items), nil
}

// Drain забирает все оставшиеся события.
func (q *Memory) Drain() []domain.InboundEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	metrics.QueueDepth.Set(0)
	return out
}

func (q *Memory) pop() (domain.InboundEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.InboundEvent{}, false
	}
	ev := q.items[0]
	q.items[0] = domain.InboundEvent{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	metrics.QueueDepth.Set(float64(len(q.items)))
	return ev, true
}
