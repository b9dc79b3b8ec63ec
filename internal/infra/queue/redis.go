package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/metrics"
)

// enqueueScript атомарно вытесняет старшую половину списка при переполнении
// и кладёт событие в голову. Самые старые события лежат в хвосте.
var enqueueScript = redis.NewScript(`
local n = redis.call('LLEN', KEYS[1])
local cap = tonumber(ARGV[2])
local evicted = 0
if n >= cap then
  evicted = math.max(math.floor(n / 2), 1)
  redis.call('LTRIM', KEYS[1], 0, n - evicted - 1)
end
redis.call('LPUSH', KEYS[1], ARGV[1])
return evicted
`)

// blockStep ограничивает одно ожидание BRPOP, чтобы отмена контекста
// замечалась не позже чем через шаг.
const blockStep = time.Second

// Redis — очередь событий на базе Redis lists. Переживает перезапуск процесса.
type Redis struct {
	client   *redis.Client
	key      string
	capacity int
	log      zerolog.Logger
}

// NewRedis создаёт очередь по указанному ключу.
func NewRedis(client *redis.Client, key string, capacity int, log zerolog.Logger) *Redis {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Redis{client: client, key: key, capacity: capacity, log: log}
}

// Enqueue публикует событие в очередь.
func (q *Redis) Enqueue(ctx context.Context, ev domain.InboundEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	start := time.Now()
	evicted, err := enqueueScript.Run(ctx, q.client, []string{q.key}, payload, q.capacity).Int()
	metrics.ObserveNetworkRequest("redis", "enqueue", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	if evicted > 0 {
		metrics.ObserveEvictions(evicted)
		q.log.Warn().Int("evicted", evicted).Str("key", q.key).Msg("queue: переполнение, старые события вытеснены")
	}
	return nil
}

// Dequeue блокирующе читает событие, ожидая не дольше wait.
// Ожидание нарезается на шаги blockStep, между шагами проверяется ctx.
func (q *Redis) Dequeue(ctx context.Context, wait time.Duration) (domain.InboundEvent, bool, error) {
	if wait <= 0 {
		wait = time.Second
	}
	deadline := time.Now().Add(wait)
	var res []string
	for {
		if err := ctx.Err(); err != nil {
			return domain.InboundEvent{}, false, err
		}
		block := time.Until(deadline)
		if block > blockStep {
			block = blockStep
		}
		if block < time.Second {
			block = time.Second
		}
		var err error
		res, err = q.client.BRPop(ctx, block, q.key).Result()
		if err == nil {
			break
		}
		if !errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return domain.InboundEvent{}, false, ctx.Err()
			}
			return domain.InboundEvent{}, false, err
		}
		if !time.Now().Before(deadline) {
			return domain.InboundEvent{}, false, nil
		}
	}
	if len(res) != 2 {
		return domain.InboundEvent{}, false, errors.New("redis queue: unexpected response")
	}
	var ev domain.InboundEvent
	if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
		return domain.InboundEvent{}, false, fmt.Errorf("decode event: %w", err)
	}
	return ev, true, nil
}

// Len возвращает длину списка.
func (q *Redis) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
