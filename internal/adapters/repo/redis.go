package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/metrics"
)

// RedisLedger хранит обработанные сообщения как ключи с TTL.
type RedisLedger struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ domain.DedupLedger = (*RedisLedger)(nil)

// NewRedisLedger создаёт реестр. При ttl <= 0 ключи живут бессрочно.
func NewRedisLedger(client *redis.Client, prefix string, ttl time.Duration) *RedisLedger {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisLedger{client: client, prefix: prefix, ttl: ttl}
}

// Exists проверяет наличие ключа сообщения.
func (l *RedisLedger) Exists(ctx context.Context, messageID string) (bool, error) {
	start := time.Now()
	n, err := l.client.Exists(ctx, l.prefix+messageID).Result()
	metrics.ObserveNetworkRequest("redis", "ledger_exists", l.prefix, start, err)
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Record ставит ключ через SET NX, поэтому повторная запись ничего не меняет.
func (l *RedisLedger) Record(ctx context.Context, messageID string) error {
	start := time.Now()
	err := l.client.SetNX(ctx, l.prefix+messageID, time.Now().UTC().Format(time.RFC3339), l.ttl).Err()
	metrics.ObserveNetworkRequest("redis", "ledger_record", l.prefix, start, err)
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

// Forget удаляет ключ сообщения.
func (l *RedisLedger) Forget(ctx context.Context, messageID string) error {
	start := time.Now()
	err := l.client.Del(ctx, l.prefix+messageID).Err()
	metrics.ObserveNetworkRequest("redis", "ledger_forget", l.prefix, start, err)
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
