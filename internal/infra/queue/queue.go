package queue

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"link-notes-bot/internal/domain"
)

// ErrUnknownBackend возвращается для неизвестного типа очереди.
var ErrUnknownBackend = errors.New("unknown queue backend")

// New выбирает реализацию очереди по имени: memory или redis.
func New(backend string, client *redis.Client, key string, capacity int, log zerolog.Logger) (domain.EventQueue, error) {
	switch backend {
	case "", "memory":
		return NewMemory(capacity, log), nil
	case "redis":
		if client == nil {
			return nil, errors.New("redis queue: client is not configured")
		}
		return NewRedis(client, key, capacity, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
