package domain

import (
	"context"
	"time"
)

// ChatReplier доставляет ответ в исходный чат.
type ChatReplier interface {
	Reply(ctx context.Context, handle ReplyHandle, text string) error
}

// AIService выполняет текстовую генерацию и возвращает JSON-строку.
type AIService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DocumentStore сохраняет заметку и возвращает идентификатор страницы.
type DocumentStore interface {
	CreateEntry(ctx context.Context, title string, tags []string, body string) (string, error)
}

// DedupLedger хранит идентификаторы уже обработанных сообщений.
type DedupLedger interface {
	Exists(ctx context.Context, messageID string) (bool, error)
	// Record идемпотентен: повторная запись того же идентификатора не является ошибкой.
	Record(ctx context.Context, messageID string) error
	// Forget снимает отметку, если событие так и не попало в очередь.
	Forget(ctx context.Context, messageID string) error
}

// EventQueue — ограниченная FIFO-очередь между вебхуком и воркером.
type EventQueue interface {
	// Enqueue не блокирует отправителя: при переполнении вытесняются старые события.
	Enqueue(ctx context.Context, ev InboundEvent) error
	// Dequeue ждёт не дольше wait; ok=false означает пустую очередь.
	Dequeue(ctx context.Context, wait time.Duration) (ev InboundEvent, ok bool, err error)
	Len(ctx context.Context) (int, error)
}

// EventJournal сохраняет итог обработки события.
type EventJournal interface {
	Save(ctx context.Context, rec JournalRecord) error
}

// TextCache — простое TTL-хранилище строк.
type TextCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// ContentExtractor достаёт текст статьи по ссылке. Ошибок не возвращает.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) ExtractResult
}
