package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/metrics"
)

// Postgres реализует реестр обработанных сообщений и журнал событий на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.DedupLedger  = (*Postgres)(nil)
	_ domain.EventJournal = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Exists проверяет, записано ли сообщение в реестр.
func (p *Postgres) Exists(ctx context.Context, messageID string) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM processed_messages WHERE message_id = $1)`, messageID).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "ledger_exists", "processed_messages", start, err)
	if err != nil {
		return false, fmt.Errorf("query processed message: %w", err)
	}
	return exists, nil
}

// Record записывает сообщение; конфликт по ключу игнорируется.
func (p *Postgres) Record(ctx context.Context, messageID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	_, err := p.pool.Exec(ctx, `INSERT INTO processed_messages (message_id) VALUES ($1) ON CONFLICT (message_id) DO NOTHING`, messageID)
	metrics.ObserveNetworkRequest("postgres", "ledger_record", "processed_messages", start, err)
	if err != nil {
		return fmt.Errorf("insert processed message: %w", err)
	}
	return nil
}

// Forget удаляет сообщение из реестра.
func (p *Postgres) Forget(ctx context.Context, messageID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM processed_messages WHERE message_id = $1`, messageID)
	metrics.ObserveNetworkRequest("postgres", "ledger_forget", "processed_messages", start, err)
	if err != nil {
		return fmt.Errorf("delete processed message: %w", err)
	}
	return nil
}

// Save добавляет запись журнала об обработанном событии.
func (p *Postgres) Save(ctx context.Context, rec domain.JournalRecord) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO events (message_id, user_id, kind, source_url, title, tags, extraction_status, ai_failed, replied, page_id, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.MessageID, rec.UserID, string(rec.Kind), rec.SourceURL, rec.Title, tags,
		string(rec.Status), rec.AIFailed, rec.Replied, rec.PageID, processedAt)
	metrics.ObserveNetworkRequest("postgres", "journal_save", "events", start, err)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}
