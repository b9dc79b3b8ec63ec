package ingest

import (
	"context"
	"fmt"

	"link-notes-bot/internal/domain"
)

// Gate пропускает каждое сообщение не более одного раза.
// Проверка и запись не атомарны: при одновременной повторной доставке
// одного и того же сообщения оба запроса могут пройти.
type Gate struct {
	ledger domain.DedupLedger
}

// NewGate создаёт фильтр поверх реестра обработанных сообщений.
func NewGate(ledger domain.DedupLedger) *Gate {
	return &Gate{ledger: ledger}
}

// IsProcessed сообщает, встречалось ли сообщение раньше.
func (g *Gate) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	seen, err := g.ledger.Exists(ctx, messageID)
	if err != nil {
		return false, fmt.Errorf("ledger exists: %w", err)
	}
	return seen, nil
}

// MarkProcessed записывает сообщение в реестр. Повторный вызов безопасен.
func (g *Gate) MarkProcessed(ctx context.Context, messageID string) error {
	if err := g.ledger.Record(ctx, messageID); err != nil {
		return fmt.Errorf("ledger record: %w", err)
	}
	return nil
}

// Release снимает отметку, чтобы повторная доставка прошла через Gate.
func (g *Gate) Release(ctx context.Context, messageID string) error {
	if err := g.ledger.Forget(ctx, messageID); err != nil {
		return fmt.Errorf("ledger forget: %w", err)
	}
	return nil
}

// Admit возвращает true, если сообщение новое, и сразу помечает его обработанным.
func (g *Gate) Admit(ctx context.Context, messageID string) (bool, error) {
	seen, err := g.IsProcessed(ctx, messageID)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}
	if err := g.MarkProcessed(ctx, messageID); err != nil {
		return false, err
	}
	return true, nil
}
