package repo

import (
	"context"
	"sync"
	"time"

	"link-notes-bot/internal/domain"
)

// Memory — реестр и журнал в памяти процесса. Для локального запуска и тестов.
type Memory struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	records []domain.JournalRecord
}

var (
	_ domain.DedupLedger  = (*Memory)(nil)
	_ domain.EventJournal = (*Memory)(nil)
)

// NewMemory создаёт пустой реестр.
func NewMemory() *Memory {
	return &Memory{seen: make(map[string]time.Time)}
}

func (m *Memory) Exists(_ context.Context, messageID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[messageID]
	return ok, nil
}

func (m *Memory) Record(_ context.Context, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[messageID]; !ok {
		m.seen[messageID] = time.Now()
	}
	return nil
}

func (m *Memory) Forget(_ context.Context, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, messageID)
	return nil
}

// Count возвращает число записей в реестре.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

func (m *Memory) Save(_ context.Context, rec domain.JournalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records возвращает копию журнала.
func (m *Memory) Records() []domain.JournalRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.JournalRecord(nil), m.records...)
}
