package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/metrics"
)

// ErrNoMessageID возвращается для события без идентификатора.
var ErrNoMessageID = errors.New("inbound event has no message id")

// Result описывает исход приёма события.
type Result string

const (
	ResultAccepted  Result = "accepted"
	ResultDuplicate Result = "duplicate"
)

// Service — быстрый путь вебхука: фильтр повторов и постановка в очередь.
type Service struct {
	gate  *Gate
	queue domain.EventQueue
	log   zerolog.Logger
	now   func() time.Time
}

// NewService создаёт сервис приёма событий.
func NewService(gate *Gate, queue domain.EventQueue, log zerolog.Logger) *Service {
	return &Service{gate: gate, queue: queue, log: log, now: time.Now}
}

// Ingest пропускает событие через Gate и ставит его в очередь.
// Ошибка означает, что платформе стоит повторить доставку: при сбое очереди
// отметка в реестре снимается, и повтор пройдёт через Gate.
func (s *Service) Ingest(ctx context.Context, ev domain.InboundEvent) (Result, error) {
	if ev.MessageID == "" {
		metrics.IncEvent("error")
		return "", ErrNoMessageID
	}
	if ev.TraceID == "" {
		ev.TraceID = uuid.NewString()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = s.now().UTC()
	}
	log := s.log.With().Str("message_id", ev.MessageID).Str("trace_id", ev.TraceID).Logger()

	admitted, err := s.gate.Admit(ctx, ev.MessageID)
	if err != nil {
		metrics.IncEvent("error")
		log.Error().Err(err).Msg("ingest: реестр сообщений недоступен")
		return "", err
	}
	if !admitted {
		metrics.IncEvent(string(ResultDuplicate))
		log.Info().Msg("ingest: повторная доставка, пропускаем")
		return ResultDuplicate, nil
	}
	if err := s.queue.Enqueue(ctx, ev); err != nil {
		metrics.IncEvent("error")
		log.Error().Err(err).Msg("ingest: не удалось поставить событие в очередь")
		if rerr := s.gate.Release(context.WithoutCancel(ctx), ev.MessageID); rerr != nil {
			log.Error().Err(rerr).Msg("ingest: не удалось снять отметку, повторная доставка будет отброшена")
		}
		return "", fmt.Errorf("enqueue: %w", err)
	}
	metrics.IncEvent(string(ResultAccepted))
	log.Debug().Str("user_id", ev.UserID).Msg("ingest: событие поставлено в очередь")
	return ResultAccepted, nil
}
