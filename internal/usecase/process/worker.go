package process

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/metrics"
	"link-notes-bot/internal/usecase/classify"
)

var (
	// ErrAlreadyStarted возвращается при повторном запуске воркера.
	ErrAlreadyStarted = errors.New("worker already started")
	// ErrNotStarted возвращается при остановке незапущенного воркера.
	ErrNotStarted = errors.New("worker is not started")
)

// Drainer реализуют очереди в памяти: при остановке их содержимое теряется.
type Drainer interface {
	Drain() []domain.InboundEvent
}

// Deps — внешние зависимости воркера. Store и Journal необязательны.
type Deps struct {
	Queue     domain.EventQueue
	Extractor domain.ContentExtractor
	Prompts   *classify.PromptBuilder
	AI        domain.AIService
	Replier   domain.ChatReplier
	Store     domain.DocumentStore
	Journal   domain.EventJournal
}

// Options задаёт параметры цикла обработки.
type Options struct {
	PollWait   time.Duration
	AIAttempts int
	RetryDelay time.Duration
	MaxChars   int
}

func (o Options) withDefaults() Options {
	if o.PollWait <= 0 {
		o.PollWait = 30 * time.Second
	}
	if o.AIAttempts <= 0 {
		o.AIAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.MaxChars <= 0 {
		o.MaxChars = domain.MaxExtractedChars
	}
	return o
}

// Outcome — итог обработки одного события.
type Outcome struct {
	MessageID      string
	Kind           domain.Kind
	SourceURL      string
	Status         domain.ExtractionStatus
	AIFailed       bool
	Response       domain.AIResponse
	ReplyAttempted bool
	Replied        bool
	Stored         bool
	PageID         string
}

// Worker — единственный потребитель очереди событий.
type Worker struct {
	deps  Deps
	opts  Options
	log   zerolog.Logger
	sleep func(context.Context, time.Duration) error

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// NewWorker проверяет зависимости и создаёт воркер.
func NewWorker(deps Deps, opts Options, log zerolog.Logger) (*Worker, error) {
	var missing []string
	if deps.Queue == nil {
		missing = append(missing, "queue")
	}
	if deps.Extractor == nil {
		missing = append(missing, "extractor")
	}
	if deps.AI == nil {
		missing = append(missing, "ai")
	}
	if deps.Replier == nil {
		missing = append(missing, "replier")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("worker: missing dependencies: %s", strings.Join(missing, ", "))
	}
	return &Worker{deps: deps, opts: opts.withDefaults(), log: log, sleep: sleepCtx}, nil
}

// Start запускает цикл обработки в отдельной горутине. Повторный вызов возвращает ErrAlreadyStarted.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}
	w.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running.Store(true)
	go w.run(loopCtx)
	w.log.Info().Dur("poll_wait", w.opts.PollWait).Msg("worker: запущен")
	return nil
}

// Stop останавливает цикл и ждёт завершения текущего события.
// События, оставшиеся в очереди в памяти, отбрасываются.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.started || w.cancel == nil {
		w.mu.Unlock()
		return ErrNotStarted
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("worker: stop: %w", ctx.Err())
	}
	if d, ok := w.deps.Queue.(Drainer); ok {
		if dropped := d.Drain(); len(dropped) > 0 {
			w.log.Warn().Int("dropped", len(dropped)).Msg("worker: необработанные события отброшены при остановке")
		}
	}
	w.log.Info().Msg("worker: остановлен")
	return nil
}

// Running сообщает, работает ли цикл обработки.
func (w *Worker) Running() bool {
	return w.running.Load()
}

// QueueLen возвращает глубину очереди.
func (w *Worker) QueueLen(ctx context.Context) (int, error) {
	return w.deps.Queue.Len(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer w.running.Store(false)
	for {
		if ctx.Err() != nil {
			return
		}
		ev, ok, err := w.deps.Queue.Dequeue(ctx, w.opts.PollWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("worker: ошибка чтения очереди")
			_ = sleepCtx(ctx, time.Second)
			continue
		}
		if !ok {
			w.housekeeping(ctx)
			continue
		}
		// Текущее событие доводим до конца даже при остановке.
		w.Process(context.WithoutCancel(ctx), ev)
	}
}

func (w *Worker) housekeeping(ctx context.Context) {
	n, err := w.deps.Queue.Len(ctx)
	if err != nil {
		w.log.Warn().Err(err).Msg("worker: не удалось получить размер очереди")
		return
	}
	metrics.QueueDepth.Set(float64(n))
	w.log.Debug().Int("queue_len", n).Msg("worker: очередь пуста")
}

// Process проводит событие через все стадии. Ни одна стадия не прерывает цепочку,
// паника перехватывается, и пользователь всё равно получает ответ.
func (w *Worker) Process(ctx context.Context, ev domain.InboundEvent) (out Outcome) {
	start := time.Now()
	out = Outcome{MessageID: ev.MessageID, Kind: domain.KindUnknown, Status: domain.ExtractionUnknown}
	log := w.log.With().Str("message_id", ev.MessageID).Str("trace_id", ev.TraceID).Logger()

	defer func() {
		if r := recover(); r != nil {
			metrics.IncStageFailure("panic")
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("worker: паника при обработке события")
			if !out.ReplyAttempted {
				out.ReplyAttempted = true
				out.Replied = w.reply(ctx, ev, InternalFailedText, log)
			}
		}
		metrics.EventProcessingSeconds.WithLabelValues(string(out.Kind)).Observe(time.Since(start).Seconds())
		w.record(ctx, ev, out, log)
	}()

	cls := classify.Classify(ev.Text)
	out.Kind = cls.Kind
	log = log.With().Str("kind", string(cls.Kind)).Logger()

	if cls.Kind == domain.KindURL {
		out.SourceURL = cls.SourceValue
		res := w.deps.Extractor.Extract(ctx, cls.SourceValue)
		cls.ExtractedText = res.Text
		cls.Status = domain.ExtractionOK
		if res.Failed {
			cls.Status = domain.ExtractionFailed
			metrics.IncStageFailure("extract")
			log.Warn().Str("url", cls.SourceValue).Msg("worker: текст статьи не извлечён, используем заглушку")
		}
	} else {
		cls.ExtractedText = domain.ClipText(strings.TrimSpace(ev.Text), w.opts.MaxChars)
	}
	out.Status = cls.Status

	cls.Prompt = w.deps.Prompts.Build(cls.Kind, cls.ExtractedText)

	resp, err := w.queryAI(ctx, cls.Prompt, log)
	if err != nil {
		out.AIFailed = true
		log.Error().Err(err).Int("attempts", w.opts.AIAttempts).Msg("worker: ИИ недоступен, отвечаем заглушкой")
		resp = fallbackResponse(AIUnavailableText)
	}
	out.Response = resp

	out.ReplyAttempted = true
	out.Replied = w.reply(ctx, ev, FormatReply(resp), log)

	if resp.Usable() && w.deps.Store != nil {
		pageID, err := w.deps.Store.CreateEntry(ctx, resp.Title, resp.Tags, resp.Body)
		if err != nil {
			metrics.IncStageFailure("store")
			log.Warn().Err(err).Msg("worker: не удалось сохранить заметку")
		} else {
			out.Stored = true
			out.PageID = pageID
		}
	}
	log.Info().
		Str("status", string(out.Status)).
		Bool("ai_failed", out.AIFailed).
		Bool("replied", out.Replied).
		Bool("stored", out.Stored).
		Dur("duration", time.Since(start)).
		Msg("worker: событие обработано")
	return out
}

// queryAI делает до AIAttempts попыток. Пауза перед попыткой n равна n*RetryDelay.
// Пустой или некорректный ответ считается неудачной попыткой.
func (w *Worker) queryAI(ctx context.Context, prompt string, log zerolog.Logger) (domain.AIResponse, error) {
	var lastErr error
	for attempt := 0; attempt < w.opts.AIAttempts; attempt++ {
		if attempt > 0 {
			if err := w.sleep(ctx, time.Duration(attempt)*w.opts.RetryDelay); err != nil {
				return domain.AIResponse{}, err
			}
		}
		raw, err := w.deps.AI.Complete(ctx, prompt)
		if err == nil {
			var resp domain.AIResponse
			if resp, err = ParseAIResponse(raw); err == nil {
				return resp, nil
			}
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("worker: попытка запроса к ИИ не удалась")
	}
	metrics.IncStageFailure("ai")
	return domain.AIResponse{}, lastErr
}

func (w *Worker) reply(ctx context.Context, ev domain.InboundEvent, text string, log zerolog.Logger) bool {
	if err := w.deps.Replier.Reply(ctx, ev.ReplyHandle, text); err != nil {
		metrics.ReplyErrors.Inc()
		log.Error().Err(err).Str("user_id", ev.UserID).Msg("worker: reply delivery failed")
		return false
	}
	return true
}

func (w *Worker) record(ctx context.Context, ev domain.InboundEvent, out Outcome, log zerolog.Logger) {
	if w.deps.Journal == nil {
		return
	}
	rec := domain.JournalRecord{
		MessageID:   ev.MessageID,
		UserID:      ev.UserID,
		Kind:        out.Kind,
		SourceURL:   out.SourceURL,
		Title:       out.Response.Title,
		Tags:        out.Response.Tags,
		Status:      out.Status,
		AIFailed:    out.AIFailed,
		Replied:     out.Replied,
		PageID:      out.PageID,
		ProcessedAt: time.Now().UTC(),
	}
	if err := w.deps.Journal.Save(ctx, rec); err != nil {
		metrics.IncStageFailure("journal")
		log.Warn().Err(err).Msg("worker: не удалось записать событие в журнал")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
