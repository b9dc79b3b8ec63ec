package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"link-notes-bot/internal/adapters/telegram"
	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/metrics"
	"link-notes-bot/internal/usecase/ingest"
)

const maxUpdateBytes = 1 << 20

const helpText = `Пришлите ссылку на статью или любой текст.
Я сделаю краткое изложение, подберу теги и сохраню заметку.`

// Ingestor принимает событие в обработку.
type Ingestor interface {
	Ingest(ctx context.Context, ev domain.InboundEvent) (ingest.Result, error)
}

// Handler обслуживает вебхук бота.
type Handler struct {
	log     zerolog.Logger
	ingest  Ingestor
	replier domain.ChatReplier
}

// NewHandler создаёт обработчик. replier нужен только для ответов на команды.
func NewHandler(log zerolog.Logger, ingestor Ingestor, replier domain.ChatReplier) *Handler {
	return &Handler{log: log, ingest: ingestor, replier: replier}
}

// ServeHTTP разбирает апдейт Telegram. Ответ 500 заставляет Telegram повторить доставку.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var upd tgbotapi.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&upd); err != nil {
		h.log.Warn().Err(err).Msg("bot: некорректный апдейт")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.HandleUpdate(r.Context(), upd); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleUpdate обрабатывает входящий апдейт. Апдейты без текста игнорируются.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) error {
	ev, ok := EventFromUpdate(upd)
	if !ok {
		metrics.IncEvent("ignored")
		h.log.Debug().Int("update_id", upd.UpdateID).Msg("bot: апдейт без текста пропущен")
		return nil
	}
	if cmd := command(ev.Text); cmd != "" {
		h.handleCommand(ctx, cmd, ev)
		return nil
	}
	_, err := h.ingest.Ingest(ctx, ev)
	return err
}

// EventFromUpdate переводит апдейт Telegram во входящее событие.
func EventFromUpdate(upd tgbotapi.Update) (domain.InboundEvent, bool) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return domain.InboundEvent{}, false
	}
	text := msg.Text
	if strings.TrimSpace(text) == "" {
		text = msg.Caption
	}
	if strings.TrimSpace(text) == "" {
		return domain.InboundEvent{}, false
	}
	userID := strconv.FormatInt(msg.Chat.ID, 10)
	if msg.From != nil {
		userID = strconv.FormatInt(msg.From.ID, 10)
	}
	return domain.InboundEvent{
		MessageID:   telegram.MessageID(msg.Chat.ID, msg.MessageID),
		UserID:      userID,
		Text:        text,
		ReplyHandle: telegram.EncodeHandle(msg.Chat.ID, msg.MessageID),
	}, true
}

func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name, _, _ := strings.Cut(strings.Fields(text)[0], "@")
	switch name {
	case "/start", "/help":
		return name
	}
	return ""
}

func (h *Handler) handleCommand(ctx context.Context, cmd string, ev domain.InboundEvent) {
	if h.replier == nil {
		return
	}
	if err := h.replier.Reply(ctx, ev.ReplyHandle, helpText); err != nil {
		h.log.Error().Err(err).Str("command", cmd).Msg("bot: не удалось ответить на команду")
	}
}
