package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/metrics"
)

// Sender — часть tgbotapi.BotAPI, нужная для отправки сообщений.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// EncodeHandle упаковывает чат и сообщение в непрозрачный ReplyHandle.
func EncodeHandle(chatID int64, messageID int) domain.ReplyHandle {
	return domain.ReplyHandle(fmt.Sprintf("%d:%d", chatID, messageID))
}

// DecodeHandle разбирает ReplyHandle. messageID=0 означает ответ без цитаты.
func DecodeHandle(h domain.ReplyHandle) (chatID int64, messageID int, err error) {
	chatPart, msgPart, found := strings.Cut(string(h), ":")
	chatID, err = strconv.ParseInt(chatPart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("telegram: bad reply handle %q", h)
	}
	if !found {
		return chatID, 0, nil
	}
	messageID, err = strconv.Atoi(msgPart)
	if err != nil {
		return 0, 0, fmt.Errorf("telegram: bad reply handle %q", h)
	}
	return chatID, messageID, nil
}

// MessageID строит ключ дедупликации сообщения Telegram.
func MessageID(chatID int64, messageID int) string {
	return fmt.Sprintf("tg:%d:%d", chatID, messageID)
}

// Replier отвечает в исходный чат цитатой исходного сообщения.
type Replier struct {
	sender Sender
}

var _ domain.ChatReplier = (*Replier)(nil)

func NewReplier(sender Sender) *Replier {
	return &Replier{sender: sender}
}

// Reply отправляет текст, разбивая его на части. Цитируется только первая часть.
func (r *Replier) Reply(ctx context.Context, handle domain.ReplyHandle, text string) error {
	chatID, replyTo, err := DecodeHandle(handle)
	if err != nil {
		return err
	}
	parts := SplitMessage(text, MessageLimit)
	if len(parts) == 0 {
		return fmt.Errorf("telegram: empty reply text")
	}
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, part)
		if i == 0 && replyTo != 0 {
			msg.ReplyToMessageID = replyTo
			msg.AllowSendingWithoutReply = true
		}
		start := time.Now()
		_, err := r.sender.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			return fmt.Errorf("telegram: send part %d/%d: %w", i+1, len(parts), err)
		}
	}
	return nil
}
