package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"link-notes-bot/internal/domain"
)

// Тексты, которые пользователь получает вместо ответа модели.
const (
	AIUnavailableText  = "Не удалось получить ответ ИИ. Сервис сейчас недоступен, попробуйте отправить сообщение позже."
	InternalFailedText = "Во время обработки сообщения произошла ошибка. Попробуйте отправить его ещё раз."
)

var errEmptyBody = errors.New("ai response has empty body")

type aiPayload struct {
	Tag []struct {
		Name string `json:"name"`
	} `json:"tag"`
	ArticleTitle string `json:"article_title"`
	AIResponse   string `json:"ai_response"`
}

// ParseAIResponse разбирает JSON-ответ модели. Обёртка ```json ... ``` допускается.
func ParseAIResponse(raw string) (domain.AIResponse, error) {
	content := stripFence(raw)
	var payload aiPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return domain.AIResponse{}, fmt.Errorf("распаковка ответа LLM: %w", err)
	}
	body := strings.TrimSpace(payload.AIResponse)
	if body == "" {
		return domain.AIResponse{}, errEmptyBody
	}
	tags := make([]string, 0, len(payload.Tag))
	for _, t := range payload.Tag {
		if name := strings.TrimSpace(t.Name); name != "" {
			tags = append(tags, name)
		}
	}
	return domain.AIResponse{
		Title: strings.TrimSpace(payload.ArticleTitle),
		Tags:  tags,
		Body:  body,
	}, nil
}

// fallbackResponse строит синтетический ответ без заголовка, в хранилище он не попадает.
func fallbackResponse(body string) domain.AIResponse {
	return domain.AIResponse{Tags: []string{}, Body: body}
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// FormatReply собирает текст ответа в чат.
func FormatReply(resp domain.AIResponse) string {
	var b strings.Builder
	if resp.Title != "" {
		b.WriteString(resp.Title)
		b.WriteString("\n\n")
	}
	b.WriteString(resp.Body)
	if len(resp.Tags) > 0 {
		b.WriteString("\n\n")
		for i, tag := range resp.Tags {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte('#')
			b.WriteString(strings.Join(strings.Fields(tag), "_"))
		}
	}
	return b.String()
}
