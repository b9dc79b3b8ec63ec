package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"link-notes-bot/internal/domain"
	openai "link-notes-bot/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI реализует domain.AIService через OpenAI Chat Completions.
type OpenAI struct {
	client  chatClient
	model   string
	timeout time.Duration
	system  string
}

var _ domain.AIService = (*OpenAI)(nil)

// NewOpenAI создаёт провайдер. system содержит системные инструкции, по одной на строку.
func NewOpenAI(client chatClient, model string, timeout time.Duration, system []string) *OpenAI {
	if model == "" {
		model = "gpt-4.1-mini"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout, system: strings.Join(system, "\n")}
}

// Complete отправляет промпт и возвращает сырой JSON ответа модели.
// Пустой ответ считается ошибкой, чтобы вызывающий код мог повторить попытку.
func (s *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := make([]openai.ChatMessage, 0, 2)
	if s.system != "" {
		messages = append(messages, openai.ChatMessage{Role: openai.RoleSystem, Content: s.system})
	}
	messages = append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{
		Model:          s.model,
		Temperature:    0.5,
		TopP:           0.9,
		Messages:       messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: пустой ответ")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai completion: пустое сообщение (finish_reason=%s)", resp.Choices[0].FinishReason)
	}
	return content, nil
}
