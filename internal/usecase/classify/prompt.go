package classify

import "link-notes-bot/internal/domain"

// FallbackPrefix используется, когда шаблон для типа сообщения недоступен.
const FallbackPrefix = "Кратко перескажи следующий текст:\n"

// TemplateSource отдаёт префикс промпта по ключу.
type TemplateSource interface {
	PromptFor(key string) (string, bool)
}

// PromptBuilder собирает итоговый промпт из шаблона и текста.
type PromptBuilder struct {
	templates TemplateSource
}

// NewPromptBuilder создаёт сборщик. templates может быть nil: тогда всегда
// используется FallbackPrefix.
func NewPromptBuilder(templates TemplateSource) *PromptBuilder {
	return &PromptBuilder{templates: templates}
}

// Build возвращает template[kind] + text. Для KindUnknown берётся шаблон summary.
// Результат никогда не пустой.
func (b *PromptBuilder) Build(kind domain.Kind, text string) string {
	key := string(kind)
	if kind != domain.KindURL {
		key = string(domain.KindSummary)
	}
	if b == nil || b.templates == nil {
		return FallbackPrefix + text
	}
	prefix, ok := b.templates.PromptFor(key)
	if !ok || prefix == "" {
		return FallbackPrefix + text
	}
	return prefix + text
}
