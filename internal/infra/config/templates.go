package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Templates — шаблоны промптов из файла конфигурации.
// JSON тоже является YAML, поэтому файл может быть в любом из форматов.
type Templates struct {
	Prompt map[string]string `yaml:"prompt"`
	System []string          `yaml:"system"`
	Format string            `yaml:"format"`
}

const defaultFormat = `{"tag": [{"name": "value"}, {"name": "value"}, {"name": "value"}], "article_title": "value", "ai_response": "value"}`

// DefaultTemplates возвращает встроенные шаблоны на случай отсутствия файла.
func DefaultTemplates() Templates {
	return Templates{
		Prompt: map[string]string{
			"url":     "Сделай краткое изложение следующей статьи, не отвечай ничего другого\n",
			"summary": "Помоги оформить краткое изложение текста:\n",
		},
		System: []string{
			"Ты дружелюбный помощник и отвечаешь только на русском языке.",
			"Если тебе прислали статью, сделай её краткое изложение.",
			"Если не уверен, скажи «Не уверен, лучше свериться с источником».",
		},
		Format: defaultFormat,
	}
}

// PromptFor возвращает префикс промпта по ключу.
func (t Templates) PromptFor(key string) (string, bool) {
	if t.Prompt == nil {
		return "", false
	}
	v, ok := t.Prompt[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// SystemInstructions собирает системные инструкции вместе с описанием формата ответа.
func (t Templates) SystemInstructions() []string {
	out := make([]string, 0, len(t.System)+1)
	out = append(out, t.System...)
	format := strings.TrimSpace(t.Format)
	if format == "" {
		format = defaultFormat
	}
	out = append(out, "Верни ответ строго в формате JSON без ``` и пояснений:\n"+format)
	return out
}

// LoadTemplates читает файл шаблонов. Ошибку os.ErrNotExist вызывающий код
// обрабатывает отдельно: в этом случае используются DefaultTemplates.
func LoadTemplates(path string) (Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Templates{}, fmt.Errorf("read templates %s: %w", path, err)
	}
	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Templates{}, fmt.Errorf("parse templates %s: %w", path, err)
	}
	return t, nil
}
