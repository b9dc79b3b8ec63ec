package telegram

import "strings"

// MessageLimit: максимальная длина сообщения Telegram в символах.
const MessageLimit = 4096

// SplitMessage режет текст на части не длиннее limit символов.
// Сначала ищется перевод строки, затем пробел; иначе режем по границе.
func SplitMessage(text string, limit int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if limit <= 0 {
		limit = MessageLimit
	}
	runes := []rune(trimmed)
	if len(runes) <= limit {
		return []string{trimmed}
	}

	var parts []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			parts = appendChunk(parts, runes)
			break
		}
		cut := lastBreak(runes[:limit], '\n')
		if cut <= 0 {
			cut = lastBreak(runes[:limit], ' ')
		}
		if cut <= 0 {
			cut = limit
		}
		parts = appendChunk(parts, runes[:cut])
		runes = []rune(strings.TrimLeft(string(runes[cut:]), "\n "))
	}
	return parts
}

func lastBreak(runes []rune, sep rune) int {
	for i := len(runes); i > 0; i-- {
		if runes[i-1] == sep {
			return i
		}
	}
	return -1
}

func appendChunk(parts []string, runes []rune) []string {
	if chunk := strings.TrimSpace(string(runes)); chunk != "" {
		parts = append(parts, chunk)
	}
	return parts
}
