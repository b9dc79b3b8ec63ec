package domain

import "unicode/utf8"

const (
	// MaxExtractedChars ограничивает длину текста, передаваемого модели.
	MaxExtractedChars = 8000
	// TruncationMarker дописывается к обрезанному тексту.
	TruncationMarker = "...(текст слишком длинный, обрезан)"
)

// ClipText обрезает текст до limit символов и дописывает TruncationMarker.
func ClipText(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + TruncationMarker
}
