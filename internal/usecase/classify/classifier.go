package classify

import (
	"regexp"

	"link-notes-bot/internal/domain"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Classify определяет тип сообщения: первая ссылка в тексте делает его KindURL,
// иначе это KindSummary. Ошибок не бывает.
func Classify(text string) domain.Classification {
	if match := urlPattern.FindString(text); match != "" {
		return domain.Classification{Kind: domain.KindURL, SourceValue: match, Status: domain.ExtractionUnknown}
	}
	return domain.Classification{Kind: domain.KindSummary, Status: domain.ExtractionUnknown}
}
