package domain

import "time"

// ReplyHandle — непрозрачный токен ответа. Разбирать его умеет только адаптер чата.
type ReplyHandle string

// InboundEvent описывает одно входящее сообщение чата.
type InboundEvent struct {
	MessageID   string      `json:"message_id"`
	UserID      string      `json:"user_id"`
	Text        string      `json:"text"`
	ReplyHandle ReplyHandle `json:"reply_handle"`
	TraceID     string      `json:"trace_id,omitempty"`
	ReceivedAt  time.Time   `json:"received_at"`
}

// Kind — тип содержимого сообщения.
type Kind string

const (
	// KindURL: сообщение содержит ссылку на статью.
	KindURL Kind = "url"
	// KindSummary: обычный текст для пересказа.
	KindSummary Kind = "summary"
	KindUnknown Kind = "unknown"
)

// ExtractionStatus — результат извлечения текста.
type ExtractionStatus string

const (
	ExtractionOK      ExtractionStatus = "ok"
	ExtractionFailed  ExtractionStatus = "extractionFailed"
	ExtractionUnknown ExtractionStatus = "unknown"
)

// Classification — рабочая запись обработки одного события. Принадлежит воркеру.
type Classification struct {
	Kind          Kind
	SourceValue   string
	ExtractedText string
	Prompt        string
	Status        ExtractionStatus
}

// AIResponse — разобранный ответ модели.
type AIResponse struct {
	Title string
	Tags  []string
	Body  string
}

// Usable сообщает, можно ли сохранять ответ в хранилище документов.
func (r AIResponse) Usable() bool {
	return r.Title != ""
}

// JournalRecord — запись журнала об обработанном событии.
type JournalRecord struct {
	MessageID   string
	UserID      string
	Kind        Kind
	SourceURL   string
	Title       string
	Tags        []string
	Status      ExtractionStatus
	AIFailed    bool
	Replied     bool
	PageID      string
	ProcessedAt time.Time
}

// ExtractResult хранит результат извлечения текста статьи. Failed=true означает,
// что в Text лежит заглушка с описанием проблемы.
type ExtractResult struct {
	Text   string
	Failed bool
}
