package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/metrics"
)

const (
	maxBlockRunes = 2000
	maxTagRunes   = 100
	maxBlocks     = 100
)

type Config struct {
	BaseURL       string
	Token         string
	Version       string
	DatabaseID    string
	TitleProperty string
	DateProperty  string
	TagsProperty  string
	Timeout       time.Duration
}

// Client создаёт страницы в базе данных Notion.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

var _ domain.DocumentStore = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.notion.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Version == "" {
		cfg.Version = "2022-06-28"
	}
	if cfg.TitleProperty == "" {
		cfg.TitleProperty = "Name"
	}
	if cfg.DateProperty == "" {
		cfg.DateProperty = "Date"
	}
	if cfg.TagsProperty == "" {
		cfg.TagsProperty = "Tags"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}, now: time.Now}
}

func (c *Client) SetHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

// APIError описывает ответ Notion с кодом ошибки.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: status %d: %s %s", e.StatusCode, e.Code, e.Message)
}

type richText struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

func newRichText(s string) []richText {
	rt := richText{Type: "text"}
	rt.Text.Content = s
	return []richText{rt}
}

type selectOption struct {
	Name string `json:"name"`
}

type block struct {
	Object    string `json:"object"`
	Type      string `json:"type"`
	Paragraph struct {
		RichText []richText `json:"rich_text"`
	} `json:"paragraph"`
}

type createPageRequest struct {
	Parent struct {
		DatabaseID string `json:"database_id"`
	} `json:"parent"`
	Properties map[string]any `json:"properties"`
	Children   []block        `json:"children,omitempty"`
}

type pageResponse struct {
	ID string `json:"id"`
}

// CreateEntry создаёт страницу с заголовком, текущей датой, тегами и текстом.
func (c *Client) CreateEntry(ctx context.Context, title string, tags []string, body string) (string, error) {
	if c.cfg.Token == "" || c.cfg.DatabaseID == "" {
		return "", fmt.Errorf("notion: token or database id is empty")
	}
	req := createPageRequest{Properties: c.properties(title, tags), Children: paragraphs(body)}
	req.Parent.DatabaseID = c.cfg.DatabaseID

	var page pageResponse
	start := time.Now()
	err := c.call(ctx, http.MethodPost, "/pages", req, &page)
	metrics.ObserveNetworkRequest("notion", "create_page", c.cfg.DatabaseID, start, err)
	if err != nil {
		return "", err
	}
	return page.ID, nil
}

// Ping проверяет доступ к базе данных.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.call(ctx, http.MethodGet, "/databases/"+c.cfg.DatabaseID, nil, nil)
	metrics.ObserveNetworkRequest("notion", "get_database", c.cfg.DatabaseID, start, err)
	return err
}

func (c *Client) properties(title string, tags []string) map[string]any {
	options := make([]selectOption, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		name := sanitizeTag(tag)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		options = append(options, selectOption{Name: name})
	}
	return map[string]any{
		c.cfg.TitleProperty: map[string]any{"title": newRichText(clip(title, maxBlockRunes))},
		c.cfg.DateProperty:  map[string]any{"date": map[string]string{"start": c.now().Format("2006-01-02")}},
		c.cfg.TagsProperty:  map[string]any{"multi_select": options},
	}
}

// sanitizeTag убирает запятые: Notion не принимает их в опциях multi_select.
func sanitizeTag(tag string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, ",", " "))
	return clip(strings.Join(strings.Fields(tag), " "), maxTagRunes)
}

func paragraphs(body string) []block {
	runes := []rune(strings.TrimSpace(body))
	var out []block
	for len(runes) > 0 && len(out) < maxBlocks {
		n := min(len(runes), maxBlockRunes)
		b := block{Object: "block", Type: "paragraph"}
		b.Paragraph.RichText = newRichText(string(runes[:n]))
		out = append(out, b)
		runes = runes[n:]
	}
	return out
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("notion: marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("notion: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	httpReq.Header.Set("Notion-Version", c.cfg.Version)
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("notion: do request: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("notion: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("notion: decode response: %w", err)
	}
	return nil
}
