package extractor

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/metrics"
)

const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	maxBodyBytes   = 5 << 20
	minUsefulRunes = 50
	cacheKeyPrefix = "article:"
)

// Тексты-заглушки, которые уходят в промпт вместо статьи.
const (
	VideoPlaceholder   = "Видео по ссылке не поддерживается. Пришлите, пожалуйста, текст."
	FailurePlaceholder = "Не удалось получить текст статьи по ссылке."
	ShortPlaceholder   = "Не удалось извлечь содержательный текст со страницы."
)

// videoDomains совпадают вместе с поддоменами.
var videoDomains = []string{"youtube.com", "youtu.be"}

var skipped = map[atom.Atom]struct{}{
	atom.Script:   {},
	atom.Style:    {},
	atom.Nav:      {},
	atom.Header:   {},
	atom.Footer:   {},
	atom.Aside:    {},
	atom.Form:     {},
	atom.Noscript: {},
	atom.Template: {},
	atom.Svg:      {},
}

// Article скачивает страницу и достаёт из неё основной текст.
type Article struct {
	http     *http.Client
	cache    domain.TextCache
	cacheTTL time.Duration
	maxChars int
	log      zerolog.Logger
}

var _ domain.ContentExtractor = (*Article)(nil)

// Option настраивает Article.
type Option func(*Article)

// WithCache включает кэш успешно извлечённых текстов.
func WithCache(cache domain.TextCache, ttl time.Duration) Option {
	return func(a *Article) {
		a.cache = cache
		a.cacheTTL = ttl
	}
}

// WithMaxChars задаёт предел длины текста.
func WithMaxChars(n int) Option {
	return func(a *Article) {
		if n > 0 {
			a.maxChars = n
		}
	}
}

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Article) {
		if c != nil {
			a.http = c
		}
	}
}

// New создаёт экстрактор.
func New(timeout time.Duration, log zerolog.Logger, opts ...Option) *Article {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	a := &Article{
		http:     &http.Client{Timeout: timeout},
		maxChars: domain.MaxExtractedChars,
		log:      log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Extract никогда не возвращает ошибку: любая проблема превращается в заглушку.
func (a *Article) Extract(ctx context.Context, rawURL string) domain.ExtractResult {
	if isVideo(rawURL) {
		return domain.ExtractResult{Text: VideoPlaceholder}
	}
	key := cacheKey(rawURL)
	if a.cache != nil {
		if text, ok, err := a.cache.Get(ctx, key); err != nil {
			a.log.Warn().Err(err).Msg("extractor: кэш недоступен")
		} else if ok {
			return domain.ExtractResult{Text: text}
		}
	}

	text, err := a.fetch(ctx, rawURL)
	if err != nil {
		a.log.Warn().Err(err).Str("url", rawURL).Msg("extractor: не удалось загрузить страницу")
		return domain.ExtractResult{Text: FailurePlaceholder, Failed: true}
	}
	if utf8.RuneCountInString(text) <= minUsefulRunes {
		a.log.Info().Str("url", rawURL).Int("runes", utf8.RuneCountInString(text)).Msg("extractor: слишком мало текста")
		return domain.ExtractResult{Text: ShortPlaceholder, Failed: true}
	}
	text = domain.ClipText(text, a.maxChars)
	if a.cache != nil {
		if err := a.cache.Set(ctx, key, text, a.cacheTTL); err != nil {
			a.log.Warn().Err(err).Msg("extractor: не удалось сохранить в кэш")
		}
	}
	return domain.ExtractResult{Text: text}
}

func (a *Article) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	text, err := a.do(req)
	metrics.ObserveNetworkRequest("extractor", "fetch", req.URL.Host, start, err)
	return text, err
}

func (a *Article) do(req *http.Request) (string, error) {
	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("charset: %w", err)
	}
	doc, err := html.Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return MainText(doc)
}

var errNoContent = errors.New("document has no body")

// MainText возвращает текст <article>, иначе <main>, иначе <body>.
func MainText(doc *html.Node) (string, error) {
	root := find(doc, atom.Article)
	if root == nil {
		root = find(doc, atom.Main)
	}
	if root == nil {
		root = find(doc, atom.Body)
	}
	if root == nil {
		return "", errNoContent
	}
	var b strings.Builder
	collect(root, &b)
	return normalize(b.String()), nil
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func collect(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if _, skip := skipped[n.DataAtom]; skip {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, b)
	}
	if n.Type == html.ElementNode && isBlock(n.DataAtom) {
		b.WriteByte('\n')
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Section, atom.Article, atom.Blockquote, atom.Pre, atom.Tr:
		return true
	}
	return false
}

// normalize схлопывает пробелы внутри строк и убирает пустые строки.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func isVideo(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	for _, d := range videoDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func cacheKey(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
