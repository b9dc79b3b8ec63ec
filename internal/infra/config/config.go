package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию бота.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	PromptsFile string `envconfig:"PROMPTS_FILE" default:"config/prompts.yaml"`

	Telegram struct {
		Token         string `envconfig:"TG_BOT_TOKEN"`
		WebhookURL    string `envconfig:"TG_WEBHOOK_URL"`
		WebhookSecret string `envconfig:"TG_WEBHOOK_SECRET"`
	} `envconfig:""`

	OpenAI struct {
		APIKey  string        `envconfig:"OPENAI_API_KEY"`
		BaseURL string        `envconfig:"OPENAI_BASE_URL"`
		Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
		Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	} `envconfig:""`

	Notion struct {
		Token         string        `envconfig:"NOTION_TOKEN"`
		DatabaseID    string        `envconfig:"NOTION_DATABASE_ID"`
		BaseURL       string        `envconfig:"NOTION_BASE_URL" default:"https://api.notion.com/v1"`
		Version       string        `envconfig:"NOTION_VERSION" default:"2022-06-28"`
		TitleProperty string        `envconfig:"NOTION_TITLE_PROPERTY" default:"Name"`
		DateProperty  string        `envconfig:"NOTION_DATE_PROPERTY" default:"Date"`
		TagsProperty  string        `envconfig:"NOTION_TAGS_PROPERTY" default:"Tags"`
		Timeout       time.Duration `envconfig:"NOTION_TIMEOUT" default:"20s"`
	} `envconfig:""`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`

	Ledger struct {
		Backend string        `envconfig:"LEDGER_BACKEND" default:"postgres"`
		TTL     time.Duration `envconfig:"LEDGER_TTL" default:"720h"`
	} `envconfig:""`

	Queue struct {
		Backend  string        `envconfig:"QUEUE_BACKEND" default:"memory"`
		Key      string        `envconfig:"QUEUE_KEY" default:"inbound_events"`
		Capacity int           `envconfig:"QUEUE_CAPACITY" default:"100"`
		PollWait time.Duration `envconfig:"QUEUE_POLL_WAIT" default:"30s"`
	} `envconfig:""`

	Extractor struct {
		Timeout  time.Duration `envconfig:"EXTRACTOR_TIMEOUT" default:"15s"`
		MaxChars int           `envconfig:"EXTRACTOR_MAX_CHARS" default:"8000"`
		CacheTTL time.Duration `envconfig:"EXTRACTOR_CACHE_TTL" default:"24h"`
	} `envconfig:""`

	Worker struct {
		AIAttempts int           `envconfig:"WORKER_AI_ATTEMPTS" default:"3"`
		RetryDelay time.Duration `envconfig:"WORKER_RETRY_DELAY" default:"1s"`
	} `envconfig:""`
}

// MissingError перечисляет незаданные обязательные переменные окружения.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return "config: missing required settings: " + strings.Join(e.Vars, ", ")
}

// Load загружает конфиг из окружения.
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate проверяет наличие секретов и адресов, без которых бот не работает.
// Возвращает *MissingError.
func (c AppConfig) Validate() error {
	var missing []string
	check := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check(c.Telegram.Token, "TG_BOT_TOKEN")
	check(c.Telegram.WebhookSecret, "TG_WEBHOOK_SECRET")
	check(c.OpenAI.APIKey, "OPENAI_API_KEY")
	check(c.Notion.Token, "NOTION_TOKEN")
	check(c.Notion.DatabaseID, "NOTION_DATABASE_ID")
	switch c.Ledger.Backend {
	case "postgres":
		check(c.PGDSN, "PG_DSN")
	case "redis":
		check(c.RedisAddr, "REDIS_ADDR")
	}
	if c.Queue.Backend == "redis" && c.Ledger.Backend != "redis" {
		check(c.RedisAddr, "REDIS_ADDR")
	}
	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}
	return nil
}
