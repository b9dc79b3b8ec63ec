package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"link-notes-bot/internal/adapters/bot"
	"link-notes-bot/internal/adapters/extractor"
	"link-notes-bot/internal/adapters/notion"
	"link-notes-bot/internal/adapters/repo"
	"link-notes-bot/internal/adapters/summarizer"
	"link-notes-bot/internal/adapters/telegram"
	"link-notes-bot/internal/domain"
	"link-notes-bot/internal/infra/cache"
	"link-notes-bot/internal/infra/config"
	"link-notes-bot/internal/infra/db"
	httpinfra "link-notes-bot/internal/infra/http"
	"link-notes-bot/internal/infra/log"
	"link-notes-bot/internal/infra/metrics"
	openai "link-notes-bot/internal/infra/openai"
	"link-notes-bot/internal/infra/queue"
	"link-notes-bot/internal/usecase/classify"
	"link-notes-bot/internal/usecase/ingest"
	"link-notes-bot/internal/usecase/process"
)

func main() {
	// .env необязателен.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		boot := log.NewLogger("")
		boot.Fatal().Err(err).Msg("config: не удалось разобрать окружение")
	}
	logger := log.NewLogger(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			logger.Fatal().Strs("vars", missing.Vars).Msg("config: missing required settings")
		}
		logger.Fatal().Err(err).Msg("config: некорректная конфигурация")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metrics.StartServer(ctx, logger, cfg.MetricsAddr)
	}

	templates := loadTemplates(cfg.PromptsFile, logger)

	var pool *pgxpool.Pool
	if cfg.PGDSN != "" {
		pool, err = db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("bot: нет подключения к БД")
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("bot: не удалось применить схему БД")
		}
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, ContextTimeoutEnabled: true})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("bot: redis недоступен")
		}
	}

	ledger, err := newLedger(cfg, pool, rdb)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: не удалось создать реестр сообщений")
	}
	events, err := queue.New(cfg.Queue.Backend, rdb, cfg.Queue.Key, cfg.Queue.Capacity, logger.With().Str("component", "queue").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: не удалось создать очередь")
	}

	extractorOpts := []extractor.Option{extractor.WithMaxChars(cfg.Extractor.MaxChars)}
	if rdb != nil {
		extractorOpts = append(extractorOpts, extractor.WithCache(cache.NewRedis(rdb, "link-notes:"), cfg.Extractor.CacheTTL))
	}
	article := extractor.New(cfg.Extractor.Timeout, logger.With().Str("component", "extractor").Logger(), extractorOpts...)

	ai := summarizer.NewOpenAI(
		openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout),
		cfg.OpenAI.Model,
		cfg.OpenAI.Timeout,
		templates.SystemInstructions(),
	)

	notes := notion.NewClient(notion.Config{
		BaseURL:       cfg.Notion.BaseURL,
		Token:         cfg.Notion.Token,
		Version:       cfg.Notion.Version,
		DatabaseID:    cfg.Notion.DatabaseID,
		TitleProperty: cfg.Notion.TitleProperty,
		DateProperty:  cfg.Notion.DateProperty,
		TagsProperty:  cfg.Notion.TagsProperty,
		Timeout:       cfg.Notion.Timeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := notes.Ping(pingCtx); err != nil {
		logger.Warn().Err(err).Msg("bot: база Notion недоступна, заметки могут не сохраняться")
	}
	cancel()

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: не удалось создать бота")
	}
	replier := telegram.NewReplier(botAPI)

	deps := process.Deps{
		Queue:     events,
		Extractor: article,
		Prompts:   classify.NewPromptBuilder(templates),
		AI:        ai,
		Replier:   replier,
		Store:     notes,
	}
	if pool != nil {
		deps.Journal = repo.NewPostgres(pool)
	}
	worker, err := process.NewWorker(deps, process.Options{
		PollWait:   cfg.Queue.PollWait,
		AIAttempts: cfg.Worker.AIAttempts,
		RetryDelay: cfg.Worker.RetryDelay,
		MaxChars:   cfg.Extractor.MaxChars,
	}, logger.With().Str("component", "worker").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: не удалось создать воркер")
	}

	ingestSvc := ingest.NewService(ingest.NewGate(ledger), events, logger.With().Str("component", "ingest").Logger())
	webhook := bot.NewHandler(logger.With().Str("component", "bot").Logger(), ingestSvc, replier)

	srv := httpinfra.NewServer(logger)
	srv.Router.Get("/healthz", httpinfra.HealthHandler(worker))
	srv.Router.With(httpinfra.WebhookSecretMiddleware(cfg.Telegram.WebhookSecret)).Post("/webhook/{secret}", webhook.ServeHTTP)

	if err := worker.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("bot: не удалось запустить воркер")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(":" + strconv.Itoa(cfg.Port))
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("bot: остановка")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("bot: http сервер остановлен с ошибкой")
		}
		if err := worker.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("stop worker: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("bot: завершение с ошибкой")
		os.Exit(1)
	}
}

func loadTemplates(path string, logger zerolog.Logger) config.Templates {
	templates, err := config.LoadTemplates(path)
	switch {
	case err == nil:
		return templates
	case errors.Is(err, os.ErrNotExist):
		logger.Warn().Str("path", path).Msg("bot: файл шаблонов не найден, используем встроенные")
		return config.DefaultTemplates()
	default:
		logger.Error().Err(err).Msg("bot: файл шаблонов не читается, промпты будут общими")
		return config.Templates{}
	}
}

func newLedger(cfg config.AppConfig, pool *pgxpool.Pool, rdb *redis.Client) (domain.DedupLedger, error) {
	switch cfg.Ledger.Backend {
	case "postgres":
		if pool == nil {
			return nil, errors.New("postgres ledger: PG_DSN is not set")
		}
		return repo.NewPostgres(pool), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("redis ledger: REDIS_ADDR is not set")
		}
		return repo.NewRedisLedger(rdb, "link-notes:processed:", cfg.Ledger.TTL), nil
	case "memory":
		return repo.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}
