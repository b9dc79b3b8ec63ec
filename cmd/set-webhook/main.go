package main

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"link-notes-bot/internal/infra/config"
	"link-notes-bot/internal/infra/log"
)

// Регистрирует вебхук бота: TG_WEBHOOK_URL + /webhook/<TG_WEBHOOK_SECRET>.
func main() {
	// .env необязателен.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		boot := log.NewLogger("")
		boot.Fatal().Err(err).Msg("config: не удалось разобрать окружение")
	}
	logger := log.NewLogger(cfg.AppEnv)
	if cfg.Telegram.Token == "" || cfg.Telegram.WebhookURL == "" || cfg.Telegram.WebhookSecret == "" {
		logger.Fatal().Msg("config: missing required settings: TG_BOT_TOKEN, TG_WEBHOOK_URL, TG_WEBHOOK_SECRET")
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("set-webhook: не удалось создать бота")
	}

	url := strings.TrimRight(cfg.Telegram.WebhookURL, "/") + "/webhook/" + cfg.Telegram.WebhookSecret
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		logger.Fatal().Err(err).Msg("set-webhook: некорректный адрес вебхука")
	}
	wh.AllowedUpdates = []string{"message"}
	if _, err := botAPI.Request(wh); err != nil {
		logger.Fatal().Err(err).Msg("set-webhook: Telegram отклонил вебхук")
	}

	info, err := botAPI.GetWebhookInfo()
	if err != nil {
		logger.Fatal().Err(err).Msg("set-webhook: не удалось получить состояние вебхука")
	}
	logger.Info().
		Str("bot", botAPI.Self.UserName).
		Int("pending_updates", info.PendingUpdateCount).
		Str("last_error", info.LastErrorMessage).
		Msg("set-webhook: вебхук зарегистрирован")
}
