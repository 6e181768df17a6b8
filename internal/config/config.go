// README: Config loader with env defaults for HTTP, Redis and channel credentials.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	Env  string
	HTTP struct {
		Addr string
	}
	// Redis is optional; an empty address keeps sessions in memory.
	Redis struct {
		Addr string
	}
	AI struct {
		GeminiKey string
		// QuotaPerMonth caps assistant replies per session per month when
		// Redis is configured; 0 selects the default allowance.
		QuotaPerMonth int64
	}
	Telegram struct {
		BotToken string
		ChatID   string
	}
	Bitrix struct {
		WebhookURL string
	}
	Maps struct {
		APIKey string
	}
}

// Load reads the environment. Channel and assistant credentials are all
// optional: a missing credential disables exactly that feature and nothing
// else.
func Load() (Config, error) {
	var cfg Config
	cfg.Env = envOrDefault("BVETRA_ENV", "development")
	cfg.HTTP.Addr = envOrDefault("BVETRA_HTTP_ADDR", ":8080")
	cfg.Redis.Addr = os.Getenv("BVETRA_REDIS_ADDR")
	cfg.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")
	if v := os.Getenv("BVETRA_AI_QUOTA_PER_MONTH"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, err
		}
		cfg.AI.QuotaPerMonth = n
	}
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.Bitrix.WebhookURL = os.Getenv("BITRIX_WEBHOOK_URL")
	cfg.Maps.APIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
