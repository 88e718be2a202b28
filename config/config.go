package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultWebhookURL = "https://your-n8n-instance.com/webhook/tournament-registration"

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	ServerPort   int    `env:"SERVER_PORT" envDefault:"8080"`
	DatabaseURL  string `env:"DATABASE_URL"`
	JWTSecretKey string `env:"JWT_SECRET_KEY"`
	PublicURL    string `env:"PUBLIC_URL" envDefault:"http://localhost:3000"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Вебхук n8n для регистраций на турниры.
	WebhookURL     string        `env:"N8N_WEBHOOK_URL"`
	WebhookToken   string        `env:"N8N_WEBHOOK_TOKEN"`
	WebhookTimeout time.Duration `env:"N8N_WEBHOOK_TIMEOUT" envDefault:"10s"`

	// Cloudflare R2 (аватары). Пустые значения отключают загрузку файлов.
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicBaseURL   string `env:"R2_PUBLIC_BASE_URL"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	SMTPFrom string `env:"SMTP_FROM"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	YandexClientID     string `env:"YANDEX_CLIENT_ID"`
	YandexClientSecret string `env:"YANDEX_CLIENT_SECRET"`
	YandexRedirectURL  string `env:"YANDEX_REDIRECT_URL"`
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Ошибку не считаем фатальной: в проде .env обычно нет.
	_ = godotenv.Load()
	return Parse()
}

// Parse читает окружение без .env файла.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if cfg.JWTSecretKey == "" && !cfg.DemoMode() {
		return nil, errors.New("JWT_SECRET_KEY environment variable is not set")
	}

	if cfg.WebhookURL == "" {
		cfg.WebhookURL = defaultWebhookURL
	}
	if cfg.WebhookTimeout <= 0 {
		return nil, fmt.Errorf("N8N_WEBHOOK_TIMEOUT must be positive, got %s", cfg.WebhookTimeout)
	}

	return &cfg, nil
}

// DemoMode сообщает, работает ли сервис без базы данных.
func (c *Config) DemoMode() bool {
	return c.DatabaseURL == ""
}

func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func (c *Config) YandexEnabled() bool {
	return c.YandexClientID != "" && c.YandexClientSecret != ""
}
