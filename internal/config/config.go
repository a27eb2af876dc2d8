package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	BaseURL  string

	DBDSN string

	// Payment gateway: "mockpay" for now, real adapters plug into the factory.
	PaymentProvider   string
	MockWebhookSecret string

	SMTP SMTPConfig

	Mail MailConfig
}

type SMTPConfig struct {
	Host          string
	Port          string
	Username      string
	Password      string
	TLSMode       string // "", "starttls", "tls"
	SkipVerifyTLS bool
}

type MailConfig struct {
	Enabled  bool
	FromName string
	From     string
}

// Load reads .env (if present) and builds the config from the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		BaseURL:           envOr("BASE_URL", "http://localhost:8080"),
		DBDSN:             os.Getenv("DB_DSN"),
		PaymentProvider:   envOr("PAYMENT_PROVIDER", "mockpay"),
		MockWebhookSecret: os.Getenv("MOCK_WEBHOOK_SECRET"),
	}

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("config: DB_DSN is required")
	}

	cfg.SMTP = SMTPConfig{
		Host:          os.Getenv("SMTP_HOST"),
		Port:          envOr("SMTP_PORT", "587"),
		Username:      os.Getenv("SMTP_USERNAME"),
		Password:      os.Getenv("SMTP_PASSWORD"),
		TLSMode:       envOr("SMTP_TLS_MODE", "starttls"),
		SkipVerifyTLS: envBool("SMTP_SKIP_VERIFY_TLS"),
	}

	cfg.Mail = MailConfig{
		Enabled:  envBool("MAIL_ENABLED"),
		FromName: envOr("MAIL_FROM_NAME", "Kavella"),
		From:     envOr("MAIL_FROM", "no-reply@kavella.com"),
	}

	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string) bool {
	v, _ := strconv.ParseBool(os.Getenv(k))
	return v
}
