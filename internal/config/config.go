package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseWebAPIKey                string `mapstructure:"FIREBASE_WEB_API_KEY"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripeSellerPriceID string `mapstructure:"STRIPE_SELLER_PRICE_ID"`
	StripeBuyerPriceID  string `mapstructure:"STRIPE_BUYER_PRICE_ID"`

	ClientURL string `mapstructure:"CLIENT_URL"`

	// AdminAllowlist is a comma-separated list of administrative email
	// addresses the reaper must never delete.
	AdminAllowlist string `mapstructure:"ADMIN_ALLOWLIST"`
	ReaperSchedule string `mapstructure:"REAPER_SCHEDULE"`
	ReaperMaxAgeH  int    `mapstructure:"REAPER_MAX_AGE_HOURS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RabbitURL      string `mapstructure:"RABBIT_URL"`
	RabbitExchange string `mapstructure:"RABBIT_EXCHANGE"`

	SMTPHost   string `mapstructure:"SMTP_HOST"`
	SMTPPort   string `mapstructure:"SMTP_PORT"`
	SMTPUser   string `mapstructure:"SMTP_USER"`
	SMTPPass   string `mapstructure:"SMTP_PASS"`
	SMTPSender string `mapstructure:"SMTP_SENDER"`
}

// AdminAllowlistEmails returns the parsed, lower-cased allow-list.
func (c *Config) AdminAllowlistEmails() []string {
	if c.AdminAllowlist == "" {
		return nil
	}
	parts := strings.Split(c.AdminAllowlist, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReaperMaxAge returns the unverified-account age threshold.
func (c *Config) ReaperMaxAge() time.Duration {
	return time.Duration(c.ReaperMaxAgeH) * time.Hour
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("REAPER_SCHEDULE", "@every 24h")
	viper.SetDefault("REAPER_MAX_AGE_HOURS", 24)
	viper.SetDefault("SMTP_PORT", "2525")

	for _, key := range []string{
		"PORT", "GIN_MODE",
		"FIREBASE_PROJECT_ID", "FIREBASE_WEB_API_KEY",
		"GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET",
		"STRIPE_SELLER_PRICE_ID", "STRIPE_BUYER_PRICE_ID",
		"CLIENT_URL",
		"ADMIN_ALLOWLIST", "REAPER_SCHEDULE", "REAPER_MAX_AGE_HOURS",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"RABBIT_URL", "RABBIT_EXCHANGE",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_SENDER",
	} {
		viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.FirebaseWebAPIKey == "" {
		return nil, errors.New("FIREBASE_WEB_API_KEY is required")
	}
	if cfg.GoogleApplicationCredentials == "" && cfg.FirebaseServiceAccountJSONBase64 == "" {
		return nil, errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.StripeSellerPriceID == "" || cfg.StripeBuyerPriceID == "" {
		return nil, errors.New("STRIPE_SELLER_PRICE_ID and STRIPE_BUYER_PRICE_ID are required")
	}
	if cfg.ClientURL == "" {
		return nil, errors.New("CLIENT_URL is required")
	}
	if cfg.ReaperMaxAgeH <= 0 {
		return nil, errors.New("REAPER_MAX_AGE_HOURS must be positive")
	}

	return &cfg, nil
}
