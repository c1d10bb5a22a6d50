// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config groups every runtime setting by concern.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Payment  PaymentConfig
	Upload   UploadConfig
	Order    OrderConfig
	Settings SettingsConfig
}

type AppConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ClientURL string
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type RabbitMQConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type PaymentConfig struct {
	Provider           string
	PayPalClientID     string
	PayPalClientSecret string
	PayPalBaseURL      string
	MidtransServerKey  string
	MidtransEnv        string
}

type UploadConfig struct {
	Dir     string
	BaseURL string
}

type OrderConfig struct {
	AllowBackorder bool
}

type SettingsConfig struct {
	MaxFeaturedProducts int
}

// IsProduction reports whether the app runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("CLIENT_URL", "http://localhost:3000")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=storefront port=5432 sslmode=disable")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "60m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")

	v.SetDefault("RABBITMQ_URL", "")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", "5m")

	v.SetDefault("PAYMENT_PROVIDER", "paypal")
	v.SetDefault("PAYPAL_CLIENT_ID", "")
	v.SetDefault("PAYPAL_CLIENT_SECRET", "")
	v.SetDefault("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com")
	v.SetDefault("MIDTRANS_SERVER_KEY", "")
	v.SetDefault("MIDTRANS_ENV", "sandbox")

	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("UPLOAD_BASE_URL", "/uploads")

	v.SetDefault("ORDER_ALLOW_BACKORDER", false)
	v.SetDefault("MAX_FEATURED_PRODUCTS", 8)
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Port:      v.GetString("APP_PORT"),
			Env:       v.GetString("APP_ENV"),
			LogLevel:  v.GetString("LOG_LEVEL"),
			ClientURL: v.GetString("CLIENT_URL"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Auth: AuthConfig{
			JWTSecret:       v.GetString("JWT_SECRET"),
			AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
			RefreshTokenTTL: v.GetDuration("REFRESH_TOKEN_TTL"),
		},
		RabbitMQ: RabbitMQConfig{URL: v.GetString("RABBITMQ_URL")},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("REDIS_TTL"),
		},
		Payment: PaymentConfig{
			Provider:           strings.ToLower(v.GetString("PAYMENT_PROVIDER")),
			PayPalClientID:     v.GetString("PAYPAL_CLIENT_ID"),
			PayPalClientSecret: v.GetString("PAYPAL_CLIENT_SECRET"),
			PayPalBaseURL:      strings.TrimRight(v.GetString("PAYPAL_BASE_URL"), "/"),
			MidtransServerKey:  v.GetString("MIDTRANS_SERVER_KEY"),
			MidtransEnv:        strings.ToLower(v.GetString("MIDTRANS_ENV")),
		},
		Upload: UploadConfig{
			Dir:     v.GetString("UPLOAD_DIR"),
			BaseURL: strings.TrimRight(v.GetString("UPLOAD_BASE_URL"), "/"),
		},
		Order:    OrderConfig{AllowBackorder: v.GetBool("ORDER_ALLOW_BACKORDER")},
		Settings: SettingsConfig{MaxFeaturedProducts: v.GetInt("MAX_FEATURED_PRODUCTS")},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Payment.Provider {
	case "paypal", "midtrans":
	default:
		return fmt.Errorf("unsupported PAYMENT_PROVIDER %q", c.Payment.Provider)
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.Settings.MaxFeaturedProducts <= 0 {
		return fmt.Errorf("MAX_FEATURED_PRODUCTS must be positive")
	}
	return nil
}
