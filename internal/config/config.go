package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

const envPrefix = "LOYALTY_"

type Config struct {
	Primary  Primary        `koanf:"primary"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Loyalty  LoyaltyConfig  `koanf:"loyalty"`
	Retry    RetryConfig    `koanf:"retry"`
	Logger   LoggerConfig   `koanf:"logger"`
	Worker   WorkerConfig   `koanf:"worker"`
}

// WorkerConfig drives the data-sync job that refreshes the access token and program configuration.
type WorkerConfig struct {
	Interval time.Duration `koanf:"interval" validate:"required"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig holds the HTTP listener settings. RequestTimeout bounds a
// whole handler and must outlast a loyalty provider call.
type ServerConfig struct {
	Port           string        `koanf:"port" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

// LoyaltyConfig holds the loyalty provider endpoint, credentials and program names.
type LoyaltyConfig struct {
	Endpoint                  string        `koanf:"endpoint" validate:"required,url"`
	APIVersion                string        `koanf:"api_version" validate:"required"`
	ProgramName               string        `koanf:"program_name" validate:"required"`
	ClientID                  string        `koanf:"client_id" validate:"required"`
	ClientSecret              string        `koanf:"client_secret" validate:"required"`
	Username                  string        `koanf:"username" validate:"required"`
	Password                  string        `koanf:"password" validate:"required"`
	SecretToken               string        `koanf:"secret_token"`
	QualifyingCurrencyName    string        `koanf:"qualifying_currency_name"`
	NonQualifyingCurrencyName string        `koanf:"non_qualifying_currency_name"`
	DefaultWebsite            string        `koanf:"default_website"`
	Timeout                   time.Duration `koanf:"timeout" validate:"required"`
}

// QualifyingCurrency returns the configured qualifying currency name or the program default.
func (c LoyaltyConfig) QualifyingCurrency() string {
	if c.QualifyingCurrencyName == "" {
		return "Qualifying Points"
	}
	return c.QualifyingCurrencyName
}

// NonQualifyingCurrency returns the configured non-qualifying currency name or the program default.
func (c LoyaltyConfig) NonQualifyingCurrency() string {
	if c.NonQualifyingCurrencyName == "" {
		return "Non-Qualifying Points"
	}
	return c.NonQualifyingCurrencyName
}

func (c LoyaltyConfig) Website() string {
	if c.DefaultWebsite == "" {
		return "www.test.com"
	}
	return c.DefaultWebsite
}

// RetryConfig applies to access token acquisition only. Voucher calls are never retried.
type RetryConfig struct {
	BaseDelayMS int32 `koanf:"base_delay_ms"`
	MaxRetries  int32 `koanf:"max_retries"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	if mainConfig.Server.RequestTimeout <= mainConfig.Loyalty.Timeout {
		err = fmt.Errorf("server request timeout %s must exceed loyalty timeout %s",
			mainConfig.Server.RequestTimeout, mainConfig.Loyalty.Timeout)
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
