package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"golang.org/x/text/language"
)

type Config struct {
	AppEnv             string `env:"APP_ENV" default:"development"`
	Port               string `env:"PORT" default:"8080"`
	DatabaseURL        string `env:"DATABASE_URL"`
	RedisURL           string `env:"REDIS_URL"`
	TwitchClientID     string `env:"TWITCH_CLIENT_ID"`
	TwitchRedirectURI  string `env:"TWITCH_REDIRECT_URI"`
	TwitchAPIURL       string `env:"TWITCH_API_URL" default:"https://api.twitch.tv/helix"`
	TwitchAuthURL      string `env:"TWITCH_AUTH_URL" default:"https://id.twitch.tv/oauth2"`
	SessionSecret      string `env:"SESSION_SECRET"`
	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`
	LogLevel           string `env:"LOG_LEVEL" default:"info"`
	LogFormat          string `env:"LOG_FORMAT" default:"text"`
	DefaultTimezone    string `env:"DEFAULT_TIMEZONE" default:"UTC"`
	CollationLocale    string `env:"COLLATION_LOCALE" default:"en"`

	FollowMaxPages      int     `env:"FOLLOW_MAX_PAGES" default:"50"`
	FetchConcurrency    int     `env:"FETCH_CONCURRENCY" default:"8"`
	TwitchRatePerSecond float64 `env:"TWITCH_RATE_PER_SECOND" default:"13"`
	APIRateLimit        float64 `env:"API_RATE_LIMIT" default:"10"`
	APIRateBurst        int     `env:"API_RATE_BURST" default:"20"`
	DatabaseMaxConns    int     `env:"DATABASE_MAX_CONNS" default:"10"`

	HTTPTimeout       time.Duration `env:"TWITCH_HTTP_TIMEOUT" default:"10s"`
	ScheduleStaleTime time.Duration `env:"SCHEDULE_STALE_TIME" default:"5m"`
	ScheduleGCTime    time.Duration `env:"SCHEDULE_GC_TIME" default:"30m"`
	EvictionInterval  time.Duration `env:"CACHE_EVICTION_INTERVAL" default:"1m"`
	PurgeInterval     time.Duration `env:"SCHEDULE_PURGE_INTERVAL" default:"10m"`
	PurgeRetention    time.Duration `env:"SCHEDULE_PURGE_RETENTION" default:"24h"`
	SessionMaxAge     time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location resolves DefaultTimezone. validate guarantees it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Language resolves CollationLocale. validate guarantees it parses.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.CollationLocale)
	if err != nil {
		return language.English
	}
	return tag
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":        cfg.DatabaseURL,
		"REDIS_URL":           cfg.RedisURL,
		"TWITCH_CLIENT_ID":    cfg.TwitchClientID,
		"TWITCH_REDIRECT_URI": cfg.TwitchRedirectURI,
		"SESSION_SECRET":      cfg.SessionSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.FollowMaxPages < 1 {
		return errors.New("FOLLOW_MAX_PAGES must be at least 1")
	}
	if cfg.FetchConcurrency < 1 {
		return errors.New("FETCH_CONCURRENCY must be at least 1")
	}
	if cfg.DatabaseMaxConns < cfg.FetchConcurrency {
		slog.Warn("DATABASE_MAX_CONNS is below FETCH_CONCURRENCY, schedule writes will queue",
			"max_conns", cfg.DatabaseMaxConns, "concurrency", cfg.FetchConcurrency)
	}
	if cfg.ScheduleGCTime < cfg.ScheduleStaleTime {
		return errors.New("SCHEDULE_GC_TIME must not be shorter than SCHEDULE_STALE_TIME")
	}

	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE is not a known zone: %w", err)
	}
	if _, err := language.Parse(cfg.CollationLocale); err != nil {
		return fmt.Errorf("COLLATION_LOCALE is not a valid language tag: %w", err)
	}

	if cfg.TokenEncryptionKey == "" {
		return nil
	}
	keyBytes, err := hex.DecodeString(cfg.TokenEncryptionKey)
	if err != nil {
		return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be valid hex: %w", err)
	}
	if len(keyBytes) != 32 {
		return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes), got %d bytes", len(keyBytes))
	}

	return nil
}
