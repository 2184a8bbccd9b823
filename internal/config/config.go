// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	SiteLogin        string
	SitePassword     string
	SeleniumURL      string
	BaseURL          string
	DatabasePath     string
	LogLevel         string
	AdminIDs         []int64

	SearchInterval time.Duration
	LoginInterval  time.Duration
	MuteRetention  time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	login := os.Getenv("SITE_LOGIN")
	if login == "" {
		return nil, fmt.Errorf("SITE_LOGIN is required")
	}
	password := os.Getenv("SITE_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("SITE_PASSWORD is required")
	}

	seleniumURL := os.Getenv("SELENIUM_URL")
	if seleniumURL == "" {
		seleniumURL = "http://localhost:4444/wd/hub"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("BASE_URL is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var adminIDs []int64
	if raw := os.Getenv("ADMIN_IDS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ADMIN_IDS: %w", s, err)
			}
			adminIDs = append(adminIDs, id)
		}
	}

	searchSeconds, err := intEnv("SEARCH_INTERVAL_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	loginMinutes, err := intEnv("LOGIN_INTERVAL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	muteHours, err := intEnv("MUTE_RETENTION_HOURS", 24)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramBotToken: token,
		SiteLogin:        login,
		SitePassword:     password,
		SeleniumURL:      seleniumURL,
		BaseURL:          baseURL,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		AdminIDs:         adminIDs,
		SearchInterval:   time.Duration(searchSeconds) * time.Second,
		LoginInterval:    time.Duration(loginMinutes) * time.Minute,
		MuteRetention:    time.Duration(muteHours) * time.Hour,
	}, nil
}

// IsAdminID checks whether a Telegram user ID is in the configured
// bootstrap admin list.
func (c *Config) IsAdminID(tgID int64) bool {
	for _, id := range c.AdminIDs {
		if id == tgID {
			return true
		}
	}
	return false
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, raw)
	}
	return v, nil
}
