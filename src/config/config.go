package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/promptverse/promptfeed/src/data"
	"github.com/promptverse/promptfeed/src/paging"
)

// Bootstrap is what the process needs before it can reach the database.
type Bootstrap struct {
	MySQLDSN  string `yaml:"mysql_dsn"`
	RedisURL  string `yaml:"redis_url"`
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Config holds runtime settings, resolved after the settings table is loaded.
type Config struct {
	Bootstrap
	AllowedOrigins  []string
	RateLimit       int
	RateWindow      time.Duration
	DefaultPageSize int
	MaxPageSize     int
	EventsStream    string
}

// LoadBootstrap reads the optional YAML file named by PROMPTFEED_CONFIG,
// then lets env vars override it.
func LoadBootstrap() (Bootstrap, error) {
	b := Bootstrap{Port: "8000", LogLevel: "info", LogFormat: "json"}

	if path := os.Getenv("PROMPTFEED_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return b, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &b); err != nil {
			return b, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	override(&b.MySQLDSN, "MYSQL_DSN")
	override(&b.RedisURL, "REDIS_URL")
	override(&b.Port, "PORT")
	override(&b.LogLevel, "LOG_LEVEL")
	override(&b.LogFormat, "LOG_FORMAT")

	if strings.TrimSpace(b.MySQLDSN) == "" {
		return b, fmt.Errorf("MYSQL_DSN is not set")
	}
	return b, nil
}

// Load resolves runtime settings. Call data.LoadSettings first.
func Load(b Bootstrap) Config {
	origins := parseCSV(GetSetting("allowed_origins", "ALLOWED_ORIGINS", "http://localhost:3000"))

	maxPage := getIntSetting("max_page_size", "MAX_PAGE_SIZE", paging.MaxPageSize)
	if maxPage < 1 {
		maxPage = paging.MaxPageSize
	}
	defPage := getIntSetting("default_page_size", "DEFAULT_PAGE_SIZE", paging.DefaultPageSize)
	if defPage < 1 || defPage > maxPage {
		defPage = paging.DefaultPageSize
	}

	return Config{
		Bootstrap:       b,
		AllowedOrigins:  origins,
		RateLimit:       getIntSetting("rate_limit", "RATE_LIMIT", 30),
		RateWindow:      time.Duration(getIntSetting("rate_window_seconds", "RATE_WINDOW_SECONDS", 60)) * time.Second,
		DefaultPageSize: defPage,
		MaxPageSize:     maxPage,
		EventsStream:    GetSetting("events_stream", "EVENTS_STREAM", "promptfeed.activity"),
	}
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

func getIntSetting(name, envKey string, defaultValue int) int {
	raw := GetSetting(name, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return v
}

func override(dst *string, envKey string) {
	if v := os.Getenv(envKey); v != "" {
		*dst = v
	}
}

func parseCSV(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
