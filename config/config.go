package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string
	LogLevel string

	DatabaseURL    string
	DBMaxOpenConns int

	JWTSecret string
	CORSAllow []string

	// RedisURL is optional; the template cache is disabled without it.
	RedisURL         string
	TemplateCacheTTL time.Duration

	// ListMaxLimit caps page size, including the "return all" mode. 0 means unbounded.
	ListMaxLimit int

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads the process environment, after merging a local .env file if one exists.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:              getenv("APP_ENV", "dev"),
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		DatabaseURL:      databaseURL(),
		DBMaxOpenConns:   getenvInt("DB_MAX_OPEN_CONNS", 20),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		CORSAllow:        splitCSV(getenv("CORS_ALLOW", "*")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		TemplateCacheTTL: time.Duration(getenvInt("TEMPLATE_CACHE_TTL_SECONDS", 300)) * time.Second,
		ListMaxLimit:     getenvInt("LIST_MAX_LIMIT", 1000),
		RequestTimeout:   time.Duration(getenvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		ShutdownTimeout:  time.Duration(getenvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	if cfg.JWTSecret == "" {
		if cfg.Env != "dev" {
			return Config{}, errors.New("JWT_SECRET must be set outside dev")
		}
		cfg.JWTSecret = "dev-secret-change"
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL (or user/password/host/port/dbname) must be set")
	}
	if cfg.ListMaxLimit < 0 {
		return Config{}, fmt.Errorf("LIST_MAX_LIMIT must not be negative, got %d", cfg.ListMaxLimit)
	}
	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the individual connection parts.
func databaseURL() string {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	dbUser := strings.TrimSpace(os.Getenv("user"))
	dbPass := strings.TrimSpace(os.Getenv("password"))
	dbHost := strings.TrimSpace(os.Getenv("host"))
	dbPort := strings.TrimSpace(os.Getenv("port"))
	dbName := strings.TrimSpace(os.Getenv("dbname"))
	if dbHost == "" || dbName == "" {
		return ""
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbUser, dbPass),
		Host:     dbHost + ":" + dbPort,
		Path:     "/" + dbName,
		RawQuery: "sslmode=" + getenv("sslmode", "require"),
	}
	return u.String()
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
