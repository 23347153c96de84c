// internal/config/config.go
//
// Environment-driven configuration for the memory-match server.
// A .env file in the working directory is loaded first when present;
// real environment variables always win.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port           string
	LogLevel       string
	LogPretty      bool
	DBPath         string
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	Production     bool          // NODE_ENV=production: secure cookies, SameSite=None
	ResolveDelay   time.Duration // how long a completed pair stays visible
	TickInterval   time.Duration // live feed push period
	NATSURL        string        // empty disables event publishing
	DailySalt      string        // seeds the board of the day
	DailyLevel     string        // difficulty of the board of the day
}

// Load reads .env (if any) and the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() Config {
	return Config{
		Port:           GetEnv("PORT", "5175"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		LogPretty:      envBool("LOG_PRETTY", false),
		DBPath:         GetEnv("DB_PATH", "./data/memory.db"),
		JWTSecret:      GetEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: envInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     GetEnv("COOKIE_NAME", "memory_token"),
		ClientOrigin:   GetEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:     os.Getenv("NODE_ENV") == "production",
		ResolveDelay:   envDuration("RESOLVE_DELAY", time.Second),
		TickInterval:   envDuration("TICK_INTERVAL", time.Second),
		NATSURL:        os.Getenv("NATS_URL"),
		DailySalt:      GetEnv("DAILY_SALT", "local_dev_salt"),
		DailyLevel:     GetEnv("DAILY_DIFFICULTY", "medium"),
	}
}

// GetEnv returns the value of k or def if unset/empty.
func GetEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func envBool(k string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return b
	}
	return def
}

// envDuration accepts Go durations ("1500ms", "2s") or bare milliseconds ("1500").
func envDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}
