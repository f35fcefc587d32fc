package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

type Config struct {
	Env Environment

	// CrimeBaseURL serves official records; SimulatedBaseURL is the
	// fallback data source and the only one exposing /crime/filtered.
	CrimeBaseURL     string
	SimulatedBaseURL string
	AuthBaseURL      string
	// MirrorPath, when set, is a local fixture tried after both backends.
	MirrorPath string

	Timeout             time.Duration
	AutoRegisterOnLogin bool

	SessionStore string // "file", "sqlite", "redis" or "memory"
	SessionPath  string
	RedisAddr    string

	RateLimit float64 // requests per second, 0 disables throttling
	RateBurst int
}

var environments = map[Environment]Config{
	Development: {
		Env:              Development,
		CrimeBaseURL:     "http://localhost:8000",
		SimulatedBaseURL: "http://127.0.0.1:8001",
		AuthBaseURL:      "http://127.0.0.1:8001",
		Timeout:          15 * time.Second,
		SessionStore:     "file",
		RedisAddr:        "localhost:6379",
		RateBurst:        1,
	},
	Production: {
		Env:              Production,
		CrimeBaseURL:     "https://crime.phillysafe.app",
		SimulatedBaseURL: "https://sim.phillysafe.app",
		AuthBaseURL:      "https://auth.phillysafe.app",
		Timeout:          15 * time.Second,
		SessionStore:     "sqlite",
		RedisAddr:        "localhost:6379",
		RateBurst:        1,
	},
}

// DefaultConfig returns the built-in constants for env, falling back to
// development for unknown names.
func DefaultConfig(env Environment) Config {
	cfg, ok := environments[env]
	if !ok {
		cfg = environments[Development]
	}
	if cfg.SessionPath == "" {
		cfg.SessionPath = defaultSessionPath(cfg.SessionStore)
	}
	return cfg
}

// LoadConfig reads an optional .env file, picks the constants for
// PHILLYSAFE_ENV and applies any PHILLYSAFE_* overrides.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig(Environment(getEnv("PHILLYSAFE_ENV", string(Development))))

	cfg.CrimeBaseURL = getEnv("PHILLYSAFE_CRIME_URL", cfg.CrimeBaseURL)
	cfg.SimulatedBaseURL = getEnv("PHILLYSAFE_SIMULATED_URL", cfg.SimulatedBaseURL)
	cfg.AuthBaseURL = getEnv("PHILLYSAFE_AUTH_URL", cfg.AuthBaseURL)
	cfg.MirrorPath = getEnv("PHILLYSAFE_MIRROR_PATH", cfg.MirrorPath)
	cfg.Timeout = getEnvAsDuration("PHILLYSAFE_TIMEOUT", cfg.Timeout)
	cfg.AutoRegisterOnLogin = getEnvAsBool("PHILLYSAFE_AUTO_REGISTER", cfg.AutoRegisterOnLogin)

	if store := getEnv("PHILLYSAFE_SESSION_STORE", ""); store != "" && store != cfg.SessionStore {
		cfg.SessionStore = store
		cfg.SessionPath = defaultSessionPath(store)
	}
	cfg.SessionPath = getEnv("PHILLYSAFE_SESSION_PATH", cfg.SessionPath)
	cfg.RedisAddr = getEnv("PHILLYSAFE_REDIS_ADDR", cfg.RedisAddr)
	cfg.RateLimit = getEnvAsFloat("PHILLYSAFE_RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = getEnvAsInt("PHILLYSAFE_RATE_BURST", cfg.RateBurst)

	return cfg
}

// local default: ~/.phillysafe/session.json or ~/.phillysafe/session.db
func defaultSessionPath(store string) string {
	name := "session.json"
	if store == "sqlite" {
		name = "session.db"
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".phillysafe", name)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
