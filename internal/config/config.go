// internal/config/config.go
//
// Environment-driven configuration shared by the server and the terminal
// client. Call godotenv.Load() before Load so a local .env is honoured.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Profile store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config is the resolved process configuration.
type Config struct {
	APIURL       string
	APITimeout   time.Duration
	Port         string
	ClientOrigin string
	PublicURL    string
	LogLevel     zerolog.Level

	ProfileStore string
	DBPath       string
	RedisAddr    string

	CloudinaryCloud string
	ChallengeSecret string
	ChallengeTTL    time.Duration
}

// Load reads the environment. Malformed values fall back to defaults with
// a warning rather than failing start-up.
func Load() Config {
	c := Config{
		APIURL:          strings.TrimRight(getEnv("API_URL", "http://localhost:8000"), "/"),
		APITimeout:      envDuration("API_TIMEOUT", 10*time.Second),
		Port:            getEnv("PORT", "5176"),
		ClientOrigin:    getEnv("CLIENT_ORIGIN", "http://localhost:3000"),
		PublicURL:       strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:3000"), "/"),
		LogLevel:        zerolog.InfoLevel,
		ProfileStore:    strings.ToLower(getEnv("PROFILE_STORE", StoreSQLite)),
		DBPath:          getEnv("DB_PATH", "./data/globetrotter.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		CloudinaryCloud: getEnv("CLOUDINARY_CLOUD", "dsjcqd10y"),
		ChallengeSecret: getEnv("CHALLENGE_SECRET", "dev_secret_change_me"),
		ChallengeTTL:    time.Duration(envInt("CHALLENGE_TTL_DAYS", 7)) * 24 * time.Hour,
	}
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		c.LogLevel = lvl
	} else {
		log.Warn().Str("LOG_LEVEL", os.Getenv("LOG_LEVEL")).Msg("unknown log level, using info")
	}
	switch c.ProfileStore {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		log.Warn().Str("PROFILE_STORE", c.ProfileStore).Msg("unknown profile store, using sqlite")
		c.ProfileStore = StoreSQLite
	}
	return c
}

// Addr is the listen address for the local server.
func (c Config) Addr() string { return ":" + c.Port }

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str(k, v).Int("default", def).Msg("invalid integer, using default")
		return def
	}
	return n
}

// envDuration accepts Go durations ("15s") or bare seconds ("15").
func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	log.Warn().Str(k, v).Dur("default", def).Msg("invalid duration, using default")
	return def
}
