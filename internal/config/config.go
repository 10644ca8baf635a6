package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full server configuration, sourced from the environment with
// an optional .env file for local development.
type Config struct {
	Addr string

	// DatabaseURL empty means the in-memory store.
	DatabaseURL string

	// RedisAddr empty means the leaderboard is disabled.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QueueTTL      time.Duration
	QueueSweep    time.Duration
	TurnLimit     time.Duration
	GraceLimit    time.Duration
	DefaultRating int
}

// Load reads the environment. A missing .env is not an error.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("config: loaded .env")
	}

	return Config{
		Addr:          getenv("ADDR", ":8080"),
		DatabaseURL:   getenv("DATABASE_URL", ""),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),
		QueueTTL:      getenvDuration("QUEUE_TTL", 5*time.Minute),
		QueueSweep:    getenvDuration("QUEUE_SWEEP_INTERVAL", 30*time.Second),
		TurnLimit:     getenvDuration("TURN_LIMIT", 30*time.Second),
		GraceLimit:    getenvDuration("GRACE_LIMIT", 10*time.Second),
		DefaultRating: getenvInt("DEFAULT_RATING", 1000),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid integer for %s: %q, using %d", k, v, def)
		return def
	}
	return n
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid duration for %s: %q, using %s", k, v, def)
		return def
	}
	return d
}
