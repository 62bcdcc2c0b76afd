package config

import (
	"os"
	"strconv"
	"time"
)

// Behavior captures the deployment-tier switches that used to be probed
// from the ambient environment at call sites. They are resolved once in
// FromEnv and passed down explicitly.
type Behavior struct {
	// RecorderTimeout bounds the outbound record-forwarding call.
	RecorderTimeout time.Duration
	// SkipCleanup disables deletion of the intermediate "processing"
	// message after the final outcome is delivered.
	SkipCleanup bool
	// Deferred switches the final submission to an immediate
	// acknowledgement followed by a follow-up message with the outcome.
	Deferred bool
}

// Redis captures connection settings for the optional session backend.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Config is the full server configuration.
type Config struct {
	Addr string

	// DiscordPublicKey is the hex-encoded ed25519 key used to verify
	// interaction signatures. Empty disables verification (local runs).
	DiscordPublicKey string

	RecorderURL string

	HolidayBaseURL string
	HolidayTimeout time.Duration

	// SessionBackend selects the stage-one continuity store: "" (token
	// only), "memory", or "redis".
	SessionBackend string
	SessionTTL     time.Duration
	Redis          Redis

	Behavior Behavior
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:             envOr("INVOICEBOT_ADDR", ":8080"),
		DiscordPublicKey: os.Getenv("DISCORD_PUBLIC_KEY"),
		RecorderURL:      os.Getenv("RECORDER_WEBHOOK_URL"),
		HolidayBaseURL:   envOr("HOLIDAY_API_URL", "https://holidays-jp.github.io/api/v1"),
		HolidayTimeout:   durationOr("HOLIDAY_TIMEOUT", 3*time.Second),
		SessionBackend:   os.Getenv("SESSION_BACKEND"),
		SessionTTL:       durationOr("SESSION_TTL", 15*time.Minute),
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Behavior: behaviorFor(envOr("APP_ENV", "development")),
	}
	cfg.Behavior.RecorderTimeout = durationOr("RECORDER_TIMEOUT", cfg.Behavior.RecorderTimeout)
	return cfg
}

// behaviorFor returns the per-tier defaults. Development favors fast
// synchronous responses; production defers and cleans up after itself.
func behaviorFor(env string) Behavior {
	if env == "production" {
		return Behavior{
			RecorderTimeout: 5 * time.Second,
			SkipCleanup:     false,
			Deferred:        true,
		}
	}
	return Behavior{
		RecorderTimeout: 2 * time.Second,
		SkipCleanup:     true,
		Deferred:        false,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
