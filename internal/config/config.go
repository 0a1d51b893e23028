package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Realtime  RealtimeConfig
	Zupass    ZupassConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// RealtimeConfig defines trust token parameters for the realtime consumer.
// The signing secret is shared with the downstream realtime authorizer;
// issuing a token without it is a fatal configuration error.
type RealtimeConfig struct {
	JWTSecret     string
	Audience      string
	TokenTTLHours int
	WebhookURL    string
}

// ZupassConfig binds the service to the single supported event and its issuer key.
type ZupassConfig struct {
	EventID              string
	EventName            string
	IssuerPublicKey      [2]string
	ProverURL            string
	VerifyTimeoutSeconds int
	NonceTTLMinutes      int
}

// RateLimitConfig controls the verification rate-limit gate.
type RateLimitConfig struct {
	VerifyLimit         int
	VerifyWindowSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "attestation-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Realtime: RealtimeConfig{
			JWTSecret:     os.Getenv("REALTIME_JWT_SECRET"),
			Audience:      getEnv("REALTIME_AUDIENCE", "farconnect.social"),
			TokenTTLHours: getEnvAsInt("REALTIME_TOKEN_TTL_HOURS", 24),
			WebhookURL:    getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Zupass: ZupassConfig{
			EventID:   getEnv("ZUPASS_EVENT_ID", "1f36ddce-e538-4c7a-9f31-6a4b2221ecac"),
			EventName: getEnv("ZUPASS_EVENT_NAME", "Devconnect ARG"),
			IssuerPublicKey: [2]string{
				getEnv("ZUPASS_ISSUER_PUBKEY_X", "044e711fd3a1792a825aa896104da5276bbe710fd9b59dddea1aaf8d84535aaf"),
				getEnv("ZUPASS_ISSUER_PUBKEY_Y", "2b259329f0adf98c9b6cf2a11db7225fdcaa4f8796c61864e86154477da10663"),
			},
			ProverURL:            getEnv("ZUPASS_PROVER_URL", "http://127.0.0.1:3100"),
			VerifyTimeoutSeconds: getEnvAsInt("ZUPASS_VERIFY_TIMEOUT_SECONDS", 15),
			NonceTTLMinutes:      getEnvAsInt("ZUPASS_NONCE_TTL_MINUTES", 10),
		},
		RateLimit: RateLimitConfig{
			VerifyLimit:         getEnvAsInt("RATE_LIMIT_VERIFY", 5),
			VerifyWindowSeconds: getEnvAsInt("RATE_LIMIT_VERIFY_WINDOW_SECONDS", 300),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the trust token lifetime.
func (r RealtimeConfig) TokenTTL() time.Duration {
	if r.TokenTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(r.TokenTTLHours) * time.Hour
}

// VerifyTimeout returns the primary verification path deadline.
func (z ZupassConfig) VerifyTimeout() time.Duration {
	if z.VerifyTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(z.VerifyTimeoutSeconds) * time.Second
}

// NonceTTL returns how long a watermark stays registered as used.
func (z ZupassConfig) NonceTTL() time.Duration {
	if z.NonceTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(z.NonceTTLMinutes) * time.Minute
}

// VerifyWindow returns the rate limit window for verification calls.
func (r RateLimitConfig) VerifyWindow() time.Duration {
	if r.VerifyWindowSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(r.VerifyWindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
