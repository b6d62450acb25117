package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env         string
	LogLevel    string
	ServiceName string
	HTTPAddr    string
	CORSOrigins []string

	// MongoURI selects the Mongo persistence layer. Without it everything runs in memory.
	MongoURI string
	MongoDB  string

	// KafkaBrokers enables the Kafka relay. Without it events are projected in process.
	KafkaBrokers     []string
	KafkaTopicPrefix string
	KafkaGroupID     string

	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	S3Endpoint       string
	S3PublicEndpoint string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	LedgerDriver string
	LedgerDSN    string

	StripeSecretKey string
	SendGridAPIKey  string
	MailFrom        string
	MailFromName    string

	ScyllaHosts       []string
	ScyllaKeyspace    string
	ScyllaUsername    string
	ScyllaPassword    string
	ScyllaConsistency string
	ScyllaTimeout     time.Duration

	ViewingCompletionSpec string
	ReferenceSeedPath     string
	OTelEndpoint          string
}

// Load reads an optional .env file and parses configuration from the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Env:                   getEnv("APP_ENV", "dev"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ServiceName:           getEnv("SERVICE_NAME", "erent"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:           splitList(getEnv("CORS_ORIGINS", "*")),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDB:               getEnv("MONGO_DB", "erent"),
		KafkaBrokers:          splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix:      getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaGroupID:          getEnv("KAFKA_GROUP_ID", "erent-notifications"),
		S3Endpoint:            os.Getenv("S3_ENDPOINT"),
		S3PublicEndpoint:      getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:           getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:           getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:              getEnv("S3_BUCKET", "erent-images"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		JWTIssuer:             getEnv("JWT_ISSUER", "erent"),
		LedgerDriver:          getEnv("LEDGER_DRIVER", ""),
		LedgerDSN:             os.Getenv("LEDGER_DSN"),
		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		SendGridAPIKey:        os.Getenv("SENDGRID_API_KEY"),
		MailFrom:              getEnv("MAIL_FROM", "noreply@erent.local"),
		MailFromName:          getEnv("MAIL_FROM_NAME", "eRent"),
		ScyllaHosts:           splitList(os.Getenv("SCYLLA_HOSTS")),
		ScyllaKeyspace:        getEnv("SCYLLA_KEYSPACE", "erent_chat"),
		ScyllaUsername:        strings.TrimSpace(os.Getenv("SCYLLA_USERNAME")),
		ScyllaPassword:        strings.TrimSpace(os.Getenv("SCYLLA_PASSWORD")),
		ScyllaConsistency:     strings.ToLower(getEnv("SCYLLA_CONSISTENCY", "quorum")),
		ViewingCompletionSpec: getEnv("VIEWING_COMPLETION_CRON", "0 */5 * * * *"),
		ReferenceSeedPath:     getEnv("REFERENCE_SEED_PATH", "config/reference.yaml"),
		OTelEndpoint:          os.Getenv("OTEL_EXPORTER_ENDPOINT"),
	}

	var err error
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ScyllaTimeout, err = parseDurationEnv("SCYLLA_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}
	if cfg.LedgerDriver == "" && cfg.LedgerDSN != "" {
		cfg.LedgerDriver = "postgres"
	}
	if cfg.JWTSecret == "" {
		if !cfg.Local() {
			return Config{}, fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", cfg.Env)
		}
		cfg.JWTSecret = "erent-dev-secret"
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive")
	}
	return cfg, nil
}

// Local reports whether the service runs on a developer machine or in tests.
func (c Config) Local() bool {
	switch c.Env {
	case "dev", "local", "test":
		return true
	}
	return false
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
