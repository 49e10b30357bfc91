package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process-level configuration. Every optional backend is
// switched on by its URL: an empty URL keeps the in-memory implementation.
type Server struct {
	Addr          string
	Environment   string
	AdminAPIToken string
	SeedOnStart   bool
	SeedFile      string
	RuleMatching  string

	HTTP      HTTPConfig
	Log       LogConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Analytics AnalyticsConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
}

type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	JWTSigningKey    string
	JWTIssuer        string
	JWTAudience      string
	TokenTTL         time.Duration
	LockoutThreshold int
	LockoutDuration  time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AnalyticsConfig struct {
	DatabaseURL string
	MaxConns    int32
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers           []string
	AnalyticsTopic    string
	ClientID          string
	TopicPartitions   int32
	ReplicationFactor int16
}

// Rule matching modes.
const (
	RuleMatchingStatic = "static"
	RuleMatchingStore  = "store"
)

// Load reads an optional .env file and then the environment.
func Load() (Server, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	dbURL := os.Getenv("DATABASE_URL")
	cfg := Server{
		Addr:          getenv("APPETITE_ADDR", ":8080"),
		Environment:   getenv("APP_ENV", "development"),
		AdminAPIToken: getenv("ADMIN_API_TOKEN", "dev-admin-token"),
		SeedOnStart:   getenvBool("SEED_ON_START", true),
		SeedFile:      os.Getenv("SEED_FILE"),
		RuleMatching:  strings.ToLower(getenv("RULE_MATCHING", RuleMatchingStatic)),
		HTTP: HTTPConfig{
			ReadTimeout:  getenvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getenvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getenvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			// development default, override in production
			JWTSigningKey:    getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:        getenv("JWT_ISSUER", "AppetiteChecker"),
			JWTAudience:      getenv("JWT_AUDIENCE", "AppetiteCheckerUsers"),
			TokenTTL:         getenvDuration("JWT_TTL", 60*time.Minute),
			LockoutThreshold: getenvInt("LOCKOUT_THRESHOLD", 5),
			LockoutDuration:  getenvDuration("LOCKOUT_DURATION", 15*time.Minute),
		},
		Database: DatabaseConfig{
			URL:             dbURL,
			MaxOpenConns:    getenvInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getenvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getenvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Analytics: AnalyticsConfig{
			DatabaseURL: getenv("ANALYTICS_DATABASE_URL", dbURL),
			MaxConns:    int32(getenvInt("ANALYTICS_DATABASE_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getenvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           splitCSV(os.Getenv("KAFKA_BROKERS")),
			AnalyticsTopic:    getenv("KAFKA_ANALYTICS_TOPIC", "appetite.analytics"),
			ClientID:          getenv("KAFKA_CLIENT_ID", "appetite-checker"),
			TopicPartitions:   int32(getenvInt("KAFKA_TOPIC_PARTITIONS", 3)),
			ReplicationFactor: int16(getenvInt("KAFKA_REPLICATION_FACTOR", 1)),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects combinations the server cannot start with.
func (c Server) Validate() error {
	switch c.RuleMatching {
	case RuleMatchingStatic, RuleMatchingStore:
	default:
		return fmt.Errorf("RULE_MATCHING must be %q or %q, got %q", RuleMatchingStatic, RuleMatchingStore, c.RuleMatching)
	}
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY must not be empty")
	}
	if c.Auth.LockoutThreshold < 1 {
		return fmt.Errorf("LOCKOUT_THRESHOLD must be at least 1")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
