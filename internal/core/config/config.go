package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	AuditSinkPostgres = "postgres"
	AuditSinkKafka    = "kafka"
	AuditSinkLog      = "log"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Store    StoreConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Audit    AuditConfig
	Kafka    KafkaConfig
	Archive  ArchiveConfig
}

type ServerConfig struct {
	AppEnv         string
	Host           string
	RequestTimeout time.Duration
	RateLimit      int
	RateWindow     time.Duration
	Timezone       string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type StoreConfig struct {
	Driver        string
	NotifyChannel string
}

type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type JWTConfig struct {
	SecretKey string
}

type AuditConfig struct {
	Sink string
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type ArchiveConfig struct {
	PageSize int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:         getEnv("APP_ENV", "dev"),
			Host:           getEnv("APP_HOST", ":8080"),
			RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
			RateLimit:      getEnvInt("RATE_LIMIT_REQUESTS", 120),
			RateWindow:     time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
			Timezone:       getEnv("APP_TIMEZONE", "America/Sao_Paulo"),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "debug"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			NotifyChannel: getEnv("NOTIFY_CHANNEL", "semprejoias_changes"),
		},
		Postgres: PostgresConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300)) * time.Second,
			MigrationsDir:   getEnv("MIGRATIONS_DIR", "./migrations"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Audit: AuditConfig{
			Sink: strings.ToLower(getEnv("AUDIT_SINK", AuditSinkPostgres)),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "semprejoias.audit"),
		},
		Archive: ArchiveConfig{
			PageSize: getEnvInt("ARCHIVE_PAGE_SIZE", 20),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "prod" || c.Server.AppEnv == "production"
}

// Location falls back to UTC when the zone database does not know Timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return fallback
}
