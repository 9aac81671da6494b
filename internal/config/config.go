package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Order    OrderConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type OrderConfig struct {
	TxTimeout        time.Duration
	MaxRetryAttempts int
	Timezone         string
	ListDefaultLimit int
	ListMaxLimit     int
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c OrderConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MinJWTSecretLength is the shortest AUTH_JWT_SECRET accepted for HS256 signing.
const MinJWTSecretLength = 32

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// RedisConfig with an empty Addr disables the idempotency store.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
}

// KafkaConfig with no brokers disables event publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type MetricsConfig struct {
	Enabled bool
}

// Load reads the optional config file at path and then the environment; env values win.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "mostrador")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "mostrador")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ORDER_TX_TIMEOUT", "5s")
	v.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("ORDER_TIMEZONE", "America/Mexico_City")
	v.SetDefault("ORDER_LIST_DEFAULT_LIMIT", 50)
	v.SetDefault("ORDER_LIST_MAX_LIMIT", 200)
	v.SetDefault("AUTH_TOKEN_TTL", "12h")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_IDEMPOTENCY_TTL", "24h")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "order-events")
	v.SetDefault("METRICS_ENABLED", true)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{"DB_CONN_MAX_LIFETIME", "ORDER_TX_TIMEOUT", "AUTH_TOKEN_TTL", "REDIS_IDEMPOTENCY_TTL"} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		durations[key] = d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Order: OrderConfig{
			TxTimeout:        durations["ORDER_TX_TIMEOUT"],
			MaxRetryAttempts: v.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
			Timezone:         v.GetString("ORDER_TIMEZONE"),
			ListDefaultLimit: v.GetInt("ORDER_LIST_DEFAULT_LIMIT"),
			ListMaxLimit:     v.GetInt("ORDER_LIST_MAX_LIMIT"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
			TokenTTL:  durations["AUTH_TOKEN_TTL"],
		},
		Redis: RedisConfig{
			Addr:           v.GetString("REDIS_ADDR"),
			Password:       v.GetString("REDIS_PASSWORD"),
			DB:             v.GetInt("REDIS_DB"),
			IdempotencyTTL: durations["REDIS_IDEMPOTENCY_TTL"],
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}

	if len(cfg.Auth.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be set to at least %d bytes", MinJWTSecretLength)
	}

	if cfg.Order.MaxRetryAttempts < 1 {
		cfg.Order.MaxRetryAttempts = 1
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
