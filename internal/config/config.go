package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver         string
	DSN            string
	Host           string
	Port           string
	Username       string
	Password       string
	Database       string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	ConnectRetries int
}

type RedisConfig struct {
	Enabled bool
	Addr    string
	LockTTL time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type LogConfig struct {
	Service string
	Dir     string
	Level   string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8086"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:            os.Getenv("DB_DSN"),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			Username:       getEnv("DB_USERNAME", "seeder"),
			Password:       getEnv("DB_PASSWORD", "seeder"),
			Database:       getEnv("DB_NAME", "app_development"),
			SSLMode:        getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:   getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			ConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 5),
		},
		Redis: RedisConfig{
			Enabled: getEnvBool("REDIS_ENABLED", false),
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			LockTTL: time.Duration(getEnvInt("SEED_LOCK_TTL_SECONDS", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getEnv("KAFKA_SEED_TOPIC", "seeder.seeds.events"),
		},
		Log: LogConfig{
			Service: getEnv("SERVICE_NAME", "seeder"),
			Dir:     getEnv("LOG_DIR", "logs"),
			Level:   getEnv("LOG_LEVEL", "info"),
		},
	}
}

// ConnectionString returns DSN when set, otherwise builds one for Driver.
func (dc DatabaseConfig) ConnectionString() string {
	if dc.DSN != "" {
		return dc.DSN
	}

	switch dc.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			dc.Username, dc.Password, dc.Host, dc.Port, dc.Database)
	case "sqlite":
		return fmt.Sprintf("file:%s.db?cache=shared", dc.Database)
	default:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(dc.Username, dc.Password),
			Host:     dc.Host + ":" + dc.Port,
			Path:     "/" + dc.Database,
			RawQuery: "sslmode=" + url.QueryEscape(dc.SSLMode),
		}
		return u.String()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
