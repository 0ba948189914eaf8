// Package config loads service configuration from the environment with
// viper, using the RESERVATION_ prefix.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sw3-barbershop/service-reservation/pkg/database"
)

// KafkaConfig holds the broker connection settings.
type KafkaConfig struct {
	Brokers         []string
	ConsumerGroupID string
}

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	CORSOrigins   []string
	MigrationsDir string
	DBConfig      database.PostgresConfig
	KafkaConfig   KafkaConfig
}

// Load reads configuration from environment variables. Every key has a
// development-friendly default, so a bare `go run` against local docker
// compose works without any env set.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("RESERVATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8084")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "reservation_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_ID", "service-reservation")

	return &ServiceConfig{
		Port:          v.GetString("SERVICE_PORT"),
		AppEnv:        v.GetString("APP_ENV"),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
		MigrationsDir: v.GetString("MIGRATIONS_DIR"),
		DBConfig: database.PostgresConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: getDuration(v, "DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		KafkaConfig: KafkaConfig{
			Brokers:         splitList(v.GetString("KAFKA_BROKERS")),
			ConsumerGroupID: v.GetString("KAFKA_GROUP_ID"),
		},
	}, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}
