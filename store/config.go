package store

import (
	"time"

	"github.com/gentext/gentext/pkg/env"
)

// PostgresConfigFromEnv loads PostgreSQL configuration from environment
// variables.
func PostgresConfigFromEnv() *PostgresConfig {
	return &PostgresConfig{
		Host:     env.GetEnv("POSTGRES_HOST", "localhost"),
		Port:     env.GetEnvInt("POSTGRES_PORT", 5432),
		User:     env.GetEnv("POSTGRES_USER", "postgres"),
		Password: env.GetEnv("POSTGRES_PASSWORD", ""),
		DBName:   env.GetEnv("POSTGRES_DB", "gentext"),
		SSLMode:  env.GetEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// MongoConfigFromEnv loads MongoDB configuration from environment variables.
func MongoConfigFromEnv() *MongoConfig {
	return &MongoConfig{
		URI:        env.GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database:   env.GetEnv("MONGODB_DB", "gentext"),
		Collection: env.GetEnv("MONGODB_COLLECTION", "interactions"),
	}
}

// RedisConfigFromEnv loads Redis cache configuration from environment
// variables.
func RedisConfigFromEnv() *RedisConfig {
	return &RedisConfig{
		Addr:     env.GetEnv("REDIS_ADDR", "localhost:6379"),
		Password: env.GetEnv("REDIS_PASSWORD", ""),
		DB:       env.GetEnvInt("REDIS_DB", 0),
		Prefix:   env.GetEnv("REDIS_PREFIX", "gentext:result:"),
		TTL:      env.GetEnvDuration("REDIS_TTL", time.Hour),
	}
}
