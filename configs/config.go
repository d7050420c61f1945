package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	PostgresURI      string
	RedisURI         string
	ListenAddr       string
	SecretKey        string
	MediaDir         string
	InstagramBaseURL string
	MaxRetries       int
	RetryBackoff     time.Duration
	RetentionAge     time.Duration
	CleanupInterval  time.Duration
	R2               R2
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		RedisURI:         getEnv("REDIS_URI", "localhost:6379"),
		ListenAddr:       getEnv("LISTEN_ADDR", ":3000"),
		SecretKey:        getEnv("SECRET_KEY", ""),
		MediaDir:         getEnv("MEDIA_DIR", "media"),
		InstagramBaseURL: getEnv("INSTAGRAM_BASE_URL", "https://i.instagram.com/api/v1"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		RetryBackoff:     getEnvDuration("RETRY_BACKOFF", 300*time.Second),
		RetentionAge:     getEnvDuration("RETENTION_AGE", 24*time.Hour),
		CleanupInterval:  getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
