package config

import (
	"os"
	"strconv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	RedisAddr  string
	JWTSecret  string
	UploadDir  string

	// Size ceilings in bytes.
	MaxAttachmentSize int64
	MaxImageSize      int64
}

func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "agora"),
		DBPassword: getEnv("DB_PASSWORD", "agora_dev_password"),
		DBName:     getEnv("DB_NAME", "agora"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
		UploadDir:  getEnv("UPLOAD_DIR", "./uploads"),

		MaxAttachmentSize: getEnvInt64("MAX_ATTACHMENT_SIZE", 500<<20),
		MaxImageSize:      getEnvInt64("MAX_IMAGE_SIZE", 5<<20),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
