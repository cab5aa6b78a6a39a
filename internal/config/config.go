package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
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

	// Scheduled-task service (opaque schedule/cancel capability).
	TaskServiceURL string
	// Shared secret the task service sends back on the status webhook.
	TaskWebhookSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file, using environment")
	}

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "swiply"),
		DBPassword:        getEnv("DB_PASSWORD", "swiply_dev_password"),
		DBName:            getEnv("DB_NAME", "swiply"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-me"),
		TaskServiceURL:    getEnv("TASK_SERVICE_URL", "http://localhost:9090"),
		TaskWebhookSecret: getEnv("TASK_WEBHOOK_SECRET", "dev-task-secret"),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}
