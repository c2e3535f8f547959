package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	PostgresDSN    string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	RedisPassword  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	SMTPAddr       string
	SMTPFrom       string
	PublicBaseURL  string
	GeminiAPIKey   string
}

func Load() *Config {
	// .env is optional; deployments set the environment directly.
	godotenv.Load()

	return &Config{
		Port:           getenv("PORT", "8080"),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		MongoURI:       getenv("MONGO_URI", ""),
		MongoDB:        getenv("MONGO_DB", "flowbuilder"),
		RedisAddr:      getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "pose-images"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
		SMTPAddr:       getenv("SMTP_ADDR", ""),
		SMTPFrom:       getenv("SMTP_FROM", "no-reply@flowbuilder.app"),
		PublicBaseURL:  getenv("PUBLIC_BASE_URL", "http://localhost:5173"),
		GeminiAPIKey:   getenv("GEMINI_API_KEY", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
