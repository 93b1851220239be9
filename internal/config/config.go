package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Host        string
	Port        string
	ServiceName string

	DatabaseURL string
	JWTSecret   string

	// MinIO object storage
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOImageBucket   string
	MinIORawBucket     string
	MinIOUseSSL        bool
	MinIOPublicBaseURL string

	// Redis cache
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string

	UploadTempDir   string
	MaxUploadMB     int
	CORSAllowOrigin string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnv("PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "bookstore-backend"),

		DatabaseURL: getDatabaseURL(),
		JWTSecret:   jwtSecret,

		MinIOEndpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:     getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:     getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOImageBucket:   getEnv("MINIO_IMAGE_BUCKET", "book-covers"),
		MinIORawBucket:     getEnv("MINIO_RAW_BUCKET", "book-files"),
		MinIOUseSSL:        getEnvAsBool("MINIO_USE_SSL", false),
		MinIOPublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4318"),

		UploadTempDir:   getEnv("UPLOAD_TEMP_DIR", os.TempDir()),
		MaxUploadMB:     getEnvAsInt("MAX_UPLOAD_MB", 100),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "http://localhost:5173"),
	}

	if cfg.MinIOPublicBaseURL == "" {
		scheme := "http"
		if cfg.MinIOUseSSL {
			scheme = "https"
		}
		cfg.MinIOPublicBaseURL = fmt.Sprintf("%s://%s", scheme, cfg.MinIOEndpoint)
	}

	return cfg
}

func getDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	dbname := getEnv("DB_NAME", "bookstore")
	sslmode := getEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// MaxUploadBytes returns the request body cap in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
