package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	TokenTTL time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string
	DBURL      string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MigrationsDir string

	// StorageBackend selects where uploaded profile pictures live:
	// "filesystem" or "minio".
	StorageBackend     string
	UploadDir          string
	UploadPublicPrefix string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:  getEnv("API_PORT", "8080"),
		TokenTTL: time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 72)) * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "student_registry_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),

		StorageBackend:     getEnv("STORAGE_BACKEND", "filesystem"),
		UploadDir:          getEnv("UPLOAD_DIR", "public/storage"),
		UploadPublicPrefix: getEnv("UPLOAD_PUBLIC_PREFIX", "/storage"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "profile-pictures"),
		MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode

	// URL form of the same DSN, required by golang-migrate.
	u := &url.URL{
		Scheme: "postgres",
		Host:   AppConfig.DBHost + ":" + AppConfig.DBPort,
		User:   url.UserPassword(AppConfig.DBUser, AppConfig.DBPassword),
		Path:   AppConfig.DBName,
	}
	q := u.Query()
	q.Set("sslmode", AppConfig.DBSslMode)
	u.RawQuery = q.Encode()
	AppConfig.DBURL = u.String()
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
