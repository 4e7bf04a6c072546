package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Mongo     MongoConfig
	Session   SessionConfig
	Generator *GeneratorConfig

	// CatalogPath points at a YAML question file; empty uses the built-in catalog
	CatalogPath string

	// EnvFileLoaded is true when a .env file was found
	EnvFileLoaded bool
}

type AppConfig struct {
	Environment        string
	Port               string
	CorsAllowedOrigins string
	LogFilePath        string
}

type RedisConfig struct {
	// URI is host:port, optionally prefixed with redis://; empty selects the in-memory store
	URI string
}

type MongoConfig struct {
	// URI of the prompt archive; empty disables archiving
	URI      string
	Database string
}

type SessionConfig struct {
	TTL     time.Duration
	LockTTL time.Duration
}

// Load reads .env when present, then the process environment.
// A missing .env file is not an error.
func Load() *Config {
	loaded := godotenv.Load() == nil

	return &Config{
		App: AppConfig{
			Environment:        getEnv("APP_ENV", "development"),
			Port:               getEnv("PORT", "8080"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			LogFilePath:        getEnv("LOG_FILE_PATH", ""),
		},
		Redis: RedisConfig{
			URI: strings.TrimPrefix(getEnv("REDIS_URI", ""), "redis://"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DATABASE", "promptcraft"),
		},
		Session: SessionConfig{
			TTL:     time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 24*60)) * time.Minute,
			LockTTL: time.Duration(getEnvAsInt("SESSION_LOCK_TTL_SECONDS", 120)) * time.Second,
		},
		Generator:     DefaultGeneratorConfig(),
		CatalogPath:   getEnv("CATALOG_PATH", ""),
		EnvFileLoaded: loaded,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strings.TrimSpace(strValue)); err == nil {
		return value
	}
	return fallback
}
