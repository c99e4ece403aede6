package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server   ServerConfig
	LTI      LTIConfig
	Session  SessionConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Host        string
	Port        string
	Environment string
}

type LTIConfig struct {
	// Secret is the single shared OAuth1 secret every consumer signs with.
	// Consumer keys are recorded per launch, not configured per deployment.
	Secret string
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type StorageConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	UploadDir       string
}

type DatabaseConfig struct {
	// URL switches the metadata store to Postgres when set.
	URL string
	// Path is the sqlite file used in production when URL is empty.
	Path string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadConfig loads configuration from environment variables.
// A .env file is honored when present but never required.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("HOST", ""),
			Port:        getEnv("PORT", "3000"),
			Environment: environment(),
		},
		LTI: LTIConfig{
			Secret: getEnv("LTI_SECRET", ""),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
			TTL:    time.Duration(getEnvAsInt("SESSION_TTL_MIN", 60)) * time.Minute,
		},
		Storage: StorageConfig{
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET_NAME", ""),
			UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		},
		Database: DatabaseConfig{
			URL:  getEnv("DATABASE_URL", ""),
			Path: getEnv("DB_PATH", "data/voicebox.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}

	if cfg.LTI.Secret == "" {
		return nil, errors.New("LTI_SECRET is required")
	}
	if cfg.Session.Secret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("SESSION_SECRET is required in production")
		}
		log.Println("SESSION_SECRET not set, using an insecure development default")
		cfg.Session.Secret = "voicebox-dev-session-secret"
	}

	return cfg, nil
}

// UseS3 reports whether object storage is configured. Both credential halves
// must be present; the backend is chosen once at startup from this.
func (s StorageConfig) UseS3() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != ""
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) ListenAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// environment reads APP_ENV, falling back to NODE_ENV so deployments of the
// predecessor tool keep working unchanged.
func environment() string {
	if v, exists := os.LookupEnv("APP_ENV"); exists {
		return v
	}
	return getEnv("NODE_ENV", "development")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
