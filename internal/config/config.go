package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	TablePrefix string

	// Metadata store: "postgres" or "memory"
	MetadataStore string
	DatabaseURL   string

	// Authentication
	JWKSURL          string
	AuthDisabledUser string // dev only: every request acts as this user, no token needed

	// Object store: "s3" or "memory"
	ObjectStore      string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	S3KeyPrefix      string
	S3ForcePathStyle bool

	// Drive behaviour
	DefaultStorageLimit int64
	SignedURLTTL        time.Duration
	PublicBaseURL       string
	MaxUploadBytes      int64
	ExternalProcessing  bool // uploads stop at "processing" until an analyzer reports back

	// Logging
	LogDir      string
	LogMaxFiles int
}

// fileOverlay holds the non-secret settings that may come from CONFIG_FILE.
// Environment variables always win over the file.
type fileOverlay struct {
	Port                string `yaml:"port"`
	Environment         string `yaml:"environment"`
	CORSOrigins         string `yaml:"cors_origins"`
	MetadataStore       string `yaml:"metadata_store"`
	ObjectStore         string `yaml:"object_store"`
	S3Bucket            string `yaml:"s3_bucket"`
	S3Region            string `yaml:"s3_region"`
	S3Endpoint          string `yaml:"s3_endpoint"`
	S3KeyPrefix         string `yaml:"s3_key_prefix"`
	DefaultStorageLimit int64  `yaml:"default_storage_limit"`
	SignedURLTTL        string `yaml:"signed_url_ttl"`
	PublicBaseURL       string `yaml:"public_base_url"`
	MaxUploadBytes      int64  `yaml:"max_upload_bytes"`
	ExternalProcessing  bool   `yaml:"external_processing"`
	LogDir              string `yaml:"log_dir"`
}

// Load reads configuration from CONFIG_FILE (optional) and the environment
func Load() (*Config, error) {
	overlay, err := loadOverlay(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	env := getEnv("ENVIRONMENT", orDefault(overlay.Environment, "dev"))

	ttl, err := time.ParseDuration(getEnv("SIGNED_URL_TTL", orDefault(overlay.SignedURLTTL, "15m")))
	if err != nil {
		return nil, fmt.Errorf("parse SIGNED_URL_TTL: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", orDefault(overlay.Port, "8080")),
		Environment:   env,
		CORSOrigins:   getEnv("CORS_ORIGINS", orDefault(overlay.CORSOrigins, "http://localhost:3000")),
		TablePrefix:   getTablePrefix(env),
		MetadataStore: getEnv("METADATA_STORE", orDefault(overlay.MetadataStore, "postgres")),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		JWKSURL:          getEnv("JWKS_URL", ""),
		AuthDisabledUser: getEnv("AUTH_DISABLED_USER", ""),

		ObjectStore:      getEnv("OBJECT_STORE", orDefault(overlay.ObjectStore, "s3")),
		S3Bucket:         getEnv("S3_BUCKET", overlay.S3Bucket),
		S3Region:         getEnv("S3_REGION", orDefault(overlay.S3Region, "us-east-1")),
		S3Endpoint:       getEnv("S3_ENDPOINT", overlay.S3Endpoint),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		S3KeyPrefix:      getEnv("S3_KEY_PREFIX", overlay.S3KeyPrefix),
		S3ForcePathStyle: getEnv("S3_FORCE_PATH_STYLE", "false") == "true",

		DefaultStorageLimit: getEnvInt64("DEFAULT_STORAGE_LIMIT", orDefaultInt(overlay.DefaultStorageLimit, DefaultStorageLimit)),
		SignedURLTTL:        ttl,
		PublicBaseURL:       getEnv("PUBLIC_BASE_URL", orDefault(overlay.PublicBaseURL, "http://localhost:8080")),
		MaxUploadBytes:      getEnvInt64("MAX_UPLOAD_BYTES", orDefaultInt(overlay.MaxUploadBytes, DefaultMaxUploadBytes)),
		ExternalProcessing:  getEnv("EXTERNAL_PROCESSING", strconv.FormatBool(overlay.ExternalProcessing)) == "true",

		LogDir:      getEnv("LOG_DIR", overlay.LogDir),
		LogMaxFiles: int(getEnvInt64("LOG_MAX_FILES", 10)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	switch c.MetadataStore {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres metadata store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown METADATA_STORE %q", c.MetadataStore)
	}

	switch c.ObjectStore {
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 object store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown OBJECT_STORE %q", c.ObjectStore)
	}

	if c.JWKSURL == "" && c.AuthDisabledUser == "" {
		return fmt.Errorf("JWKS_URL is required unless AUTH_DISABLED_USER is set")
	}
	if c.AuthDisabledUser != "" && c.Environment == "prod" {
		return fmt.Errorf("AUTH_DISABLED_USER cannot be used in prod")
	}
	if c.DefaultStorageLimit <= 0 {
		return fmt.Errorf("DEFAULT_STORAGE_LIMIT must be positive")
	}
	return nil
}

func loadOverlay(path string) (*fileOverlay, error) {
	overlay := &fileOverlay{}
	if path == "" {
		return overlay, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, overlay); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return overlay, nil
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value, fallback int64) int64 {
	if value == 0 {
		return fallback
	}
	return value
}
