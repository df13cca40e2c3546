package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Движки хранилища записей и файлов
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	BlobInline = "inline"
	BlobS3     = "s3"
)

type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	StoreEngine      string `mapstructure:"STORE_ENGINE"`
	BlobEngine       string `mapstructure:"BLOB_ENGINE"`
	CatalogPath      string `mapstructure:"CATALOG_PATH"`
	BlobBaseURL      string `mapstructure:"BLOB_BASE_URL"`
	UploadMaxBytes   int64  `mapstructure:"UPLOAD_MAX_BYTES"`
	PersistQueueSize int    `mapstructure:"PERSIST_QUEUE_SIZE"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBScheme   string `mapstructure:"DB_SCHEME"`

	// --- Redis ---
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisPrefix   string `mapstructure:"REDIS_PREFIX"`

	// --- S3 ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`

	// --- Auth ---
	AuthJWTSecret       string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthIssuer          string        `mapstructure:"AUTH_ISSUER"`
	AuthTokenTTL        time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
	TeacherPasscodeHash string        `mapstructure:"TEACHER_PASSCODE_HASH"`
	AdminPasscodeHash   string        `mapstructure:"ADMIN_PASSCODE_HASH"`
}

func mask(sb *strings.Builder, name, secret string) {
	if secret != "" {
		sb.WriteString(fmt.Sprintf("  %s: ********\n", name))
	} else {
		sb.WriteString(fmt.Sprintf("  %s: (empty)\n", name))
	}
}

// String реализует интерфейс Stringer
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))
	sb.WriteString(fmt.Sprintf("  LogLevel: %s\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("  StoreEngine: %s\n", c.StoreEngine))
	sb.WriteString(fmt.Sprintf("  BlobEngine: %s\n", c.BlobEngine))
	sb.WriteString(fmt.Sprintf("  CatalogPath: %s\n", c.CatalogPath))
	sb.WriteString(fmt.Sprintf("  BlobBaseURL: %s\n", c.BlobBaseURL))
	sb.WriteString(fmt.Sprintf("  UploadMaxBytes: %d\n", c.UploadMaxBytes))
	sb.WriteString(fmt.Sprintf("  PersistQueueSize: %d\n", c.PersistQueueSize))

	sb.WriteString(fmt.Sprintf("  DBHost: %s\n", c.DBHost))
	sb.WriteString(fmt.Sprintf("  DBPort: %d\n", c.DBPort))
	sb.WriteString(fmt.Sprintf("  DBUser: %s\n", c.DBUser))
	sb.WriteString(fmt.Sprintf("  DBName: %s\n", c.DBName))
	sb.WriteString(fmt.Sprintf("  DBScheme: %s\n", c.DBScheme))
	// пароли и ключи маскируем
	mask(&sb, "DBPassword", c.DBPassword)

	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	sb.WriteString(fmt.Sprintf("  RedisPrefix: %s\n", c.RedisPrefix))
	mask(&sb, "RedisPassword", c.RedisPassword)

	sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
	sb.WriteString(fmt.Sprintf("  S3Region: %s\n", c.S3Region))
	sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
	mask(&sb, "S3AccessKey", c.S3AccessKey)
	mask(&sb, "S3SecretKey", c.S3SecretKey)
	sb.WriteString(fmt.Sprintf("  S3UseSSL: %v\n", c.S3UseSSL))
	sb.WriteString(fmt.Sprintf("  S3PathStyle: %v\n", c.S3PathStyle))

	sb.WriteString(fmt.Sprintf("  AuthIssuer: %s\n", c.AuthIssuer))
	sb.WriteString(fmt.Sprintf("  AuthTokenTTL: %s\n", c.AuthTokenTTL))
	mask(&sb, "AuthJWTSecret", c.AuthJWTSecret)
	mask(&sb, "TeacherPasscodeHash", c.TeacherPasscodeHash)
	mask(&sb, "AdminPasscodeHash", c.AdminPasscodeHash)

	return sb.String()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_ENGINE", StoreMemory)
	v.SetDefault("BLOB_ENGINE", BlobInline)
	v.SetDefault("BLOB_BASE_URL", "/v1/blobs")
	v.SetDefault("UPLOAD_MAX_BYTES", 50<<20)
	v.SetDefault("PERSIST_QUEUE_SIZE", 256)
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SCHEME", "bookmodule")
	v.SetDefault("REDIS_PREFIX", "bookmodule:")
	v.SetDefault("AUTH_ISSUER", "book-module")
	v.SetDefault("AUTH_TOKEN_TTL", 12*time.Hour)
}

// LoadFromEnv загружает конфигурацию из переменных окружения
func LoadFromEnv() (*Config, error) {
	// Загружаем .env только для локальной разработки
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	// Регистрируем интересующие ключи окружения
	keys := []string{
		"APP_PORT", "LOG_LEVEL",
		"STORE_ENGINE", "BLOB_ENGINE", "CATALOG_PATH", "BLOB_BASE_URL",
		"UPLOAD_MAX_BYTES", "PERSIST_QUEUE_SIZE",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SCHEME",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD", "REDIS_PREFIX",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_USE_SSL", "S3_PATH_STYLE",
		"AUTH_JWT_SECRET", "AUTH_ISSUER", "AUTH_TOKEN_TTL",
		"TEACHER_PASSCODE_HASH", "ADMIN_PASSCODE_HASH",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreEngine {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("unknown STORE_ENGINE %q", c.StoreEngine)
	}
	switch c.BlobEngine {
	case BlobInline, BlobS3:
	default:
		return fmt.Errorf("unknown BLOB_ENGINE %q", c.BlobEngine)
	}
	if c.AuthJWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if c.AuthTokenTTL <= 0 {
		return errors.New("AUTH_TOKEN_TTL must be positive")
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
