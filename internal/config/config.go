package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	S3      S3Config
	Signing SigningConfig
	Email   EmailConfig
	CORS    CORSConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for the document blob store.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// SigningConfig holds signing protocol settings.
type SigningConfig struct {
	LinkSecret            string `mapstructure:"link_secret"`
	LinkIssuer            string `mapstructure:"link_issuer"`
	DefaultTimeToComplete int    `mapstructure:"default_time_to_complete_days"`
	SigningBaseURL        string `mapstructure:"signing_base_url"`
}

// EmailConfig holds signer notification settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the SIGNET_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SIGNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "signet")
	v.SetDefault("db.password", "signet_secret")
	v.SetDefault("db.name", "signet_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "signet-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Signing defaults
	v.SetDefault("signing.link_secret", "change-me-in-production")
	v.SetDefault("signing.link_issuer", "signet")
	v.SetDefault("signing.default_time_to_complete_days", 14)
	v.SetDefault("signing.signing_base_url", "http://localhost:3000")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@signet.local")
	v.SetDefault("email.from_name", "Signet")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                           "SIGNET_SERVER_PORT",
		"server.read_timeout":                   "SIGNET_SERVER_READ_TIMEOUT",
		"server.write_timeout":                  "SIGNET_SERVER_WRITE_TIMEOUT",
		"server.environment":                    "SIGNET_SERVER_ENVIRONMENT",
		"db.host":                               "SIGNET_DB_HOST",
		"db.port":                               "SIGNET_DB_PORT",
		"db.user":                               "SIGNET_DB_USER",
		"db.password":                           "SIGNET_DB_PASSWORD",
		"db.name":                               "SIGNET_DB_NAME",
		"db.sslmode":                            "SIGNET_DB_SSLMODE",
		"db.max_open":                           "SIGNET_DB_MAX_OPEN",
		"db.max_idle":                           "SIGNET_DB_MAX_IDLE",
		"s3.region":                             "SIGNET_S3_REGION",
		"s3.bucket":                             "SIGNET_S3_BUCKET",
		"s3.endpoint":                           "SIGNET_S3_ENDPOINT",
		"s3.access_key":                         "SIGNET_S3_ACCESS_KEY",
		"s3.secret_key":                         "SIGNET_S3_SECRET_KEY",
		"s3.max_file_size_mb":                   "SIGNET_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":                     "SIGNET_S3_PRESIGN_EXPIRY",
		"signing.link_secret":                   "SIGNET_SIGNING_LINK_SECRET",
		"signing.link_issuer":                   "SIGNET_SIGNING_LINK_ISSUER",
		"signing.default_time_to_complete_days": "SIGNET_SIGNING_DEFAULT_TIME_TO_COMPLETE_DAYS",
		"signing.signing_base_url":              "SIGNET_SIGNING_SIGNING_BASE_URL",
		"email.provider":                        "SIGNET_EMAIL_PROVIDER",
		"email.region":                          "SIGNET_EMAIL_REGION",
		"email.from_address":                    "SIGNET_EMAIL_FROM_ADDRESS",
		"email.from_name":                       "SIGNET_EMAIL_FROM_NAME",
		"log.level":                             "SIGNET_LOG_LEVEL",
		"log.format":                            "SIGNET_LOG_FORMAT",
		"cors.allowed_origins":                  "SIGNET_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if SIGNET_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SIGNET_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Signing = SigningConfig{
		LinkSecret:            v.GetString("signing.link_secret"),
		LinkIssuer:            v.GetString("signing.link_issuer"),
		DefaultTimeToComplete: v.GetInt("signing.default_time_to_complete_days"),
		SigningBaseURL:        v.GetString("signing.signing_base_url"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	return cfg, nil
}
