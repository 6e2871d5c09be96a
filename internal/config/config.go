package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is loaded once at startup
// and treated as immutable for the lifetime of the process.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	S3        S3Config
	Log       LogConfig
	Inference InferenceConfig
	Pipeline  PipelineConfig
	Queue     QueueConfig
	Cache     CacheConfig
	Auth      AuthConfig
	CORS      CORSConfig
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

// S3Config holds object storage settings for queued job page images.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// InferenceConfig holds settings for the vision-language inference endpoint.
// The endpoint is an opaque, unreliable collaborator; everything here is a
// pipeline-wide constant for the duration of one run.
type InferenceConfig struct {
	Provider        string  `mapstructure:"provider"`
	BaseURL         string  `mapstructure:"base_url"`
	APIKey          string  `mapstructure:"api_key"`
	Model           string  `mapstructure:"model"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Temperature     float32 `mapstructure:"temperature"`
	TimeoutSecs     int     `mapstructure:"timeout_secs"`
}

// Timeout returns the per-call inference timeout.
func (c *InferenceConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
	MaxRetries     int `mapstructure:"max_retries"`
	MaxPages       int `mapstructure:"max_pages"` // 0 = unlimited
	ImageDPI       int `mapstructure:"image_dpi"` // advisory for callers that rasterize
}

// QueueConfig holds extraction queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxAttempts      int `mapstructure:"max_attempts"`
	Concurrency      int `mapstructure:"concurrency"`
}

// CacheConfig holds optional Redis result cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	TTLSecs int    `mapstructure:"ttl_secs"`
}

// AuthConfig holds bearer token validation settings. An empty secret
// disables authentication (development mode).
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the DOCULENS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCULENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "doculens")
	v.SetDefault("db.password", "doculens_secret")
	v.SetDefault("db.name", "doculens_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "doculens-pages")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Inference defaults: an OpenAI-compatible local endpoint (LM Studio,
	// vLLM) serving a vision model.
	v.SetDefault("inference.provider", "openai")
	v.SetDefault("inference.base_url", "http://localhost:1234/v1")
	v.SetDefault("inference.api_key", "")
	v.SetDefault("inference.model", "qwen3vl-4b")
	v.SetDefault("inference.max_output_tokens", 800)
	v.SetDefault("inference.temperature", 0.1)
	v.SetDefault("inference.timeout_secs", 120)

	// Pipeline defaults
	v.SetDefault("pipeline.max_concurrency", 3)
	v.SetDefault("pipeline.max_retries", 1)
	v.SetDefault("pipeline.max_pages", 0)
	v.SetDefault("pipeline.image_dpi", 200)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.concurrency", 2)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.ttl_secs", 86400)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "doculens")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "DOCULENS_SERVER_PORT",
		"server.read_timeout":         "DOCULENS_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "DOCULENS_SERVER_WRITE_TIMEOUT",
		"server.environment":          "DOCULENS_SERVER_ENVIRONMENT",
		"db.host":                     "DOCULENS_DB_HOST",
		"db.port":                     "DOCULENS_DB_PORT",
		"db.user":                     "DOCULENS_DB_USER",
		"db.password":                 "DOCULENS_DB_PASSWORD",
		"db.name":                     "DOCULENS_DB_NAME",
		"db.sslmode":                  "DOCULENS_DB_SSLMODE",
		"db.max_open":                 "DOCULENS_DB_MAX_OPEN",
		"db.max_idle":                 "DOCULENS_DB_MAX_IDLE",
		"s3.region":                   "DOCULENS_S3_REGION",
		"s3.bucket":                   "DOCULENS_S3_BUCKET",
		"s3.endpoint":                 "DOCULENS_S3_ENDPOINT",
		"s3.access_key":               "DOCULENS_S3_ACCESS_KEY",
		"s3.secret_key":               "DOCULENS_S3_SECRET_KEY",
		"s3.max_file_size_mb":         "DOCULENS_S3_MAX_FILE_SIZE_MB",
		"log.level":                   "DOCULENS_LOG_LEVEL",
		"log.format":                  "DOCULENS_LOG_FORMAT",
		"inference.provider":          "DOCULENS_INFERENCE_PROVIDER",
		"inference.base_url":          "DOCULENS_INFERENCE_BASE_URL",
		"inference.api_key":           "DOCULENS_INFERENCE_API_KEY",
		"inference.model":             "DOCULENS_INFERENCE_MODEL",
		"inference.max_output_tokens": "DOCULENS_INFERENCE_MAX_OUTPUT_TOKENS",
		"inference.temperature":       "DOCULENS_INFERENCE_TEMPERATURE",
		"inference.timeout_secs":      "DOCULENS_INFERENCE_TIMEOUT_SECS",
		"pipeline.max_concurrency":    "DOCULENS_PIPELINE_MAX_CONCURRENCY",
		"pipeline.max_retries":        "DOCULENS_PIPELINE_MAX_RETRIES",
		"pipeline.max_pages":          "DOCULENS_PIPELINE_MAX_PAGES",
		"pipeline.image_dpi":          "DOCULENS_PIPELINE_IMAGE_DPI",
		"queue.poll_interval_secs":    "DOCULENS_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_attempts":          "DOCULENS_QUEUE_MAX_ATTEMPTS",
		"queue.concurrency":           "DOCULENS_QUEUE_CONCURRENCY",
		"cache.enabled":               "DOCULENS_CACHE_ENABLED",
		"cache.address":               "DOCULENS_CACHE_ADDRESS",
		"cache.ttl_secs":              "DOCULENS_CACHE_TTL_SECS",
		"auth.jwt_secret":             "DOCULENS_AUTH_JWT_SECRET",
		"auth.issuer":                 "DOCULENS_AUTH_ISSUER",
		"cors.allowed_origins":        "DOCULENS_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DOCULENS_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCULENS_SERVER_PORT") == "" {
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
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Inference = InferenceConfig{
		Provider:        v.GetString("inference.provider"),
		BaseURL:         v.GetString("inference.base_url"),
		APIKey:          v.GetString("inference.api_key"),
		Model:           v.GetString("inference.model"),
		MaxOutputTokens: v.GetInt("inference.max_output_tokens"),
		Temperature:     float32(v.GetFloat64("inference.temperature")),
		TimeoutSecs:     v.GetInt("inference.timeout_secs"),
	}
	cfg.Pipeline = PipelineConfig{
		MaxConcurrency: v.GetInt("pipeline.max_concurrency"),
		MaxRetries:     v.GetInt("pipeline.max_retries"),
		MaxPages:       v.GetInt("pipeline.max_pages"),
		ImageDPI:       v.GetInt("pipeline.image_dpi"),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxAttempts:      v.GetInt("queue.max_attempts"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}
	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("cache.enabled"),
		Address: v.GetString("cache.address"),
		TTLSecs: v.GetInt("cache.ttl_secs"),
	}
	cfg.Auth = AuthConfig{
		JWTSecret: v.GetString("auth.jwt_secret"),
		Issuer:    v.GetString("auth.issuer"),
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
