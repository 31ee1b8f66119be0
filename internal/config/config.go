package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API         APIConfig         `mapstructure:"api"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	MinIO       MinIOConfig       `mapstructure:"minio"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Internal    InternalConfig    `mapstructure:"internal"`
	Translation TranslationConfig `mapstructure:"translation"`
	Snapshot    SnapshotConfig    `mapstructure:"snapshot"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port                    int      `mapstructure:"port"`
	CookieDomain            string   `mapstructure:"cookie_domain"`
	AllowedOrigins          []string `mapstructure:"allowed_origins"`
	BookingRateLimitPerHour int      `mapstructure:"booking_rate_limit_per_hour"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Debug    bool   `mapstructure:"debug"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	BucketLookup     string `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// AuthConfig 是后台管理接口的令牌配置，密钥为 PEM 文件路径。
type AuthConfig struct {
	PrivateKeyPath        string        `mapstructure:"private_key_path"`
	PublicKeyPath         string        `mapstructure:"public_key_path"`
	AccessTokenTTL        time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL       time.Duration `mapstructure:"refresh_token_ttl"`
	LoginRateLimitPerHour int           `mapstructure:"login_rate_limit_per_hour"`
	LoginLockThreshold    int           `mapstructure:"login_lock_threshold"`
	LoginLockTTL          time.Duration `mapstructure:"login_lock_ttl"`
}

// InternalConfig 是 worker 回调 API 打印页使用的地址与共享密钥。
type InternalConfig struct {
	Secret  string `mapstructure:"secret"`
	BaseURL string `mapstructure:"base_url"`
}

// TranslationConfig 配置兼容 OpenAI 协议的翻译服务；BaseURL/APIKey/Model 任一为空即视为未启用。
type TranslationConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	SourceLang string        `mapstructure:"source_lang"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Enabled 报告翻译服务是否已配置。
func (t TranslationConfig) Enabled() bool {
	return strings.TrimSpace(t.BaseURL) != "" && strings.TrimSpace(t.APIKey) != "" && strings.TrimSpace(t.Model) != ""
}

// SnapshotConfig 控制作品集截图任务。
type SnapshotConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	ViewportWidth int           `mapstructure:"viewport_width"`
	LinkTTL       time.Duration `mapstructure:"link_ttl"`
	Concurrency   int           `mapstructure:"concurrency"`
	BrowserBin    string        `mapstructure:"browser_bin"`
	MetricsPort   int           `mapstructure:"metrics_port"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Addr 返回 host:port 形式的 Redis 地址。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.booking_rate_limit_per_hour", 5)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "kidsfolio")
	v.SetDefault("database.user", "kidsfolio")
	v.SetDefault("database.password", "kidsfolio")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.debug", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "snapshots")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.login_rate_limit_per_hour", 10)
	v.SetDefault("auth.login_lock_threshold", 5)
	v.SetDefault("auth.login_lock_ttl", 15*time.Minute)
	v.SetDefault("internal.base_url", "http://localhost:8080")
	v.SetDefault("translation.source_lang", "en")
	v.SetDefault("translation.cache_ttl", 7*24*time.Hour)
	v.SetDefault("translation.timeout", 60*time.Second)
	v.SetDefault("snapshot.timeout", 45*time.Second)
	v.SetDefault("snapshot.viewport_width", 1200)
	v.SetDefault("snapshot.link_ttl", 24*time.Hour)
	v.SetDefault("snapshot.concurrency", 2)
	v.SetDefault("snapshot.metrics_port", 9091)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                        "API_PORT",
		"api.cookie_domain":               "API_COOKIE_DOMAIN",
		"api.allowed_origins":             "API_ALLOWED_ORIGINS",
		"api.booking_rate_limit_per_hour": "API_BOOKING_RATE_LIMIT_PER_HOUR",
		"database.host":                   "DATABASE_HOST",
		"database.port":                   "DATABASE_PORT",
		"database.name":                   "POSTGRES_DB",
		"database.user":                   "POSTGRES_USER",
		"database.password":               "POSTGRES_PASSWORD",
		"database.sslmode":                "DATABASE_SSLMODE",
		"database.debug":                  "DATABASE_DEBUG",
		"redis.host":                      "REDIS_HOST",
		"redis.port":                      "REDIS_PORT",
		"redis.password":                  "REDIS_PASSWORD",
		"redis.db":                        "REDIS_DB",
		"minio.endpoint":                  "MINIO_ENDPOINT",
		"minio.public_endpoint":           "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":             "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":         "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                   "MINIO_USE_SSL",
		"minio.bucket":                    "MINIO_BUCKET",
		"minio.region":                    "MINIO_REGION",
		"minio.bucket_lookup":             "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket":        "MINIO_AUTO_CREATE_BUCKET",
		"auth.private_key_path":           "AUTH_PRIVATE_KEY_PATH",
		"auth.public_key_path":            "AUTH_PUBLIC_KEY_PATH",
		"auth.access_token_ttl":           "AUTH_ACCESS_TOKEN_TTL",
		"auth.refresh_token_ttl":          "AUTH_REFRESH_TOKEN_TTL",
		"auth.login_rate_limit_per_hour":  "AUTH_LOGIN_RATE_LIMIT_PER_HOUR",
		"auth.login_lock_threshold":       "AUTH_LOGIN_LOCK_THRESHOLD",
		"auth.login_lock_ttl":             "AUTH_LOGIN_LOCK_TTL",
		"internal.secret":                 "INTERNAL_API_SECRET",
		"internal.base_url":               "INTERNAL_API_BASE_URL",
		"translation.base_url":            "TRANSLATION_BASE_URL",
		"translation.api_key":             "TRANSLATION_API_KEY",
		"translation.model":               "TRANSLATION_MODEL",
		"translation.source_lang":         "TRANSLATION_SOURCE_LANG",
		"translation.cache_ttl":           "TRANSLATION_CACHE_TTL",
		"translation.timeout":             "TRANSLATION_TIMEOUT",
		"snapshot.timeout":                "SNAPSHOT_TIMEOUT",
		"snapshot.viewport_width":         "SNAPSHOT_VIEWPORT_WIDTH",
		"snapshot.link_ttl":               "SNAPSHOT_LINK_TTL",
		"snapshot.concurrency":            "SNAPSHOT_CONCURRENCY",
		"snapshot.browser_bin":            "SNAPSHOT_BROWSER_BIN",
		"snapshot.metrics_port":           "SNAPSHOT_METRICS_PORT",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

// Validate 检查各段配置，错误信息带上出错的字段路径。
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.API),
		validation.Field(&c.Database),
		validation.Field(&c.Redis),
		validation.Field(&c.MinIO),
		validation.Field(&c.Auth),
		validation.Field(&c.Internal),
		validation.Field(&c.Translation),
		validation.Field(&c.Snapshot),
	)
}

func (c APIConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.BookingRateLimitPerHour, validation.Min(0)),
	)
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.Password, validation.Required),
		validation.Field(&c.SSLMode, validation.Required,
			validation.In("disable", "allow", "prefer", "require", "verify-ca", "verify-full")),
	)
}

func (c RedisConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.DB, validation.Min(0)),
	)
}

func (c MinIOConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.PublicEndpoint, validation.Required, is.URL),
		validation.Field(&c.AccessKeyID, validation.Required),
		validation.Field(&c.SecretAccessKey, validation.Required),
		validation.Field(&c.Bucket, validation.Required),
	)
}

func (c AuthConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AccessTokenTTL, validation.Required),
		validation.Field(&c.RefreshTokenTTL, validation.Required),
		validation.Field(&c.LoginLockTTL, validation.Required),
	)
}

func (c InternalConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Secret, validation.Required),
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	)
}

func (c TranslationConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SourceLang, validation.Required, validation.In("en", "zh")),
		validation.Field(&c.BaseURL, is.URL),
		validation.Field(&c.Timeout, validation.Required),
	)
}

func (c SnapshotConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Required),
		validation.Field(&c.LinkTTL, validation.Required),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1)),
		validation.Field(&c.ViewportWidth, validation.Min(320)),
		validation.Field(&c.MetricsPort, validation.Min(0), validation.Max(65535)),
	)
}
