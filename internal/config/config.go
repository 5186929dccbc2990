package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MaxRetentionDays caps the retention window at roughly a century.
const MaxRetentionDays = 36500

const defaultDSN = "host=localhost user=postgres password=postgres dbname=luxverify port=5432 sslmode=disable"

type Config struct {
	HTTPPort      string
	DatabaseDSN   string
	JWTSecret     string
	CORSOrigins   string
	PublicBaseURL string // verification links embedded in QR codes start here

	DB        DBConfig
	Assets    AssetConfig
	Codes     CodeConfig
	Retention RetentionConfig
	Log       LogConfig
	Redis     RedisConfig

	QRSize             int
	RateLimitPerMinute int
}

type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AssetConfig struct {
	Dir     string // QR images are written here
	BaseURL string // and served back under this prefix
}

type CodeConfig struct {
	ProductPrefix string
	ItemPrefix    string
	NodeID        int64
}

type RetentionConfig struct {
	Days     int
	Schedule string // cron spec, empty disables the scheduled purge
}

type LogConfig struct {
	Mode     string // production or development
	Filename string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:5173")

	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")

	v.SetDefault("ASSET_DIR", "./qr-images")
	v.SetDefault("ASSET_BASE_URL", "/assets")

	v.SetDefault("PRODUCT_CODE_PREFIX", "SKA")
	v.SetDefault("ITEM_CODE_PREFIX", "SKG")
	v.SetDefault("SNOWFLAKE_NODE", 1)

	v.SetDefault("RETENTION_DAYS", 30)
	v.SetDefault("RETENTION_SCHEDULE", "")

	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("QR_SIZE", 512)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
}

// Load reads the configuration from the environment. An optional app.env in
// the working directory is read first; real environment variables win.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		HTTPPort:      v.GetString("HTTP_PORT"),
		DatabaseDSN:   v.GetString("DATABASE_DSN"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		CORSOrigins:   v.GetString("CORS_ALLOWED_ORIGINS"),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		DB: DBConfig{
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Assets: AssetConfig{
			Dir:     v.GetString("ASSET_DIR"),
			BaseURL: strings.TrimRight(v.GetString("ASSET_BASE_URL"), "/"),
		},
		Codes: CodeConfig{
			ProductPrefix: strings.ToUpper(strings.TrimSpace(v.GetString("PRODUCT_CODE_PREFIX"))),
			ItemPrefix:    strings.ToUpper(strings.TrimSpace(v.GetString("ITEM_CODE_PREFIX"))),
			NodeID:        v.GetInt64("SNOWFLAKE_NODE"),
		},
		Retention: RetentionConfig{
			Days:     v.GetInt("RETENTION_DAYS"),
			Schedule: strings.TrimSpace(v.GetString("RETENTION_SCHEDULE")),
		},
		Log: LogConfig{
			Mode:     v.GetString("LOG_MODE"),
			Filename: v.GetString("LOG_FILE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		QRSize:             v.GetInt("QR_SIZE"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that are unsafe or unusable in production.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Retention.Days <= 0 || c.Retention.Days > MaxRetentionDays {
		return fmt.Errorf("RETENTION_DAYS must be between 1 and %d, got %d", MaxRetentionDays, c.Retention.Days)
	}
	if c.Codes.ProductPrefix == c.Codes.ItemPrefix {
		return fmt.Errorf("PRODUCT_CODE_PREFIX and ITEM_CODE_PREFIX must differ")
	}
	if c.Codes.NodeID < 0 || c.Codes.NodeID > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023")
	}
	if c.QRSize < 128 {
		return fmt.Errorf("QR_SIZE must be at least 128 pixels")
	}
	return nil
}

// UsesDefaultDSN reports whether the database still points at the local development default.
func (c *Config) UsesDefaultDSN() bool {
	return c.DatabaseDSN == defaultDSN
}
