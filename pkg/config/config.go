package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by the client.
const EnvPrefix = "ACHRILIK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Storage backend selectors.
const (
	StorageBackendFile   = "file"
	StorageBackendRedis  = "redis"
	StorageBackendSQLite = "sqlite"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Delivery DeliveryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ACHRILIK_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"ACHRILIK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ACHRILIK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL    string        `envconfig:"ACHRILIK_API_BASE_URL" default:"https://achrilik.com/api"`
	Timeout    time.Duration `envconfig:"ACHRILIK_API_TIMEOUT" default:"10s"`
	MaxRetries int           `envconfig:"ACHRILIK_API_MAX_RETRIES" default:"2"`
	RetryDelay time.Duration `envconfig:"ACHRILIK_API_RETRY_DELAY" default:"250ms"`
	UserAgent  string        `envconfig:"ACHRILIK_API_USER_AGENT" default:"achrilik-storefront/1.0"`
	TokenKey   string        `envconfig:"ACHRILIK_API_TOKEN_KEY" default:"auth_token"`
	ProfileKey string        `envconfig:"ACHRILIK_API_PROFILE_KEY" default:"auth_profile"`
}

type StorageConfig struct {
	Backend      string `envconfig:"ACHRILIK_STORAGE_BACKEND" default:"file"`
	DataDir      string `envconfig:"ACHRILIK_STORAGE_DATA_DIR" default:".achrilik"`
	SQLitePath   string `envconfig:"ACHRILIK_STORAGE_SQLITE_PATH" default:".achrilik/storefront.db"`
	CartKey      string `envconfig:"ACHRILIK_STORAGE_CART_KEY" default:"achrilik:cart"`
	FavoritesKey string `envconfig:"ACHRILIK_STORAGE_FAVORITES_KEY" default:"achrilik:favorites"`
}

func (s StorageConfig) validate() error {
	switch s.Backend {
	case StorageBackendFile, StorageBackendRedis, StorageBackendSQLite:
		return nil
	}
	return fmt.Errorf("unsupported storage backend %q", s.Backend)
}

type RedisConfig struct {
	URL          string        `envconfig:"ACHRILIK_REDIS_URL"`
	Address      string        `envconfig:"ACHRILIK_REDIS_ADDR"`
	Password     string        `envconfig:"ACHRILIK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ACHRILIK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ACHRILIK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ACHRILIK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ACHRILIK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ACHRILIK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ACHRILIK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DeliveryConfig struct {
	DefaultThreshold  int64  `envconfig:"ACHRILIK_DELIVERY_DEFAULT_THRESHOLD" default:"8000"`
	FallbackStoreName string `envconfig:"ACHRILIK_DELIVERY_FALLBACK_STORE_NAME" default:"Achrilik"`
}
