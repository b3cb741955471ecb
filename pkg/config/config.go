package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	Cache        CacheConfig
	Safety       SafetyConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if !cfg.DB.IsSQLite() && !strings.EqualFold(cfg.DB.Driver, DBDriverPostgres) {
		return nil, fmt.Errorf("unsupported %s %q", EnvDBDriver, cfg.DB.Driver)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"RXGUARD_APP_ENV" required:"true"`
	Port         string   `envconfig:"RXGUARD_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"RXGUARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"RXGUARD_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"RXGUARD_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RXGUARD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RXGUARD_DB_DSN"`
	Driver string `envconfig:"RXGUARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RXGUARD_DB_HOST"`
	LegacyPort     int    `envconfig:"RXGUARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RXGUARD_DB_USER"`
	LegacyPassword string `envconfig:"RXGUARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"RXGUARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"RXGUARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RXGUARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RXGUARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RXGUARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RXGUARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

// RedisConfig is optional. Without a URL or address the API skips the
// interaction cache and the cron worker runs without a distributed lock.
type RedisConfig struct {
	URL          string        `envconfig:"RXGUARD_REDIS_URL"`
	Address      string        `envconfig:"RXGUARD_REDIS_ADDR"`
	Password     string        `envconfig:"RXGUARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"RXGUARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RXGUARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RXGUARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RXGUARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RXGUARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RXGUARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether enough connection info exists to dial Redis.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// AuthConfig describes how the API learns who is acting. Authentication
// happens upstream; the gateway forwards either a signed actor token or a
// plain X-Actor-Id header.
type AuthConfig struct {
	ActorTokenSecret string        `envconfig:"RXGUARD_ACTOR_TOKEN_SECRET"`
	ActorTokenIssuer string        `envconfig:"RXGUARD_ACTOR_TOKEN_ISSUER" default:"rxguard-gateway"`
	ActorTokenTTL    time.Duration `envconfig:"RXGUARD_ACTOR_TOKEN_TTL" default:"15m"`
	// TrustActorHeader accepts X-Actor-Id without a token. Disable it when
	// the API is reachable without passing through the gateway.
	TrustActorHeader bool `envconfig:"RXGUARD_TRUST_ACTOR_HEADER" default:"true"`
}

// TokensEnabled reports whether signed actor tokens are verified.
func (a AuthConfig) TokensEnabled() bool {
	return strings.TrimSpace(a.ActorTokenSecret) != ""
}

// RateLimitConfig sizes the per-client token bucket on /api/v1. A rate of
// zero disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"RXGUARD_RATE_LIMIT_RPS" default:"20"`
	Burst             int64   `envconfig:"RXGUARD_RATE_LIMIT_BURST" default:"100"`
}

// Enabled reports whether requests are limited at all.
func (r RateLimitConfig) Enabled() bool {
	return r.RequestsPerSecond > 0 && r.Burst > 0
}

type CacheConfig struct {
	InteractionTTL time.Duration `envconfig:"RXGUARD_CACHE_INTERACTION_TTL" default:"15m"`
}

type SafetyConfig struct {
	// ReportDosageScreenMg is the coarse per-line milligram ceiling used while
	// generating reports. It is separate from the dosage rule table.
	ReportDosageScreenMg float64 `envconfig:"RXGUARD_REPORT_DOSAGE_SCREEN_MG" default:"1000"`
	DispenseUnitsPerItem int     `envconfig:"RXGUARD_DISPENSE_UNITS_PER_ITEM" default:"1"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"RXGUARD_CRON_INTERVAL" default:"1h"`
	LockTTL           time.Duration `envconfig:"RXGUARD_CRON_LOCK_TTL" default:"55m"`
	LowStockThreshold int           `envconfig:"RXGUARD_CRON_LOW_STOCK_THRESHOLD" default:"0"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RXGUARD_AUTO_MIGRATE" default:"false"`
	SeedCatalog bool `envconfig:"RXGUARD_SEED_CATALOG" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
