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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	Gravatar     GravatarConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"CONTACTS_APP_ENV" required:"true"`
	Port         string   `envconfig:"CONTACTS_APP_PORT" default:"8000"`
	LogLevel     string   `envconfig:"CONTACTS_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"CONTACTS_LOG_FORMAT"`
	LogWarnStack bool     `envconfig:"CONTACTS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"CONTACTS_CORS_ORIGINS" default:"http://localhost:3000"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP. Enable
	// only behind a proxy that overwrites them.
	TrustProxyHeaders bool `envconfig:"CONTACTS_TRUST_PROXY_HEADERS" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

type DBConfig struct {
	DSN    string `envconfig:"CONTACTS_DB_DSN"`
	Driver string `envconfig:"CONTACTS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CONTACTS_DB_HOST"`
	LegacyPort     int    `envconfig:"CONTACTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CONTACTS_DB_USER"`
	LegacyPassword string `envconfig:"CONTACTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"CONTACTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"CONTACTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CONTACTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CONTACTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CONTACTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CONTACTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CONTACTS_REDIS_URL" default:"redis://localhost:6379/0"`
	Address      string        `envconfig:"CONTACTS_REDIS_ADDR"`
	Password     string        `envconfig:"CONTACTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CONTACTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CONTACTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CONTACTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CONTACTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CONTACTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CONTACTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CONTACTS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CONTACTS_JWT_ISSUER" default:"contacts-api"`
	ExpirationMinutes      int    `envconfig:"CONTACTS_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"CONTACTS_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
	EmailTokenTTLMinutes   int    `envconfig:"CONTACTS_EMAIL_TOKEN_TTL_MINUTES" default:"1440"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// EmailTokenTTL returns the lifetime of e-mail confirmation tokens.
func (j JWTConfig) EmailTokenTTL() time.Duration {
	if j.EmailTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.EmailTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CONTACTS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CONTACTS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CONTACTS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CONTACTS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CONTACTS_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig mirrors the per-client policy applied to the contacts routes.
type RateLimitConfig struct {
	Enabled bool          `envconfig:"CONTACTS_RATE_LIMIT_ENABLED" default:"true"`
	Window  time.Duration `envconfig:"CONTACTS_RATE_LIMIT_WINDOW" default:"60s"`
	Limit   int           `envconfig:"CONTACTS_RATE_LIMIT_LIMIT" default:"20"`
}

type GravatarConfig struct {
	BaseURL      string        `envconfig:"CONTACTS_GRAVATAR_BASE_URL" default:"https://www.gravatar.com/avatar"`
	Size         int           `envconfig:"CONTACTS_GRAVATAR_SIZE" default:"0"`
	DefaultImage string        `envconfig:"CONTACTS_GRAVATAR_DEFAULT_IMAGE"`
	Verify       bool          `envconfig:"CONTACTS_GRAVATAR_VERIFY" default:"false"`
	Timeout      time.Duration `envconfig:"CONTACTS_GRAVATAR_TIMEOUT" default:"3s"`
}

type FeatureFlagsConfig struct {
	UseSQLite             bool `envconfig:"CONTACTS_USE_SQLITE" default:"false"`
	AutoMigrate           bool `envconfig:"CONTACTS_AUTO_MIGRATE" default:"false"`
	RequireConfirmedEmail bool `envconfig:"CONTACTS_REQUIRE_CONFIRMED_EMAIL" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
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
