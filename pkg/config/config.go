package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Orders        OrdersConfig
	Idempotency   IdempotencyConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if cfg.DB.Driver != DBDriverSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field rules envconfig cannot express.
func (c *Config) Validate() error {
	if c.App.IsProd() {
		if c.FeatureFlags.UseSQLite {
			return fmt.Errorf("%s is not allowed in %s", EnvUseSQLite, AppEnvProd)
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("%s must be at least 32 characters in %s", EnvJWTSecret, AppEnvProd)
		}
	}

	switch strings.ToLower(c.Orders.LockMode) {
	case OrderLockNone, OrderLockLocal:
	case OrderLockRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s=%s requires %s", EnvOrderLockMode, OrderLockRedis, EnvRedisURL)
		}
	default:
		return fmt.Errorf("%s must be one of none, local, redis (got %q)", EnvOrderLockMode, c.Orders.LockMode)
	}

	if c.Orders.ConflictRetries < 0 || c.Orders.ConflictRetries > MaxOrderConflictRetries {
		return fmt.Errorf("%s must be 0 or %d", EnvOrderConflictRetries, MaxOrderConflictRetries)
	}
	return nil
}

type AppConfig struct {
	Env          string   `envconfig:"LEDGER_APP_ENV" required:"true"`
	Port         string   `envconfig:"LEDGER_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"LEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"LEDGER_LOG_WARN_STACK" default:"false"`
	SupplierName string   `envconfig:"LEDGER_SUPPLIER_NAME" default:"Wholesale Agency"`
	CORSOrigins  []string `envconfig:"LEDGER_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LEDGER_DB_DSN"`
	Driver string `envconfig:"LEDGER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEDGER_DB_HOST"`
	LegacyPort     int    `envconfig:"LEDGER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEDGER_DB_USER"`
	LegacyPassword string `envconfig:"LEDGER_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEDGER_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEDGER_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"LEDGER_SQLITE_PATH" default:"file:ledger.db?_busy_timeout=5000"`

	MaxOpenConns     int           `envconfig:"LEDGER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns     int           `envconfig:"LEDGER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime  time.Duration `envconfig:"LEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime  time.Duration `envconfig:"LEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	StatementTimeout time.Duration `envconfig:"LEDGER_DB_STATEMENT_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEDGER_REDIS_URL"`
	Address      string        `envconfig:"LEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"LEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEDGER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEDGER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEDGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEDGER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"LEDGER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LEDGER_JWT_ISSUER" default:"agency-ledger"`
	ExpirationMinutes int    `envconfig:"LEDGER_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LEDGER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LEDGER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LEDGER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LEDGER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LEDGER_ARGON_KEY_LEN" default:"32"`
}

// OrdersConfig tunes the order key guard taken around find-or-create.
type OrdersConfig struct {
	LockMode        string        `envconfig:"LEDGER_ORDER_LOCK_MODE" default:"local"`
	LockTTL         time.Duration `envconfig:"LEDGER_ORDER_LOCK_TTL" default:"15s"`
	LockWait        time.Duration `envconfig:"LEDGER_ORDER_LOCK_WAIT" default:"5s"`
	ConflictRetries int           `envconfig:"LEDGER_ORDER_CONFLICT_RETRIES" default:"1"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"LEDGER_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LEDGER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LEDGER_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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

type AuthRateLimitConfig struct {
	LoginWindow         time.Duration `envconfig:"LEDGER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginMobileLimit    int           `envconfig:"LEDGER_AUTH_RATE_LIMIT_LOGIN_MOBILE_LIMIT" default:"5"`
	LoginIPLimit        int           `envconfig:"LEDGER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow      time.Duration `envconfig:"LEDGER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterMobileLimit int           `envconfig:"LEDGER_AUTH_RATE_LIMIT_REGISTER_MOBILE_LIMIT" default:"3"`
	RegisterIPLimit     int           `envconfig:"LEDGER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}
