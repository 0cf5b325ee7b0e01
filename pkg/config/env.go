package config

const (
	EnvPrefix = "LEDGER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "LEDGER_APP_ENV"
	EnvPort         = "LEDGER_APP_PORT"
	EnvLogLevel     = "LEDGER_LOG_LEVEL"
	EnvLogWarnStack = "LEDGER_LOG_WARN_STACK"
	EnvSupplierName = "LEDGER_SUPPLIER_NAME"

	EnvDBDSN      = "LEDGER_DB_DSN"
	EnvDBDriver   = "LEDGER_DB_DRIVER"
	EnvDBHost     = "LEDGER_DB_HOST"
	EnvDBPort     = "LEDGER_DB_PORT"
	EnvDBUser     = "LEDGER_DB_USER"
	EnvDBPassword = "LEDGER_DB_PASSWORD"
	EnvDBName     = "LEDGER_DB_NAME"
	EnvDBSSLMode  = "LEDGER_DB_SSLMODE"
	EnvSQLitePath = "LEDGER_SQLITE_PATH"

	EnvRedisURL = "LEDGER_REDIS_URL"

	EnvJWTSecret  = "LEDGER_JWT_SECRET"
	EnvJWTIssuer  = "LEDGER_JWT_ISSUER"
	EnvJWTExpMins = "LEDGER_JWT_EXPIRATION_MINUTES"

	EnvOrderLockMode        = "LEDGER_ORDER_LOCK_MODE"
	EnvOrderLockTTL         = "LEDGER_ORDER_LOCK_TTL"
	EnvOrderLockWait        = "LEDGER_ORDER_LOCK_WAIT"
	EnvOrderConflictRetries = "LEDGER_ORDER_CONFLICT_RETRIES"

	EnvIdempotencyTTL = "LEDGER_IDEMPOTENCY_TTL"

	EnvUseSQLite   = "LEDGER_USE_SQLITE"
	EnvAutoMigrate = "LEDGER_AUTO_MIGRATE"
)

const (
	OrderLockNone  = "none"
	OrderLockLocal = "local"
	OrderLockRedis = "redis"

	// MaxOrderConflictRetries caps re-runs of an order upsert after a
	// duplicate-key race; after one re-read the key is known to exist.
	MaxOrderConflictRetries = 1
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)
