package config

const EnvPrefix = "SHIRTFORGE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "SHIRTFORGE_APP_ENV"
	EnvPort     = "SHIRTFORGE_APP_PORT"
	EnvLogLevel = "SHIRTFORGE_LOG_LEVEL"

	EnvDBDSN    = "SHIRTFORGE_DB_DSN"
	EnvDBDriver = "SHIRTFORGE_DB_DRIVER"
	EnvDBHost   = "SHIRTFORGE_DB_HOST"
	EnvDBUser   = "SHIRTFORGE_DB_USER"
	EnvDBName   = "SHIRTFORGE_DB_NAME"
	EnvDBPort   = "SHIRTFORGE_DB_PORT"

	EnvRedisURL = "SHIRTFORGE_REDIS_URL"

	EnvJWTSecret  = "SHIRTFORGE_JWT_SECRET"
	EnvJWTIssuer  = "SHIRTFORGE_JWT_ISSUER"
	EnvJWTExpMins = "SHIRTFORGE_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite    = "SHIRTFORGE_USE_SQLITE"
	EnvAutoMigrate  = "SHIRTFORGE_AUTO_MIGRATE"
	EnvReserveStock = "SHIRTFORGE_RESERVE_STOCK"
	EnvEmitEvents   = "SHIRTFORGE_EMIT_EVENTS"

	EnvGCPProjectID      = "SHIRTFORGE_GCP_PROJECT_ID"
	EnvDesignOrdersTopic = "SHIRTFORGE_PUBSUB_DESIGN_ORDERS_TOPIC"
	EnvOutboxMaxAttempts = "SHIRTFORGE_OUTBOX_MAX_ATTEMPTS"

	EnvMinOrderQuantity = "SHIRTFORGE_MIN_ORDER_QUANTITY"
	EnvDefaultSetupFee  = "SHIRTFORGE_DEFAULT_SETUP_FEE"
	EnvConfigCacheTTL   = "SHIRTFORGE_CONFIG_CACHE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
