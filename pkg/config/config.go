package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Designer     DesignerConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Designer.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"SHIRTFORGE_APP_ENV" required:"true"`
	Port         string   `envconfig:"SHIRTFORGE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"SHIRTFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SHIRTFORGE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"SHIRTFORGE_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"SHIRTFORGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHIRTFORGE_DB_DSN"`
	Driver string `envconfig:"SHIRTFORGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHIRTFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHIRTFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHIRTFORGE_DB_USER"`
	LegacyPassword string `envconfig:"SHIRTFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHIRTFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHIRTFORGE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"SHIRTFORGE_SQLITE_PATH" default:"shirtforge.db"`

	MaxOpenConns    int           `envconfig:"SHIRTFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHIRTFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHIRTFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHIRTFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"SHIRTFORGE_DB_SLOW_QUERY" default:"500ms"`
	TxRetries          int           `envconfig:"SHIRTFORGE_DB_TX_RETRIES" default:"2"`
}

// RedisConfig is optional. With neither URL nor Address set the API runs
// without the catalog cache and without idempotent finalize replay.
type RedisConfig struct {
	URL          string        `envconfig:"SHIRTFORGE_REDIS_URL"`
	Address      string        `envconfig:"SHIRTFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"SHIRTFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHIRTFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHIRTFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHIRTFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHIRTFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHIRTFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHIRTFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// JWTConfig guards the admin catalog and inventory endpoints.
type JWTConfig struct {
	Secret            string `envconfig:"SHIRTFORGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHIRTFORGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHIRTFORGE_JWT_EXPIRATION_MINUTES" default:"60"`
	Audience          string `envconfig:"SHIRTFORGE_JWT_AUDIENCE" default:"shirtforge-admin"`
}

type FeatureFlagsConfig struct {
	UseSQLite    bool `envconfig:"SHIRTFORGE_USE_SQLITE" default:"false"`
	AutoMigrate  bool `envconfig:"SHIRTFORGE_AUTO_MIGRATE" default:"false"`
	ReserveStock bool `envconfig:"SHIRTFORGE_RESERVE_STOCK" default:"true"`
	EmitEvents   bool `envconfig:"SHIRTFORGE_EMIT_EVENTS" default:"true"`
}

// DesignerConfig holds the store-wide knobs of the product designer.
type DesignerConfig struct {
	MinOrderQuantity int           `envconfig:"SHIRTFORGE_MIN_ORDER_QUANTITY" default:"20"`
	DefaultSetupFee  string        `envconfig:"SHIRTFORGE_DEFAULT_SETUP_FEE" default:"10.95"`
	ConfigCacheTTL   time.Duration `envconfig:"SHIRTFORGE_CONFIG_CACHE_TTL" default:"5m"`
}

// DefaultSetupFeeAmount parses the configured fallback fee.
func (d DesignerConfig) DefaultSetupFeeAmount() decimal.Decimal {
	fee, err := decimal.NewFromString(strings.TrimSpace(d.DefaultSetupFee))
	if err != nil {
		return decimal.Zero
	}
	return fee
}

func (d DesignerConfig) validate() error {
	if d.MinOrderQuantity < 0 {
		return fmt.Errorf("%s must be >= 0", EnvMinOrderQuantity)
	}
	fee, err := decimal.NewFromString(strings.TrimSpace(d.DefaultSetupFee))
	if err != nil {
		return fmt.Errorf("%s must be a decimal amount: %w", EnvDefaultSetupFee, err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("%s must be >= 0", EnvDefaultSetupFee)
	}
	return nil
}

type IdempotencyConfig struct {
	FinalizeTTL time.Duration `envconfig:"SHIRTFORGE_IDEMPOTENCY_FINALIZE_TTL" default:"168h"`
}

// RateLimitConfig throttles the public quote and finalize endpoints per
// client IP. Zero disables the limiter.
type RateLimitConfig struct {
	Window        time.Duration `envconfig:"SHIRTFORGE_RATE_LIMIT_WINDOW" default:"1m"`
	QuotePerIP    int           `envconfig:"SHIRTFORGE_RATE_LIMIT_QUOTE_PER_IP" default:"120"`
	FinalizePerIP int           `envconfig:"SHIRTFORGE_RATE_LIMIT_FINALIZE_PER_IP" default:"20"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SHIRTFORGE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SHIRTFORGE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SHIRTFORGE_GOOGLE_APPLICATION_CREDENTIALS"`
}

// GCSConfig is optional. With a bucket set, inline data URI artwork is moved
// to the bucket when an order is finalized.
type GCSConfig struct {
	BucketName    string `envconfig:"SHIRTFORGE_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"SHIRTFORGE_GCS_PUBLIC_BASE_URL"`
	ObjectPrefix  string `envconfig:"SHIRTFORGE_GCS_OBJECT_PREFIX" default:"design-orders"`
}

func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

// PubSubConfig names the topic finalized design orders are published to.
// Only the outbox publisher needs it.
type PubSubConfig struct {
	DesignOrdersTopic string `envconfig:"SHIRTFORGE_PUBSUB_DESIGN_ORDERS_TOPIC" default:"design-orders"`
	// EmulatorHost points the client at a local emulator with no credentials.
	EmulatorHost string        `envconfig:"SHIRTFORGE_PUBSUB_EMULATOR_HOST"`
	BatchDelay   time.Duration `envconfig:"SHIRTFORGE_PUBSUB_BATCH_DELAY" default:"10ms"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHIRTFORGE_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHIRTFORGE_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHIRTFORGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	// A failed row is not fetched again until base*2^(attempts-1), capped at max.
	RetryBaseMS int `envconfig:"SHIRTFORGE_OUTBOX_RETRY_BASE_MS" default:"1000"`
	RetryMaxMS  int `envconfig:"SHIRTFORGE_OUTBOX_RETRY_MAX_MS" default:"300000"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite || strings.EqualFold(db.Driver, DriverSQLite) {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	db.Driver = DriverPostgres
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
