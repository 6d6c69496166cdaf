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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Reconcile    ReconcileConfig
	Engagement   EngagementConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Reconcile.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKETCORE_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETCORE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MARKETCORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETCORE_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow-list for browser clients.
	CORSOrigins []string `envconfig:"MARKETCORE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MARKETCORE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETCORE_DB_DSN"`
	Driver string `envconfig:"MARKETCORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETCORE_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETCORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETCORE_DB_USER"`
	LegacyPassword string `envconfig:"MARKETCORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETCORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETCORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETCORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETCORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETCORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETCORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// LockTimeout bounds how long a transaction waits on a row lock before
	// the store aborts it.
	LockTimeout time.Duration `envconfig:"MARKETCORE_DB_LOCK_TIMEOUT" default:"5s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETCORE_REDIS_URL"`
	Address      string        `envconfig:"MARKETCORE_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETCORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETCORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETCORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETCORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETCORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETCORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETCORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MARKETCORE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARKETCORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARKETCORE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETCORE_AUTO_MIGRATE" default:"false"`
}

type CheckoutConfig struct {
	MaxQuantity     int `envconfig:"MARKETCORE_CHECKOUT_MAX_QUANTITY" default:"999"`
	OrderNoAttempts int `envconfig:"MARKETCORE_CHECKOUT_ORDER_NO_ATTEMPTS" default:"3"`
}

type ReconcileConfig struct {
	ShippedTimeout time.Duration `envconfig:"MARKETCORE_RECONCILE_SHIPPED_TIMEOUT" default:"168h"`
	Interval       time.Duration `envconfig:"MARKETCORE_RECONCILE_INTERVAL" default:"1m"`
	LockTTL        time.Duration `envconfig:"MARKETCORE_RECONCILE_LOCK_TTL" default:"10m"`
}

func (r ReconcileConfig) validate() error {
	if r.ShippedTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvReconcileShippedTimeout)
	}
	if r.Interval <= 0 {
		return fmt.Errorf("%s must be positive", EnvReconcileInterval)
	}
	return nil
}

type EngagementConfig struct {
	ViewWindow time.Duration `envconfig:"MARKETCORE_ENGAGEMENT_VIEW_WINDOW" default:"10m"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MARKETCORE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"MARKETCORE_PUBSUB_ORDERS_TOPIC" default:"marketcore-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MARKETCORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MARKETCORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MARKETCORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"MARKETCORE_OUTBOX_RETENTION_DAYS" default:"30"`
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
