package config

const EnvPrefix = "MARKETCORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "MARKETCORE_APP_ENV"
	EnvPort      = "MARKETCORE_APP_PORT"
	EnvDBDSN     = "MARKETCORE_DB_DSN"
	EnvDBHost    = "MARKETCORE_DB_HOST"
	EnvDBUser    = "MARKETCORE_DB_USER"
	EnvDBName    = "MARKETCORE_DB_NAME"
	EnvRedisURL  = "MARKETCORE_REDIS_URL"
	EnvJWTSecret = "MARKETCORE_JWT_SECRET"
	EnvJWTIssuer = "MARKETCORE_JWT_ISSUER"

	EnvReconcileShippedTimeout = "MARKETCORE_RECONCILE_SHIPPED_TIMEOUT"
	EnvReconcileInterval       = "MARKETCORE_RECONCILE_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
