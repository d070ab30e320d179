package config

// EnvPrefix is empty because every field carries its fully-qualified
// TAPSNAP_* name in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "TAPSNAP_APP_ENV"
	EnvPort   = "TAPSNAP_APP_PORT"

	EnvDBDSN  = "TAPSNAP_DB_DSN"
	EnvDBHost = "TAPSNAP_DB_HOST"
	EnvDBUser = "TAPSNAP_DB_USER"
	EnvDBName = "TAPSNAP_DB_NAME"

	EnvRedisURL = "TAPSNAP_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
