package config

// EnvPrefix is handed to envconfig; every field below also carries its full
// variable name so lookups work with or without the prefix.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                  = "STOREFRONT_APP_ENV"
	EnvPort                    = "STOREFRONT_APP_PORT"
	EnvPublicBaseURL           = "STOREFRONT_PUBLIC_BASE_URL"
	EnvDBDSN                   = "STOREFRONT_DB_DSN"
	EnvDBHost                  = "STOREFRONT_DB_HOST"
	EnvDBUser                  = "STOREFRONT_DB_USER"
	EnvDBName                  = "STOREFRONT_DB_NAME"
	EnvRedisURL                = "STOREFRONT_REDIS_URL"
	EnvJWTSecret               = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer               = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins              = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "STOREFRONT_REFRESH_TOKEN_TTL_MINUTES"
	EnvOrdersStrictTransitions = "STOREFRONT_ORDERS_STRICT_TRANSITIONS"
	EnvCronInterval            = "STOREFRONT_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
