package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "RENTWISE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "RENTWISE_APP_ENV"
	EnvPort                   = "RENTWISE_APP_PORT"
	EnvDBDSN                  = "RENTWISE_DB_DSN"
	EnvDBHost                 = "RENTWISE_DB_HOST"
	EnvDBUser                 = "RENTWISE_DB_USER"
	EnvDBName                 = "RENTWISE_DB_NAME"
	EnvDBPassword             = "RENTWISE_DB_PASSWORD"
	EnvRedisURL               = "RENTWISE_REDIS_URL"
	EnvJWTSecret              = "RENTWISE_JWT_SECRET"
	EnvJWTIssuer              = "RENTWISE_JWT_ISSUER"
	EnvJWTExpMins             = "RENTWISE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "RENTWISE_REFRESH_TOKEN_TTL_MINUTES"
	EnvCORSOrigin             = "RENTWISE_CORS_ORIGIN"
	EnvMailgunDomain          = "RENTWISE_MAILGUN_DOMAIN"
	EnvMailgunAPIKey          = "RENTWISE_MAILGUN_API_KEY"
	EnvOAuthStateSecret       = "RENTWISE_OAUTH_STATE_SECRET"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
