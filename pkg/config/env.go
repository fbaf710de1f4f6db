package config

const EnvPrefix = "APEXEV"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EmailDriverLog = "log"
	EmailDriverSNS = "sns"
	EmailDriverSES = "ses"
)

const (
	EnvAppEnv   = "APEXEV_APP_ENV"
	EnvPort     = "APEXEV_APP_PORT"
	EnvLogLevel = "APEXEV_LOG_LEVEL"

	EnvDBDSN    = "APEXEV_DB_DSN"
	EnvDBDriver = "APEXEV_DB_DRIVER"
	EnvDBHost   = "APEXEV_DB_HOST"
	EnvDBUser   = "APEXEV_DB_USER"
	EnvDBName   = "APEXEV_DB_NAME"

	EnvRedisURL = "APEXEV_REDIS_URL"

	EnvJWTSecret  = "APEXEV_JWT_SECRET"
	EnvJWTIssuer  = "APEXEV_JWT_ISSUER"
	EnvJWTExpMins = "APEXEV_JWT_EXPIRATION_MINUTES"

	EnvEmailDriver       = "APEXEV_EMAIL_DRIVER"
	EnvSNSTopicARN       = "APEXEV_SNS_EMAIL_TOPIC_ARN"
	EnvSESFrom           = "APEXEV_SES_FROM_EMAIL"
	EnvReminderTimezone  = "APEXEV_REMINDER_TIMEZONE"
	EnvReminderLookahead = "APEXEV_REMINDER_LOOKAHEAD"
	EnvReminderLockTTL   = "APEXEV_REMINDER_LOCK_TTL"

	EnvReminderDispatchTimeout = "APEXEV_REMINDER_DISPATCH_TIMEOUT"
)
