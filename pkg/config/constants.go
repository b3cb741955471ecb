package config

const EnvPrefix = "RXGUARD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "RXGUARD_APP_ENV"
	EnvPort     = "RXGUARD_APP_PORT"
	EnvLogLevel = "RXGUARD_LOG_LEVEL"

	EnvDBDSN    = "RXGUARD_DB_DSN"
	EnvDBDriver = "RXGUARD_DB_DRIVER"
	EnvDBHost   = "RXGUARD_DB_HOST"
	EnvDBPort   = "RXGUARD_DB_PORT"
	EnvDBUser   = "RXGUARD_DB_USER"
	EnvDBName   = "RXGUARD_DB_NAME"

	EnvRedisURL = "RXGUARD_REDIS_URL"

	EnvReportDosageScreenMg = "RXGUARD_REPORT_DOSAGE_SCREEN_MG"
	EnvCronInterval         = "RXGUARD_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
