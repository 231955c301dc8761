package config

// EnvPrefix is handed to envconfig; every field carries an explicit key so it only
// matters for generated usage output.
const EnvPrefix = "CONTACTS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:contacts.db?_fk=1"
)

const (
	EnvAppEnv        = "CONTACTS_APP_ENV"
	EnvPort          = "CONTACTS_APP_PORT"
	EnvDBDSN         = "CONTACTS_DB_DSN"
	EnvDBDriver      = "CONTACTS_DB_DRIVER"
	EnvDBHost        = "CONTACTS_DB_HOST"
	EnvDBUser        = "CONTACTS_DB_USER"
	EnvDBName        = "CONTACTS_DB_NAME"
	EnvDBPassword    = "CONTACTS_DB_PASSWORD"
	EnvRedisURL      = "CONTACTS_REDIS_URL"
	EnvJWTSecret     = "CONTACTS_JWT_SECRET"
	EnvJWTIssuer     = "CONTACTS_JWT_ISSUER"
	EnvJWTExpMins    = "CONTACTS_JWT_EXPIRATION_MINUTES"
	EnvRateWindow    = "CONTACTS_RATE_LIMIT_WINDOW"
	EnvRateLimit     = "CONTACTS_RATE_LIMIT_LIMIT"
	EnvUseSQLite     = "CONTACTS_USE_SQLITE"
	EnvGravatarSize  = "CONTACTS_GRAVATAR_SIZE"
	EnvRequireVerify = "CONTACTS_REQUIRE_CONFIRMED_EMAIL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
