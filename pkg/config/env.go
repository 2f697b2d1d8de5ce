package config

const (
	// EnvPrefix is handed to envconfig; every field carries its full variable name.
	EnvPrefix = "GATEPASS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "GATEPASS_APP_ENV"
	EnvPort     = "GATEPASS_APP_PORT"
	EnvLogLevel = "GATEPASS_LOG_LEVEL"

	EnvDBDSN      = "GATEPASS_DB_DSN"
	EnvDBHost     = "GATEPASS_DB_HOST"
	EnvDBPort     = "GATEPASS_DB_PORT"
	EnvDBUser     = "GATEPASS_DB_USER"
	EnvDBPassword = "GATEPASS_DB_PASSWORD"
	EnvDBName     = "GATEPASS_DB_NAME"

	EnvRedisURL = "GATEPASS_REDIS_URL"

	EnvUseSQLite = "GATEPASS_USE_SQLITE"

	EnvNumberPrefix          = "GATEPASS_NUMBER_PREFIX"
	EnvTimeZone              = "GATEPASS_TIME_ZONE"
	EnvAllocationMaxAttempts = "GATEPASS_ALLOCATION_MAX_ATTEMPTS"

	EnvGCPProjectID = "GATEPASS_GCP_PROJECT_ID"

	EnvPubSubNotificationTopic = "GATEPASS_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "GATEPASS_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvStorageBackend   = "GATEPASS_STORAGE_BACKEND"
	EnvStorageLocalRoot = "GATEPASS_STORAGE_LOCAL_ROOT"
	EnvStorageS3Bucket  = "GATEPASS_STORAGE_S3_BUCKET"

	EnvMaxUploadMB = "GATEPASS_MAX_UPLOAD_MB"

	EnvNotificationsDelivery = "GATEPASS_NOTIFICATIONS_DELIVERY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
