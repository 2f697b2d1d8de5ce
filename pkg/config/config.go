package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Lifecycle     LifecycleConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Storage       StorageConfig
	Media         MediaConfig
	QR            QRConfig
	Notifications NotificationsConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if cfg.DB.Driver != DBDriverSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c Config) Validate() error {
	var err error
	if _, locErr := c.Lifecycle.Location(); locErr != nil {
		err = multierr.Append(err, locErr)
	}
	if c.Lifecycle.AllocationMaxAttempts < 1 {
		err = multierr.Append(err, fmt.Errorf("%s must be at least 1", EnvAllocationMaxAttempts))
	}
	if strings.TrimSpace(c.Lifecycle.NumberPrefix) == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required", EnvNumberPrefix))
	}
	switch c.Storage.Backend {
	case StorageBackendLocal:
		if strings.TrimSpace(c.Storage.LocalRoot) == "" {
			err = multierr.Append(err, fmt.Errorf("%s is required for local storage", EnvStorageLocalRoot))
		}
	case StorageBackendS3:
		if strings.TrimSpace(c.Storage.S3Bucket) == "" {
			err = multierr.Append(err, fmt.Errorf("%s is required for s3 storage", EnvStorageS3Bucket))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unsupported %s %q", EnvStorageBackend, c.Storage.Backend))
	}
	switch c.Notifications.Delivery {
	case NotificationDeliveryOutbox, NotificationDeliveryDirect:
	default:
		err = multierr.Append(err, fmt.Errorf("unsupported %s %q", EnvNotificationsDelivery, c.Notifications.Delivery))
	}
	if c.Media.MaxUploadMB <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvMaxUploadMB))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"GATEPASS_APP_ENV" required:"true"`
	Port         string `envconfig:"GATEPASS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GATEPASS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GATEPASS_LOG_WARN_STACK" default:"false"`
	DefaultActor string `envconfig:"GATEPASS_DEFAULT_ACTOR" default:"system"`
	CORSOrigins  string `envconfig:"GATEPASS_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"GATEPASS_SERVICE_KIND" default:"api"`
}

// DBDriverSQLite selects the embedded database used in dev and tests.
const DBDriverSQLite = "sqlite"

type DBConfig struct {
	DSN    string `envconfig:"GATEPASS_DB_DSN"`
	Driver string `envconfig:"GATEPASS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GATEPASS_DB_HOST"`
	LegacyPort     int    `envconfig:"GATEPASS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GATEPASS_DB_USER"`
	LegacyPassword string `envconfig:"GATEPASS_DB_PASSWORD"`
	LegacyName     string `envconfig:"GATEPASS_DB_NAME"`
	LegacySSLMode  string `envconfig:"GATEPASS_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"GATEPASS_DB_SQLITE_PATH" default:"gatepass.db"`

	MaxOpenConns    int           `envconfig:"GATEPASS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GATEPASS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GATEPASS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GATEPASS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GATEPASS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GATEPASS_REDIS_ADDR"`
	Password     string        `envconfig:"GATEPASS_REDIS_PASSWORD"`
	DB           int           `envconfig:"GATEPASS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GATEPASS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GATEPASS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GATEPASS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GATEPASS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GATEPASS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type RateLimitConfig struct {
	ScanWindow time.Duration `envconfig:"GATEPASS_RATE_LIMIT_SCAN_WINDOW" default:"1m"`
	ScanLimit  int           `envconfig:"GATEPASS_RATE_LIMIT_SCAN_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GATEPASS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GATEPASS_AUTO_MIGRATE" default:"false"`
}

// LifecycleConfig drives pass number allocation.
type LifecycleConfig struct {
	NumberPrefix          string `envconfig:"GATEPASS_NUMBER_PREFIX" default:"GP"`
	TimeZone              string `envconfig:"GATEPASS_TIME_ZONE" default:"UTC"`
	AllocationMaxAttempts int    `envconfig:"GATEPASS_ALLOCATION_MAX_ATTEMPTS" default:"5"`
}

// Location resolves the time zone used to derive the pass number year.
func (l LifecycleConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(l.TimeZone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvTimeZone, l.TimeZone, err)
	}
	return loc, nil
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"GATEPASS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GATEPASS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GATEPASS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GATEPASS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"GATEPASS_PUBSUB_NOTIFICATION_TOPIC" default:"gp-notification-events"`
	NotificationSubscription string `envconfig:"GATEPASS_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"gp-notification-worker"`
}

const (
	StorageBackendLocal = "local"
	StorageBackendS3    = "s3"
)

type StorageConfig struct {
	Backend      string `envconfig:"GATEPASS_STORAGE_BACKEND" default:"local"`
	LocalRoot    string `envconfig:"GATEPASS_STORAGE_LOCAL_ROOT" default:"media"`
	S3Bucket     string `envconfig:"GATEPASS_STORAGE_S3_BUCKET"`
	S3Region     string `envconfig:"GATEPASS_STORAGE_S3_REGION" default:"us-east-1"`
	S3Endpoint   string `envconfig:"GATEPASS_STORAGE_S3_ENDPOINT"`
	S3AccessKey  string `envconfig:"GATEPASS_STORAGE_S3_ACCESS_KEY"`
	S3SecretKey  string `envconfig:"GATEPASS_STORAGE_S3_SECRET_KEY"`
	S3PathStyle  bool   `envconfig:"GATEPASS_STORAGE_S3_PATH_STYLE" default:"false"`
	S3KeyPrefix  string `envconfig:"GATEPASS_STORAGE_S3_KEY_PREFIX"`
	EnsureBucket bool   `envconfig:"GATEPASS_STORAGE_S3_ENSURE_BUCKET" default:"false"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"GATEPASS_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured upload ceiling into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	return int64(m.MaxUploadMB) << 20
}

type QRConfig struct {
	SizePx  int    `envconfig:"GATEPASS_QR_SIZE_PX" default:"256"`
	BaseURL string `envconfig:"GATEPASS_QR_BASE_URL" default:"/api/v1/qr"`
}

const (
	NotificationDeliveryOutbox = "outbox"
	NotificationDeliveryDirect = "direct"
)

type NotificationsConfig struct {
	Delivery       string        `envconfig:"GATEPASS_NOTIFICATIONS_DELIVERY" default:"outbox"`
	WebhookURL     string        `envconfig:"GATEPASS_NOTIFICATIONS_WEBHOOK_URL"`
	WebhookToken   string        `envconfig:"GATEPASS_NOTIFICATIONS_WEBHOOK_TOKEN"`
	WebhookTimeout time.Duration `envconfig:"GATEPASS_NOTIFICATIONS_WEBHOOK_TIMEOUT" default:"10s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GATEPASS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GATEPASS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GATEPASS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval                  time.Duration `envconfig:"GATEPASS_CRON_INTERVAL" default:"24h"`
	LockTTL                   time.Duration `envconfig:"GATEPASS_CRON_LOCK_TTL" default:"30m"`
	NotificationRetentionDays int           `envconfig:"GATEPASS_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
	OutboxRetentionDays       int           `envconfig:"GATEPASS_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
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
