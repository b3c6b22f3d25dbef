// Package config defines the process configuration for the outage notification
// service. Configuration is loaded once at startup and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or invalid format fails startup.
package config

import (
	"time"
)

// Config is the top-level configuration struct. Sub-components receive only
// the subset they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"outagealert"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Email         EmailConfig
	SMS           SMSConfig
	WhatsApp      WhatsAppConfig
	Push          PushConfig
	Dispatch      DispatchConfig
	Scheduler     SchedulerConfig
	Redis         RedisConfig
	Observability ObservabilityConfig

	// Injected via ldflags, not Env
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"20s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2" validate:"min=0"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds regional configuration shared by the SES, SNS, SSM and
// CloudWatch clients.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack support. Empty in prod.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// EmailConfig selects and configures the email transport.
type EmailConfig struct {
	Provider      string `envconfig:"EMAIL_PROVIDER" default:"stub" validate:"oneof=ses stub"`
	FromAddress   string `envconfig:"EMAIL_FROM_ADDRESS" default:"alerts@outagealert.lk" validate:"email"`
	FromName      string `envconfig:"EMAIL_FROM_NAME" default:"Outage Alerts"`
	ConfigSetName string `envconfig:"SES_CONFIGURATION_SET"`
}

// SMSConfig configures SNS-backed SMS. When disabled every SMS send fails
// with "transport not configured".
type SMSConfig struct {
	Enabled  bool   `envconfig:"SMS_ENABLED" default:"false"`
	SenderID string `envconfig:"SMS_SENDER_ID" default:"OUTAGE" validate:"max=11"`
}

// WhatsAppConfig configures the WhatsApp Cloud API transport. An empty
// PhoneNumberID leaves the channel unconfigured.
type WhatsAppConfig struct {
	APIURL        string        `envconfig:"WHATSAPP_API_URL" default:"https://graph.facebook.com/v19.0" validate:"url"`
	PhoneNumberID string        `envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	AccessToken   SecretString  `envconfig:"WHATSAPP_ACCESS_TOKEN"`
	Timeout       time.Duration `envconfig:"WHATSAPP_TIMEOUT" default:"10s"`
}

// Configured reports whether enough settings are present to send.
func (c WhatsAppConfig) Configured() bool {
	return c.PhoneNumberID != "" && c.AccessToken.Unmask() != ""
}

// PushConfig configures SNS mobile push.
type PushConfig struct {
	Enabled bool `envconfig:"PUSH_ENABLED" default:"false"`
}

// DispatchConfig bounds individual channel sends.
type DispatchConfig struct {
	SendTimeout time.Duration `envconfig:"DISPATCH_SEND_TIMEOUT" default:"5s" validate:"gt=0"`
}

// SchedulerConfig holds the periodic job tuning parameters.
type SchedulerConfig struct {
	AdvanceInterval      time.Duration `envconfig:"ADVANCE_NOTICE_INTERVAL" default:"1h" validate:"gt=0"`
	AdvanceWindow        time.Duration `envconfig:"ADVANCE_NOTICE_WINDOW" default:"48h" validate:"gt=0"`
	AdvanceTolerance     time.Duration `envconfig:"ADVANCE_NOTICE_TOLERANCE" default:"5m"`
	DefaultLeadTime      time.Duration `envconfig:"DEFAULT_ADVANCE_LEAD" default:"24h"`
	DefaultLeadTolerance time.Duration `envconfig:"DEFAULT_ADVANCE_TOLERANCE" default:"1h"`

	RetryInterval    time.Duration `envconfig:"RETRY_INTERVAL" default:"300s" validate:"gt=0"`
	RetryDelay       time.Duration `envconfig:"RETRY_DELAY" default:"300s"`
	MaxRetryAttempts int           `envconfig:"MAX_RETRY_ATTEMPTS" default:"3" validate:"min=0"`
	RetryBatchSize   int           `envconfig:"RETRY_BATCH_SIZE" default:"100" validate:"min=1"`

	LockTTL time.Duration `envconfig:"JOB_LOCK_TTL" default:"10m"`
}

// RedisConfig configures the distributed job lock. An empty Addr disables
// locking.
type RedisConfig struct {
	Addr     string       `envconfig:"REDIS_ADDR"`
	Password SecretString `envconfig:"REDIS_PASSWORD"`
	DB       int          `envconfig:"REDIS_DB" default:"0"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricsBackend  string `envconfig:"METRICS_BACKEND" default:"prometheus" validate:"oneof=cloudwatch prometheus none"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"OutageAlert"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	ErrMissingEnv    ConfigErrorType = "MISSING_ENV"
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	ErrValidation    ConfigErrorType = "VALIDATION_FAILED"
	ErrParsing       ConfigErrorType = "PARSING_FAILED"
)
