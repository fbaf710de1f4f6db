package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Email        EmailConfig
	Reminder     ReminderConfig
	Metrics      MetricsConfig
}

// Load reads the process environment, fills derived values and validates the
// result. Validation errors name the offending environment variable.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.normalize()
	if err := cfg.DB.resolveDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the constraints declared on each section.
func (c *Config) Validate() error {
	err := configValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeConstraint(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

func (c *Config) normalize() {
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	c.Email.Driver = c.Email.NormalizedDriver()
	c.Email.SNSTopicARN = strings.TrimSpace(c.Email.SNSTopicARN)
	c.Email.SESFrom = strings.TrimSpace(c.Email.SESFrom)
}

type AppConfig struct {
	Env          string   `envconfig:"APEXEV_APP_ENV" required:"true"`
	Port         string   `envconfig:"APEXEV_APP_PORT" default:"8080" validate:"required,numeric"`
	LogLevel     string   `envconfig:"APEXEV_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"APEXEV_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"APEXEV_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ServiceConfig names the running binary; each cmd sets Kind before logging.
type ServiceConfig struct {
	Kind string `envconfig:"APEXEV_SERVICE_KIND" default:"api"`
}

// DBConfig accepts either a full DSN or the discrete host/user/name variables.
type DBConfig struct {
	DSN    string `envconfig:"APEXEV_DB_DSN" validate:"required"`
	Driver string `envconfig:"APEXEV_DB_DRIVER" default:"postgres" validate:"oneof=postgres sqlite"`

	Host     string `envconfig:"APEXEV_DB_HOST"`
	Port     int    `envconfig:"APEXEV_DB_PORT" default:"5432"`
	User     string `envconfig:"APEXEV_DB_USER"`
	Password string `envconfig:"APEXEV_DB_PASSWORD"`
	Name     string `envconfig:"APEXEV_DB_NAME"`
	SSLMode  string `envconfig:"APEXEV_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"APEXEV_DB_MAX_OPEN_CONNS" default:"20" validate:"gte=0"`
	MaxIdleConns    int           `envconfig:"APEXEV_DB_MAX_IDLE_CONNS" default:"10" validate:"gte=0"`
	ConnMaxLifetime time.Duration `envconfig:"APEXEV_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"APEXEV_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	ConnectAttempts    int           `envconfig:"APEXEV_DB_CONNECT_ATTEMPTS" default:"5" validate:"gte=1"`
	ConnectBackoff     time.Duration `envconfig:"APEXEV_DB_CONNECT_BACKOFF" default:"1s"`
	SlowQueryThreshold time.Duration `envconfig:"APEXEV_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

// IsSQLite reports whether the store is an embedded sqlite file (local development only).
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"APEXEV_REDIS_URL" required:"true"`
	Password     string        `envconfig:"APEXEV_REDIS_PASSWORD"`
	DB           int           `envconfig:"APEXEV_REDIS_DB" default:"0" validate:"gte=0"`
	PoolSize     int           `envconfig:"APEXEV_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"APEXEV_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"APEXEV_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"APEXEV_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"APEXEV_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"APEXEV_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"APEXEV_JWT_ISSUER" default:"apexev" validate:"required"`
	ExpirationMinutes int    `envconfig:"APEXEV_JWT_EXPIRATION_MINUTES" default:"1440" validate:"gt=0"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"APEXEV_AUTO_MIGRATE" default:"false"`
}

type EmailConfig struct {
	Driver       string        `envconfig:"APEXEV_EMAIL_DRIVER" default:"log" validate:"oneof=log sns ses"`
	AWSRegion    string        `envconfig:"APEXEV_AWS_REGION" default:"ap-southeast-1" validate:"required_unless=Driver log"`
	SNSTopicARN  string        `envconfig:"APEXEV_SNS_EMAIL_TOPIC_ARN" validate:"required_if=Driver sns"`
	SESFrom      string        `envconfig:"APEXEV_SES_FROM_EMAIL" validate:"required_if=Driver ses,omitempty,email"`
	SendTimeout  time.Duration `envconfig:"APEXEV_EMAIL_SEND_TIMEOUT" default:"10s" validate:"gt=0"`
	MaxAttempts  int           `envconfig:"APEXEV_EMAIL_MAX_ATTEMPTS" default:"3" validate:"gte=1"`
	RetryBackoff time.Duration `envconfig:"APEXEV_EMAIL_RETRY_BACKOFF" default:"500ms"`
}

const deliveryBudgetSlack = time.Second

// DeliveryBudget is the longest a retried send can take: every attempt runs
// to its timeout and the exponential backoff waits in between.
func (e EmailConfig) DeliveryBudget() time.Duration {
	attempts := max(e.MaxAttempts, 1)
	budget := time.Duration(attempts) * e.SendTimeout
	wait := e.RetryBackoff
	for i := 1; i < attempts; i++ {
		budget += wait
		wait *= 2
	}
	return budget + deliveryBudgetSlack
}

// NormalizedDriver returns the lower-cased driver name, defaulting to log.
func (e EmailConfig) NormalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(e.Driver))
	if driver == "" {
		return EmailDriverLog
	}
	return driver
}

type ReminderConfig struct {
	Interval  time.Duration `envconfig:"APEXEV_REMINDER_INTERVAL" default:"1h" validate:"gte=1m"`
	Lookahead time.Duration `envconfig:"APEXEV_REMINDER_LOOKAHEAD" default:"24h" validate:"gt=0"`
	Timezone  string        `envconfig:"APEXEV_REMINDER_TIMEZONE" default:"Asia/Ho_Chi_Minh"`
	LockTTL   time.Duration `envconfig:"APEXEV_REMINDER_LOCK_TTL" default:"55m" validate:"gt=0,ltfield=Interval"`
	// zero derives the timeout from the email retry settings
	DispatchTimeout time.Duration `envconfig:"APEXEV_REMINDER_DISPATCH_TIMEOUT" validate:"gte=0"`
}

// ReminderDispatchTimeout bounds the delivery of a single reminder.
func (c *Config) ReminderDispatchTimeout() time.Duration {
	if c.Reminder.DispatchTimeout > 0 {
		return c.Reminder.DispatchTimeout
	}
	return c.Email.DeliveryBudget()
}

// Location resolves the display time zone used when formatting reminder dates.
func (r ReminderConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(r.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading %s %q: %w", EnvReminderTimezone, name, err)
	}
	return loc, nil
}

type MetricsConfig struct {
	Addr string `envconfig:"APEXEV_METRICS_ADDR" default:":9090" validate:"required"`
}

func (db *DBConfig) resolveDSN() error {
	if db.DSN != "" || db.IsSQLite() {
		return nil
	}

	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.User(db.User),
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = u.String()
	return nil
}

func configValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("envconfig")
	})
	return v
}

func describeConstraint(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Sprintf("%s is required", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value())
	case "ltfield":
		return fmt.Sprintf("%s must be shorter than %s", name, fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s (got %v)", name, fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Sprintf("%s failed %s (got %v)", name, fe.Tag(), fe.Value())
	}
}
