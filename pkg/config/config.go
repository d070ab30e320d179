package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Webhook      WebhookConfig
	PSP          PSPConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TAPSNAP_APP_ENV" required:"true"`
	Port         string `envconfig:"TAPSNAP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TAPSNAP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TAPSNAP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TAPSNAP_DB_DSN"`
	Driver string `envconfig:"TAPSNAP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TAPSNAP_DB_HOST"`
	LegacyPort     int    `envconfig:"TAPSNAP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TAPSNAP_DB_USER"`
	LegacyPassword string `envconfig:"TAPSNAP_DB_PASSWORD"`
	LegacyName     string `envconfig:"TAPSNAP_DB_NAME"`
	LegacySSLMode  string `envconfig:"TAPSNAP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TAPSNAP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TAPSNAP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TAPSNAP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TAPSNAP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TAPSNAP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TAPSNAP_REDIS_ADDR"`
	Password     string        `envconfig:"TAPSNAP_REDIS_PASSWORD"`
	DB           int           `envconfig:"TAPSNAP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TAPSNAP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TAPSNAP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TAPSNAP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TAPSNAP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TAPSNAP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WebhookConfig carries the inbound notification credentials. The signing
// secret is deliberately optional here: the verifier fails closed when it is
// empty.
type WebhookConfig struct {
	BasicUser       string        `envconfig:"TAPSNAP_WEBHOOK_USER"`
	BasicPass       string        `envconfig:"TAPSNAP_WEBHOOK_PASS"`
	SigningSecret   string        `envconfig:"TAPSNAP_WEBHOOK_SIGNING_SECRET"`
	RateLimitWindow time.Duration `envconfig:"TAPSNAP_WEBHOOK_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitMax    int           `envconfig:"TAPSNAP_WEBHOOK_RATE_LIMIT_MAX" default:"120"`
}

type PSPConfig struct {
	Provider        string `envconfig:"TAPSNAP_PSP_PROVIDER" default:"adyen"`
	MerchantAccount string `envconfig:"TAPSNAP_PSP_MERCHANT_ACCOUNT"`
	APIKey          string `envconfig:"TAPSNAP_PSP_API_KEY"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TAPSNAP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TAPSNAP_AUTO_MIGRATE" default:"false"`
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
