package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	OAuth         OAuthConfig
	Mailgun       MailgunConfig
	Tokens        TokensConfig
	FeatureFlags  FeatureFlagsConfig
	Cron          CronConfig
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
	Env          string `envconfig:"RENTWISE_APP_ENV" required:"true"`
	Port         string `envconfig:"RENTWISE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RENTWISE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RENTWISE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"RENTWISE_LOG_FORMAT" default:"json"`
	FrontendURL  string `envconfig:"RENTWISE_FRONTEND_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// LogConsole reports whether logs should be human readable instead of JSON.
func (a AppConfig) LogConsole() bool {
	return strings.EqualFold(strings.TrimSpace(a.LogFormat), "console")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"RENTWISE_DB_DSN"`

	Host     string `envconfig:"RENTWISE_DB_HOST"`
	Port     int    `envconfig:"RENTWISE_DB_PORT" default:"5432"`
	User     string `envconfig:"RENTWISE_DB_USER"`
	Password string `envconfig:"RENTWISE_DB_PASSWORD"`
	Name     string `envconfig:"RENTWISE_DB_NAME"`
	SSLMode  string `envconfig:"RENTWISE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RENTWISE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RENTWISE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RENTWISE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RENTWISE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this as warnings; 0 disables.
	SlowQueryThreshold time.Duration `envconfig:"RENTWISE_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RENTWISE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RENTWISE_REDIS_ADDR"`
	Password     string        `envconfig:"RENTWISE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RENTWISE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RENTWISE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RENTWISE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RENTWISE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RENTWISE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RENTWISE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"RENTWISE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"RENTWISE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"RENTWISE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"RENTWISE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	BcryptCost int `envconfig:"RENTWISE_BCRYPT_COST" default:"12"`
	MinLength  int `envconfig:"RENTWISE_PASSWORD_MIN_LENGTH" default:"8"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"RENTWISE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"RENTWISE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"RENTWISE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"RENTWISE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"RENTWISE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RENTWISE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ResetWindow        time.Duration `envconfig:"RENTWISE_AUTH_RATE_LIMIT_RESET_WINDOW" default:"15m"`
	ResetEmailLimit    int           `envconfig:"RENTWISE_AUTH_RATE_LIMIT_RESET_EMAIL_LIMIT" default:"3"`
	ResetIPLimit       int           `envconfig:"RENTWISE_AUTH_RATE_LIMIT_RESET_IP_LIMIT" default:"10"`
}

type RateLimitConfig struct {
	Requests int           `envconfig:"RENTWISE_RATE_LIMIT_REQUESTS" default:"300"`
	Window   time.Duration `envconfig:"RENTWISE_RATE_LIMIT_WINDOW" default:"1m"`
}

type CORSConfig struct {
	AllowedOrigins string `envconfig:"RENTWISE_CORS_ORIGIN" default:"http://localhost:3000"`
}

// Origins splits the comma separated origin list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, part := range strings.Split(c.AllowedOrigins, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

type OAuthConfig struct {
	GoogleClientID     string        `envconfig:"RENTWISE_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `envconfig:"RENTWISE_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string        `envconfig:"RENTWISE_GOOGLE_REDIRECT_URL"`
	GitHubClientID     string        `envconfig:"RENTWISE_GITHUB_CLIENT_ID"`
	GitHubClientSecret string        `envconfig:"RENTWISE_GITHUB_CLIENT_SECRET"`
	GitHubRedirectURL  string        `envconfig:"RENTWISE_GITHUB_REDIRECT_URL"`
	StateSecret        string        `envconfig:"RENTWISE_OAUTH_STATE_SECRET"`
	StateTTL           time.Duration `envconfig:"RENTWISE_OAUTH_STATE_TTL" default:"10m"`
	SuccessRedirectURL string        `envconfig:"RENTWISE_OAUTH_SUCCESS_REDIRECT_URL"`
}

// StateKey returns the secret used to sign OAuth state tokens.
func (o OAuthConfig) StateKey(jwt JWTConfig) string {
	if o.StateSecret != "" {
		return o.StateSecret
	}
	return jwt.Secret
}

type MailgunConfig struct {
	Domain           string        `envconfig:"RENTWISE_MAILGUN_DOMAIN"`
	APIKey           string        `envconfig:"RENTWISE_MAILGUN_API_KEY"`
	From             string        `envconfig:"RENTWISE_MAILGUN_FROM" default:"Rentwise <no-reply@rentwise.local>"`
	EU               bool          `envconfig:"RENTWISE_MAILGUN_EU" default:"false"`
	Timeout          time.Duration `envconfig:"RENTWISE_MAILGUN_TIMEOUT" default:"10s"`
	BreakerFailures  uint32        `envconfig:"RENTWISE_MAILGUN_BREAKER_FAILURES" default:"5"`
	BreakerOpenDelay time.Duration `envconfig:"RENTWISE_MAILGUN_BREAKER_OPEN" default:"30s"`
}

// Enabled reports whether outbound mail is configured.
func (m MailgunConfig) Enabled() bool {
	return m.Domain != "" && m.APIKey != ""
}

type TokensConfig struct {
	InviteTTL time.Duration `envconfig:"RENTWISE_INVITE_TOKEN_TTL" default:"168h"`
	ResetTTL  time.Duration `envconfig:"RENTWISE_RESET_TOKEN_TTL" default:"1h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RENTWISE_AUTO_MIGRATE" default:"false"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"RENTWISE_CRON_INTERVAL" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
