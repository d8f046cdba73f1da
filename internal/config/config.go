package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"3000"`
	AppEnv  string `env:"APP_ENV"  envDefault:"development"`

	JWTSecret       string        `env:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`
	CookieSecure    bool          `env:"COOKIE_SECURE"     envDefault:"true"`
	VerificationTTL time.Duration `env:"VERIFICATION_TTL"  envDefault:"5m"`

	AWSRegion      string `env:"AWS_REGION"            envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	Redis Redis

	SMTPHost     string `env:"SMTP_HOST"     envDefault:"localhost"`
	SMTPPort     string `env:"SMTP_PORT"     envDefault:"1025"`
	SMTPFrom     string `env:"SMTP_FROM"     envDefault:"noreply@example.com"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-Ip.
	// Enable only when every request arrives through a proxy that sets them.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	GoogleClientID string   `env:"GOOGLE_CLIENT_ID"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Members      string `env:"DYNAMO_TABLE_MEMBERS"       envDefault:"members"`
	MemberEmails string `env:"DYNAMO_TABLE_MEMBER_EMAILS" envDefault:"member_emails"`
}

// Redis holds connection settings for the verification code store.
type Redis struct {
	Addr        string        `env:"REDIS_ADDR"         envDefault:"localhost:6379"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB"           envDefault:"0"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.VerificationTTL <= 0 {
		return errors.New("VERIFICATION_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// SecureCookies reports whether cookies carry the Secure attribute. Production
// always does, whatever COOKIE_SECURE says.
func (c *Config) SecureCookies() bool { return c.CookieSecure || c.IsProduction() }
