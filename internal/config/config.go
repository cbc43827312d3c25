package config

import "time"

// Config holds all application configuration.
// It is built once at startup and passed explicitly to the components that
// need it.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	Mail      MailConfig      `mapstructure:"mail"       validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
}

// Server environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port        int    `mapstructure:"port"        validate:"required,gt=0,lt=65536"`
	LogLevel    string `mapstructure:"log_level"   validate:"required,oneof=debug info warn error"`
	Environment string `mapstructure:"environment" validate:"required,oneof=development production"`
	// TrustProxy takes the client address from X-Forwarded-For or X-Real-IP.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == EnvProduction
}

// Database drivers.
const (
	DriverMongo    = "mongodb"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and addresses the document store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=mongodb postgres"`
	URL    string `mapstructure:"url"    validate:"required,url"`
	// Name is the MongoDB database name.
	Name string `mapstructure:"name" validate:"required_if=Driver mongodb"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                 string `mapstructure:"jwt_secret"                   validate:"required,min=32"`
	TokenLifetimeMinutes      int    `mapstructure:"token_lifetime_minutes"       validate:"required,gt=0"`
	CookieLifetimeDays        int    `mapstructure:"cookie_lifetime_days"         validate:"required,gt=0"`
	BcryptCost                int    `mapstructure:"bcrypt_cost"                  validate:"required,gte=4,lte=31"`
	ResetTokenLifetimeMinutes int    `mapstructure:"reset_token_lifetime_minutes" validate:"required,gt=0"`
}

// TokenLifetime is the validity period of issued access tokens.
func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeMinutes) * time.Minute
}

// CookieLifetime is the expiry of the token cookie.
func (a AuthConfig) CookieLifetime() time.Duration {
	return time.Duration(a.CookieLifetimeDays) * 24 * time.Hour
}

// ResetTokenLifetime is the validity period of password reset tokens.
func (a AuthConfig) ResetTokenLifetime() time.Duration {
	return time.Duration(a.ResetTokenLifetimeMinutes) * time.Minute
}

// MailConfig selects the outbound mail provider. Provider specific settings
// are checked when the sender is built.
type MailConfig struct {
	Provider string         `mapstructure:"provider"  validate:"required,oneof=log smtp sendgrid mailgun"`
	From     string         `mapstructure:"from"      validate:"required,email"`
	FromName string         `mapstructure:"from_name"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	SendGrid SendGridConfig `mapstructure:"sendgrid"`
	Mailgun  MailgunConfig  `mapstructure:"mailgun"`
}

// SMTPConfig holds credentials for a plain SMTP relay.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SendGridConfig holds the SendGrid API key.
type SendGridConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// MailgunConfig holds the Mailgun sending domain and key.
type MailgunConfig struct {
	Domain string `mapstructure:"domain"`
	APIKey string `mapstructure:"api_key"`
}

// RateLimitConfig bounds requests per client IP on the API routes.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests" validate:"required,gt=0"`
	Window   time.Duration `mapstructure:"window"   validate:"required,gt=0"`
}
