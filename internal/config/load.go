package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NATOURS"

// Default locations of the optional configuration files.
const (
	DefaultEnvFile  = "config.env"
	DefaultYAMLFile = "config.yaml"
)

// Load configuration from environment variables and optionally config files.
// Variables from config.env are added to the environment without overriding
// ones already set; environment variables take precedence over config.yaml.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom(DefaultEnvFile, DefaultYAMLFile)
}

// LoadFrom is Load with explicit file locations. Empty or missing paths are
// skipped.
func LoadFrom(envFile, yamlFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if yamlFile != "" {
		if _, err := os.Stat(yamlFile); err == nil {
			v.SetConfigFile(yamlFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", yamlFile, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterStructValidation(validateConfig, Config{})
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validateConfig checks rules spanning several sections. The log mail
// provider writes reset links, tokens included, to the application log and
// is refused in production.
func validateConfig(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Server.IsProduction() && cfg.Mail.Provider == "log" {
		sl.ReportError(cfg.Mail.Provider, "Mail.Provider", "Provider", "log_provider_in_production", "")
	}
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.url", "")
	v.SetDefault("database.name", "natours")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 90*24*60)
	v.SetDefault("auth.cookie_lifetime_days", 90)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.reset_token_lifetime_minutes", 10)

	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.from", "hello@natours.io")
	v.SetDefault("mail.from_name", "Natours")
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")
	v.SetDefault("mail.sendgrid.api_key", "")
	v.SetDefault("mail.mailgun.domain", "")
	v.SetDefault("mail.mailgun.api_key", "")

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1h")
}
