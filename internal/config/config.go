package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	JWTIssuer         string        `mapstructure:"JWT_ISSUER"`
	TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	MaxReportBytes    int           `mapstructure:"MAX_REPORT_BYTES"`
	MedicationResetAt string        `mapstructure:"MEDICATION_RESET_AT"`
	SOSCountdown      time.Duration `mapstructure:"SOS_COUNTDOWN"`
}

const devJWTSecret = "swasthya-setu-dev-secret"

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("JWT_ISSUER", "swasthya-setu")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("MAX_REPORT_BYTES", 10<<20)
	v.SetDefault("MEDICATION_RESET_AT", "00:00")
	v.SetDefault("SOS_COUNTDOWN", "5s")

	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"CORS_ORIGINS", "JWT_SECRET", "JWT_ISSUER", "TOKEN_TTL",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "MAX_REPORT_BYTES",
		"MEDICATION_RESET_AT", "SOS_COUNTDOWN",
	} {
		_ = v.BindEnv(key)
	}

	// A missing .env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = splitList(origins)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a real JWT secret of at least 32 bytes is required.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("ENV must be \"development\", \"production\" or \"test\", got %q", c.Env)
	}
	if !c.IsDev() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
		}
		if c.JWTSecret == devJWTSecret {
			return fmt.Errorf("JWT_SECRET must not use the development default")
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxReportBytes <= 0 {
		return fmt.Errorf("MAX_REPORT_BYTES must be positive")
	}
	if c.SOSCountdown < time.Second {
		return fmt.Errorf("SOS_COUNTDOWN must be at least 1s, got %s", c.SOSCountdown)
	}
	if _, err := time.Parse("15:04", c.MedicationResetAt); err != nil {
		return fmt.Errorf("MEDICATION_RESET_AT must be HH:MM: %w", err)
	}
	return nil
}
