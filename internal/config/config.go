package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything read from the environment at process start.
type Config struct {
	Port   string
	AppEnv string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	RedisAddr   string
	KafkaBroker string

	JWTSecret string
	JWTIssuer string

	AdminEmails []string
	AdminIDs    []string

	DefaultAnnual int
	DefaultSick   int
	DefaultCasual int

	ServerLocation  *time.Location
	StoreTimeout    time.Duration
	IdentityTimeout time.Duration

	CORSAllowedOrigins []string
	OutboxPollInterval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "go_leave")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("KAFKA_BROKER", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("ADMIN_IDS", "")
	v.SetDefault("DEFAULT_ANNUAL", 12)
	v.SetDefault("DEFAULT_SICK", 10)
	v.SetDefault("DEFAULT_CASUAL", 8)
	v.SetDefault("SERVER_TIMEZONE", "Local")
	v.SetDefault("STORE_TIMEOUT", "3s")
	v.SetDefault("IDENTITY_TIMEOUT", "2s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("OUTBOX_POLL_INTERVAL", "3s")
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	loc, err := time.LoadLocation(v.GetString("SERVER_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_TIMEZONE: %w", err)
	}

	storeTimeout, err := time.ParseDuration(v.GetString("STORE_TIMEOUT"))
	if err != nil || storeTimeout <= 0 {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT %q", v.GetString("STORE_TIMEOUT"))
	}
	identityTimeout, err := time.ParseDuration(v.GetString("IDENTITY_TIMEOUT"))
	if err != nil || identityTimeout <= 0 {
		return nil, fmt.Errorf("invalid IDENTITY_TIMEOUT %q", v.GetString("IDENTITY_TIMEOUT"))
	}
	pollInterval, err := time.ParseDuration(v.GetString("OUTBOX_POLL_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_INTERVAL: %w", err)
	}

	cfg := &Config{
		Port:               v.GetString("PORT"),
		AppEnv:             v.GetString("APP_ENV"),
		DBHost:             v.GetString("DB_HOST"),
		DBUser:             v.GetString("DB_USER"),
		DBPassword:         v.GetString("DB_PASSWORD"),
		DBName:             v.GetString("DB_NAME"),
		DBPort:             v.GetString("DB_PORT"),
		DBSSLMode:          v.GetString("DB_SSLMODE"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		KafkaBroker:        v.GetString("KAFKA_BROKER"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		AdminEmails:        splitList(v.GetString("ADMIN_EMAILS")),
		AdminIDs:           splitList(v.GetString("ADMIN_IDS")),
		DefaultAnnual:      v.GetInt("DEFAULT_ANNUAL"),
		DefaultSick:        v.GetInt("DEFAULT_SICK"),
		DefaultCasual:      v.GetInt("DEFAULT_CASUAL"),
		ServerLocation:     loc,
		StoreTimeout:       storeTimeout,
		IdentityTimeout:    identityTimeout,
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		OutboxPollInterval: pollInterval,
	}

	if cfg.DefaultAnnual < 0 || cfg.DefaultSick < 0 || cfg.DefaultCasual < 0 {
		return nil, fmt.Errorf("default balance values must not be negative")
	}

	return cfg, nil
}

// Validate checks the settings the API process cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.AdminEmails) == 0 && len(c.AdminIDs) == 0 {
		return fmt.Errorf("at least one of ADMIN_EMAILS or ADMIN_IDS is required")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
