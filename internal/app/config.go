package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (RESUMEDESK_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (RESUMEDESK_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	// BaseURL is the public origin, used in checkout return URLs and email
	// links.
	BaseURL         string `default:"http://localhost:8080" usage:"Public base URL of the site" flag:"base-url"`
	UploadDir       string `default:"uploads" usage:"Directory for customer document uploads" flag:"upload-dir"`
	StripeSecretKey string `usage:"Stripe API secret key; empty disables online payment" flag:"stripe-secret-key"`
	AdminEmail      string `default:"admin@resumedesk.example" usage:"Recipient for admin notification emails" flag:"admin-email"`
	SessionSecret   string `usage:"HMAC secret for admin session cookies" flag:"session-secret"`
	SMTP            SMTPConfig
	RateLimit       RateLimitConfig
	CORS            CORSConfig
	Graceful        GracefulConfig
}

// SMTPConfig controls the transactional email transport. An empty host
// disables sending; emails are then logged and dropped.
type SMTPConfig struct {
	Host     string `usage:"SMTP server host; empty disables email" flag:"smtp-host"`
	Port     int    `default:"587" usage:"SMTP server port" flag:"smtp-port"`
	Username string `usage:"SMTP username" flag:"smtp-username"`
	Password string `usage:"SMTP password" flag:"smtp-password"`
	From     string `default:"noreply@resumedesk.example" usage:"From address for outgoing email" flag:"smtp-from"`
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "RESUMEDESK",
		Files:     []string{"config.yaml", "/etc/resumedesk/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set RESUMEDESK_DATABASE_URL or DATABASE_URL")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret is required: set RESUMEDESK_SESSION_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's RESUMEDESK_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.StripeSecretKey == "" {
		if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
			c.StripeSecretKey = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
