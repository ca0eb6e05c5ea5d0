// Package config handles application configuration and the feeds file.
package config

import (
	"fmt"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
)

// Config holds the application configuration. Values come from environment
// variables (prefix FM_) and an optional HCL file.
type Config struct {
	DatabasePath string        `hcl:"database_path" env:"DATABASE_PATH" default:"./data/feedmailer.db"`
	FeedsPath    string        `hcl:"feeds_path" env:"FEEDS_PATH" default:"./feeds.yml"`
	LogLevel     string        `hcl:"log_level" env:"LOG_LEVEL" default:"info"`
	Tick         time.Duration `hcl:"tick" env:"TICK" default:"1m"`
	Listen       string        `hcl:"listen" env:"LISTEN"`
	Timezone     string        `hcl:"timezone" env:"TIMEZONE" default:"UTC"`

	SMTPHost     string `hcl:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     int    `hcl:"smtp_port" env:"SMTP_PORT" default:"587"`
	SMTPUser     string `hcl:"smtp_user" env:"SMTP_USER"`
	SMTPPassword string `hcl:"smtp_password" env:"SMTP_PASSWORD"`
	MailFrom     string `hcl:"mail_from" env:"MAIL_FROM"`
	MailTo       string `hcl:"mail_to" env:"MAIL_TO"`
}

// Load reads configuration from the environment and, when present,
// ./feedmailer.hcl or ./feedmailer.local.hcl.
func Load() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:          "FM",
		SkipFlags:          true,
		AllowUnknownFields: true,
		Files:              []string{"./feedmailer.hcl", "./feedmailer.local.hcl"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	if cfg.SMTPHost != "" {
		if cfg.MailFrom == "" {
			return nil, fmt.Errorf("MAIL_FROM is required when SMTP_HOST is set")
		}
		if cfg.MailTo == "" {
			return nil, fmt.Errorf("MAIL_TO is required when SMTP_HOST is set")
		}
	}

	return &cfg, nil
}

// Location returns the time zone in which wall-clock refresh times (`at`,
// `weekly`) are interpreted. Load has already validated the name.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
