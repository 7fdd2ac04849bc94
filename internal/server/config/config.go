// Package config handles configuration for the server component: defaults,
// then .env and LATECHECK_* environment variables, then an optional JSON
// file, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/server/lateness"
)

// Config holds runtime settings for the latecheck server.
//
// Relying-party settings (RPID, RPOrigins, RPDisplayName) must match the
// origin the kiosk front end is served from, or every ceremony fails
// verification. RPOrigins doubles as the CORS allow-list.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SecretKey                   string
	AccessTokenValidityDuration time.Duration

	RPDisplayName          string
	RPID                   string
	RPOrigins              []string
	CeremonyTimeout        time.Duration
	ChallengeSweepInterval time.Duration
	HealthCheckInterval    time.Duration

	LateCutoff string
	TimeZone   string

	S3AccessKey       string
	S3SecretKey       string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	ReportURLValidity time.Duration

	LogBackend string
	LogLevel   string

	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

// LoadDefaults populates Config with development defaults. An empty
// DatabaseDSN runs the server on in-memory stores.
// NOTE: SecretKey and AdminPassword must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.DatabaseDSN = ""
	c.RedisAddr = ""
	c.RedisDB = 0
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 8 * time.Hour
	c.RPDisplayName = "Sistema de Llegadas"
	c.RPID = "localhost"
	c.RPOrigins = []string{"http://localhost:3000"}
	c.CeremonyTimeout = 60 * time.Second
	c.ChallengeSweepInterval = time.Minute
	c.HealthCheckInterval = 10 * time.Second
	c.LateCutoff = "07:00"
	c.TimeZone = "America/Bogota"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "reports"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.ReportURLValidity = 15 * time.Minute
	c.LogBackend = "zap"
	c.LogLevel = "info"
	c.AdminUsername = "admin"
	c.AdminPassword = "admin123"
	c.AdminEmail = "admin@localhost"
}

// Location resolves TimeZone. Arrival dates are calendar days in this zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.RPID == "" {
		errs = append(errs, errors.New("rp id is required"))
	}
	if len(c.RPOrigins) == 0 {
		errs = append(errs, errors.New("at least one rp origin is required"))
	}
	if c.CeremonyTimeout <= 0 {
		errs = append(errs, errors.New("ceremony timeout must be positive"))
	}
	if c.ChallengeSweepInterval <= 0 || c.HealthCheckInterval <= 0 {
		errs = append(errs, errors.New("sweep and health check intervals must be positive"))
	}
	if err := lateness.ValidCutoff(c.LateCutoff); err != nil {
		errs = append(errs, fmt.Errorf("late cutoff: %w", err))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("time zone: %w", err))
	}
	switch c.LogBackend {
	case "zap", "slog":
	default:
		errs = append(errs, fmt.Errorf("unknown log backend %q", c.LogBackend))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig builds a Config by applying defaults, then the environment,
// then an optional JSON file and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}
