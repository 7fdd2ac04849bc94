package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/flagx"
	"github.com/dmitrijs2005/latecheck/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "60s" and integer nanoseconds are accepted. Fields
// left out of the file keep their previous value.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	GRPCAddr                    string         `json:"grpc_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	RedisAddr                   string         `json:"redis_addr"`
	RedisPassword               string         `json:"redis_password"`
	RedisDB                     *int           `json:"redis_db"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	RPDisplayName               string         `json:"rp_display_name"`
	RPID                        string         `json:"rp_id"`
	RPOrigins                   []string       `json:"rp_origins"`
	CeremonyTimeout             timex.Duration `json:"ceremony_timeout"`
	ChallengeSweepInterval      timex.Duration `json:"challenge_sweep_interval"`
	HealthCheckInterval         timex.Duration `json:"health_check_interval"`
	LateCutoff                  string         `json:"late_cutoff"`
	TimeZone                    string         `json:"time_zone"`
	S3AccessKey                 string         `json:"s3_access_key"`
	S3SecretKey                 string         `json:"s3_secret_key"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	ReportURLValidity           timex.Duration `json:"report_url_validity"`
	LogBackend                  string         `json:"log_backend"`
	LogLevel                    string         `json:"log_level"`
	AdminUsername               string         `json:"admin_username"`
	AdminPassword               string         `json:"admin_password"`
	AdminEmail                  string         `json:"admin_email"`
}

// parseJson overlays the file named by -c/-config (or $LATECHECK_CONFIG)
// onto config. No path means nothing to do.
func parseJson(config *Config) error {
	path := flagx.ConfigPath()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	str := func(src string, dst *string) {
		if src != "" {
			*dst = src
		}
	}
	dur := func(src timex.Duration, dst *time.Duration) {
		if src.Duration != 0 {
			*dst = src.Duration
		}
	}

	str(c.HTTPAddr, &config.HTTPAddr)
	str(c.GRPCAddr, &config.GRPCAddr)
	str(c.DatabaseDSN, &config.DatabaseDSN)
	str(c.RedisAddr, &config.RedisAddr)
	str(c.RedisPassword, &config.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	str(c.SecretKey, &config.SecretKey)
	dur(c.AccessTokenValidityDuration, &config.AccessTokenValidityDuration)
	str(c.RPDisplayName, &config.RPDisplayName)
	str(c.RPID, &config.RPID)
	if len(c.RPOrigins) > 0 {
		config.RPOrigins = c.RPOrigins
	}
	dur(c.CeremonyTimeout, &config.CeremonyTimeout)
	dur(c.ChallengeSweepInterval, &config.ChallengeSweepInterval)
	dur(c.HealthCheckInterval, &config.HealthCheckInterval)
	str(c.LateCutoff, &config.LateCutoff)
	str(c.TimeZone, &config.TimeZone)
	str(c.S3AccessKey, &config.S3AccessKey)
	str(c.S3SecretKey, &config.S3SecretKey)
	str(c.S3Bucket, &config.S3Bucket)
	str(c.S3Region, &config.S3Region)
	str(c.S3BaseEndpoint, &config.S3BaseEndpoint)
	dur(c.ReportURLValidity, &config.ReportURLValidity)
	str(c.LogBackend, &config.LogBackend)
	str(c.LogLevel, &config.LogLevel)
	str(c.AdminUsername, &config.AdminUsername)
	str(c.AdminPassword, &config.AdminPassword)
	str(c.AdminEmail, &config.AdminEmail)
}
