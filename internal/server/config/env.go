package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "LATECHECK_"

// dotenvFile is loaded if present. Variables already set in the process
// environment win over the file.
var dotenvFile = ".env"

func parseEnv(cfg *Config) error {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotenvFile, err)
	}
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("GRPC_ADDR", &cfg.GRPCAddr)
	str("DATABASE_DSN", &cfg.DatabaseDSN)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	if v, ok := lookup(envPrefix + "REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREDIS_DB: %w", envPrefix, err))
		} else {
			cfg.RedisDB = n
		}
	}
	str("SECRET_KEY", &cfg.SecretKey)
	dur("ACCESS_TOKEN_VALIDITY", &cfg.AccessTokenValidityDuration)
	str("RP_DISPLAY_NAME", &cfg.RPDisplayName)
	str("RP_ID", &cfg.RPID)
	if v, ok := lookup(envPrefix + "RP_ORIGINS"); ok {
		cfg.RPOrigins = splitList(v)
	}
	dur("CEREMONY_TIMEOUT", &cfg.CeremonyTimeout)
	dur("CHALLENGE_SWEEP_INTERVAL", &cfg.ChallengeSweepInterval)
	dur("HEALTH_CHECK_INTERVAL", &cfg.HealthCheckInterval)
	str("LATE_CUTOFF", &cfg.LateCutoff)
	str("TIME_ZONE", &cfg.TimeZone)
	str("S3_ACCESS_KEY", &cfg.S3AccessKey)
	str("S3_SECRET_KEY", &cfg.S3SecretKey)
	str("S3_BUCKET", &cfg.S3Bucket)
	str("S3_REGION", &cfg.S3Region)
	str("S3_BASE_ENDPOINT", &cfg.S3BaseEndpoint)
	dur("REPORT_URL_VALIDITY", &cfg.ReportURLValidity)
	str("LOG_BACKEND", &cfg.LogBackend)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("ADMIN_USERNAME", &cfg.AdminUsername)
	str("ADMIN_PASSWORD", &cfg.AdminPassword)
	str("ADMIN_EMAIL", &cfg.AdminEmail)

	return errors.Join(errs...)
}
