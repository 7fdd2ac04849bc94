package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/flagx"
)

var flagNames = []string{"-a", "-g", "-d", "-r", "-s", "-t", "-n", "-i", "-o", "-w", "-l", "-z", "-b", "-e", "-v"}

// parseFlags overlays short command-line flags onto config.
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN; empty runs on in-memory stores
//	-r string   Redis address for the challenge ledger
//	-s string   JWT HMAC secret key
//	-t int      admin token validity, minutes
//	-n string   relying party display name
//	-i string   relying party ID
//	-o string   comma-separated relying party origins
//	-w int      ceremony timeout, seconds
//	-l string   late cutoff "HH:MM"
//	-z string   IANA time zone for calendar days
//	-b string   S3 report bucket
//	-e string   S3 base endpoint
//	-v string   log level
//
// os.Args is filtered with flagx.FilterArgs first so flags owned by other
// loaders (-c) do not break parsing.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "admin token validity (in minutes)")
	fs.StringVar(&config.RPDisplayName, "n", config.RPDisplayName, "relying party display name")
	fs.StringVar(&config.RPID, "i", config.RPID, "relying party ID")
	origins := fs.String("o", "", "relying party origins, comma separated")
	timeoutSeconds := fs.Int("w", int(config.CeremonyTimeout.Seconds()), "ceremony timeout (in seconds)")
	fs.StringVar(&config.LateCutoff, "l", config.LateCutoff, "late cutoff HH:MM")
	fs.StringVar(&config.TimeZone, "z", config.TimeZone, "time zone")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 report bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*tokenMinutes) * time.Minute
	config.CeremonyTimeout = time.Duration(*timeoutSeconds) * time.Second
	if *origins != "" {
		config.RPOrigins = splitList(*origins)
	}
	return nil
}
