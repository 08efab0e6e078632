package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/attendance/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-r string   roster JSON file for the in-memory store
//	-s string   token HMAC secret key
//	-t int      access token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-m string   face matcher base URL
//	-w int      face matcher timeout, seconds
//	-z string   time zone defining "today"
//	-l string   log level
//
// Only these flags are parsed; the rest of args is ignored so -c and
// tool-specific flags do not collide.
func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, []string{
		"-a", "-d", "-r", "-s", "-t", "-u", "-p", "-b", "-g", "-e", "-m", "-w", "-z", "-l",
	})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.RosterFile, "r", cfg.RosterFile, "roster file for the in-memory store")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(cfg.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket for captures")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.MatcherURL, "m", cfg.MatcherURL, "face matcher base URL")
	matcherTimeout := fs.Int("w", int(cfg.MatcherTimeout.Seconds()), "face matcher timeout (in seconds)")
	fs.StringVar(&cfg.TimeZone, "z", cfg.TimeZone, "time zone")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(filtered); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// minute/second flags would truncate finer JSON or env values, so only
	// apply them when given explicitly.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.AccessTokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		case "w":
			cfg.MatcherTimeout = time.Duration(*matcherTimeout) * time.Second
		}
	})
	return nil
}
