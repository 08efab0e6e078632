// Package config handles configuration for the attendance server,
// layering defaults, a JSON file, environment variables and command-line
// flags (later sources win).
package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the attendance server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - RosterFile: JSON roster seeding the in-memory store.
//   - SecretKey: HMAC secret for caller tokens (HS256). Empty disables the check.
//   - AccessTokenValidityDuration: lifetime of tokens minted by cmd/token.
//   - S3*: object storage for the capture archive. Empty bucket disables archiving.
//   - MatcherURL / MatcherTimeout: face-matching collaborator endpoint.
//   - AcceptThreshold / TwinTolerance: interpretation of matcher confidences.
//   - TwinTTL: how long an unanswered twin conflict blocks new scans.
//   - AllowOverlap: accept overlapping sessions for one section and day.
//   - TimeZone: IANA zone defining "today" for session dates.
type Config struct {
	EndpointAddrGRPC            string        `env:"GRPC_ADDR"`
	DatabaseDSN                 string        `env:"DATABASE_DSN"`
	RosterFile                  string        `env:"ROSTER_FILE"`
	SecretKey                   string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"ACCESS_TOKEN_VALIDITY"`
	S3RootUser                  string        `env:"S3_ROOT_USER"`
	S3RootPassword              string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket                    string        `env:"S3_BUCKET"`
	S3Region                    string        `env:"S3_REGION"`
	S3BaseEndpoint              string        `env:"S3_BASE_ENDPOINT"`
	MatcherURL                  string        `env:"MATCHER_URL"`
	MatcherTimeout              time.Duration `env:"MATCHER_TIMEOUT"`
	AcceptThreshold             float64       `env:"ACCEPT_THRESHOLD"`
	TwinTolerance               float64       `env:"TWIN_TOLERANCE"`
	TwinTTL                     time.Duration `env:"TWIN_TTL"`
	AllowOverlap                bool          `env:"ALLOW_OVERLAP"`
	TimeZone                    string        `env:"TIME_ZONE"`
	LogLevel                    string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the empty SecretKey disables caller authentication; set one in prod.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.AccessTokenValidityDuration = 12 * time.Hour
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.MatcherURL = "http://127.0.0.1:8001"
	c.MatcherTimeout = 10 * time.Second
	c.AcceptThreshold = 0.6
	c.TwinTolerance = 0.05
	c.TwinTTL = 5 * time.Minute
	c.AllowOverlap = false
	c.TimeZone = "UTC"
	c.LogLevel = "info"
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.AcceptThreshold <= 0 || c.AcceptThreshold > 1 {
		return fmt.Errorf("accept threshold must be in (0, 1], got %v", c.AcceptThreshold)
	}
	if c.TwinTolerance < 0 || c.TwinTolerance >= 1 {
		return fmt.Errorf("twin tolerance must be in [0, 1), got %v", c.TwinTolerance)
	}
	if c.MatcherTimeout <= 0 {
		return fmt.Errorf("matcher timeout must be positive")
	}
	if c.TwinTTL <= 0 {
		return fmt.Errorf("twin ttl must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then ATTENDANCE_* environment variables, then flags in args
// (usually os.Args[1:]).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
