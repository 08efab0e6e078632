package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/attendance/internal/flagx"
	"github.com/dmitrijs2005/attendance/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" apart from zero values so a partial file only overrides what it
// names. Durations accept "15m" strings (timex.Duration).
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	RosterFile                  *string         `json:"roster_file"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	MatcherURL                  *string         `json:"matcher_url"`
	MatcherTimeout              *timex.Duration `json:"matcher_timeout"`
	AcceptThreshold             *float64        `json:"accept_threshold"`
	TwinTolerance               *float64        `json:"twin_tolerance"`
	TwinTTL                     *timex.Duration `json:"twin_ttl"`
	AllowOverlap                *bool           `json:"allow_overlap"`
	TimeZone                    *string         `json:"time_zone"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJSON loads the file named by -c/-config in args, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var c JsonConfig
	if err := json.Unmarshal(b, &c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.RosterFile, c.RosterFile)
	setString(&cfg.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&cfg.S3RootUser, c.S3RootUser)
	setString(&cfg.S3RootPassword, c.S3RootPassword)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&cfg.MatcherURL, c.MatcherURL)
	if c.MatcherTimeout != nil {
		cfg.MatcherTimeout = c.MatcherTimeout.Duration
	}
	if c.AcceptThreshold != nil {
		cfg.AcceptThreshold = *c.AcceptThreshold
	}
	if c.TwinTolerance != nil {
		cfg.TwinTolerance = *c.TwinTolerance
	}
	if c.TwinTTL != nil {
		cfg.TwinTTL = c.TwinTTL.Duration
	}
	if c.AllowOverlap != nil {
		cfg.AllowOverlap = *c.AllowOverlap
	}
	setString(&cfg.TimeZone, c.TimeZone)
	setString(&cfg.LogLevel, c.LogLevel)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
