package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envPrefix namespaces every variable, e.g. ATTENDANCE_DATABASE_DSN.
const envPrefix = "ATTENDANCE_"

// parseEnv overlays variables that are set; unset variables keep the
// current value.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
