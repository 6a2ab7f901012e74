package app

import (
	"fmt"

	"github.com/adhocore/gronx"

	"snapfeed/pkg/config"
)

// validateConfig sanity-checks the effective config before any resource is
// touched so startup fails fast with a clear message.
func validateConfig(eff config.EffectiveConfigResult) error {
	cfg := eff.Config

	if p := cfg.Server.Port; p < 0 || p > 65535 {
		return fmt.Errorf("invalid server port: %d", p)
	}
	if cfg.Server.MaxBodySize < 0 {
		return fmt.Errorf("invalid max_body_size: %d", cfg.Server.MaxBodySize)
	}
	if c := cfg.Retention.Cron; c != "" && !gronx.IsValid(c) {
		return fmt.Errorf("invalid retention cron expression: %s", c)
	}
	if d := cfg.Retention.MaxAge.Duration(); d < 0 {
		return fmt.Errorf("invalid retention max_age: %s", d)
	}

	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	if (cert == "") != (key == "") {
		return fmt.Errorf("tls requires both cert_file and key_file")
	}
	return nil
}
