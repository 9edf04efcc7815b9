package app

import (
	"fmt"
	"os"

	"chatmesh/pkg/config"
	"chatmesh/pkg/logger"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, CHATMESH_DB_PATH env, or server.db_path in config")
	}
	if eff.MediaDir == "" {
		return fmt.Errorf("media directory is empty: set --media flag, CHATMESH_MEDIA_DIR env, or media.dir in config")
	}

	cert := eff.Config.Server.TLS.CertFile
	key := eff.Config.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	if len(eff.Config.SigningKeySet()) == 0 {
		// the server still runs for backend-only use, but no websocket or
		// frontend client will be able to authenticate a user
		logger.Warn("no_signing_keys_configured")
	}
	if ret := eff.Config.Retention; ret.Enabled && ret.TTLDays <= 0 {
		return fmt.Errorf("retention enabled but retention.ttl_days is not set")
	}
	return nil
}
