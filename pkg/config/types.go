package config

import "fmt"

// RuntimeConfig holds the runtime key set packages read without a handle on
// the effective config. The gateway's API keys travel separately in its
// SecConfig; only the identity layer needs global access.
type RuntimeConfig struct {
	SigningKeys map[string]struct{}
}

// Config is the main configuration struct.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Chat      ChatConfig      `yaml:"chat"`
	Media     MediaConfig     `yaml:"media"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds http and tls settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DBPath  string    `yaml:"db_path"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SecurityConfig holds security related settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	IPWhitelist []string `yaml:"ip_whitelist"`
	APIKeys     struct {
		Backend  []string `yaml:"backend"`
		Frontend []string `yaml:"frontend"`
		Admin    []string `yaml:"admin"`
	} `yaml:"api_keys"`
	// SigningKeys verify X-User-Signature headers. When empty the backend
	// API keys double as signing secrets.
	SigningKeys []string `yaml:"signing_keys"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ChatConfig holds messaging behavior switches.
type ChatConfig struct {
	// HideDeleted removes soft-deleted messages from conversation listings.
	// Off by default: both participants keep seeing tombstoned entries.
	HideDeleted     bool `yaml:"hide_deleted"`
	DefaultPageSize int  `yaml:"default_page_size"`
	MaxContentLen   int  `yaml:"max_content_len"`
}

// MediaConfig holds the local blob store settings used for uploaded
// image/voice payloads.
type MediaConfig struct {
	Dir          string `yaml:"dir"`
	MaxUploadMB  int    `yaml:"max_upload_mb"`
	PublicPrefix string `yaml:"public_prefix"`
}

// RetentionConfig drives the cron purge of soft-deleted messages.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	TTLDays int    `yaml:"ttl_days"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// PageSize returns the configured default page size with a sane fallback.
func (c *Config) PageSize() int {
	if c.Chat.DefaultPageSize > 0 {
		return c.Chat.DefaultPageSize
	}
	return 20
}
