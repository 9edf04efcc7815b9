package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	runtimeMu  sync.RWMutex
	runtimeCfg *RuntimeConfig
)

// SetRuntime sets the canonical runtime config used by the running server.
func SetRuntime(rc *RuntimeConfig) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeCfg = rc
}

// GetSigningKeys returns a copy of configured signing keys.
func GetSigningKeys() map[string]struct{} {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	out := map[string]struct{}{}
	if runtimeCfg == nil {
		return out
	}
	for k := range runtimeCfg.SigningKeys {
		out[k] = struct{}{}
	}
	return out
}

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Media  string
	Config string
	Set    map[string]bool
}

// ParseCommandFlags defines and parses command-line flags.
func ParseCommandFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	mediaPtr := flag.String("media", "./.media", "Local media store path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Media: *mediaPtr, Config: *cfgPtr, Set: set}
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and CHATMESH_CONFIG when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("CHATMESH_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

func parseList(v string) []string {
	if v == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// LoadEnvOverrides applies CHATMESH_* environment overrides onto cfg and
// reports whether any env vars were used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false

	if v := os.Getenv("CHATMESH_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("CHATMESH_DB_PATH"); v != "" {
		envUsed = true
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("CHATMESH_MEDIA_DIR"); v != "" {
		envUsed = true
		cfg.Media.Dir = v
	}
	if v := os.Getenv("CHATMESH_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("CHATMESH_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("CHATMESH_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("CHATMESH_IP_WHITELIST"); v != "" {
		envUsed = true
		cfg.Security.IPWhitelist = parseList(v)
	}
	if v := os.Getenv("CHATMESH_API_BACKEND_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Backend = parseList(v)
	}
	if v := os.Getenv("CHATMESH_API_FRONTEND_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Frontend = parseList(v)
	}
	if v := os.Getenv("CHATMESH_API_ADMIN_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Admin = parseList(v)
	}
	if v := os.Getenv("CHATMESH_SIGNING_KEYS"); v != "" {
		envUsed = true
		cfg.Security.SigningKeys = parseList(v)
	}
	if v := os.Getenv("CHATMESH_HIDE_DELETED"); v != "" {
		envUsed = true
		cfg.Chat.HideDeleted = parseBool(v)
	}
	if v := os.Getenv("CHATMESH_RETENTION_CRON"); v != "" {
		envUsed = true
		cfg.Retention.Enabled = true
		cfg.Retention.Cron = v
	}
	if v := os.Getenv("CHATMESH_RETENTION_TTL_DAYS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Retention.TTLDays = n
		}
	}
	if c := os.Getenv("CHATMESH_TLS_CERT"); c != "" {
		envUsed = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("CHATMESH_TLS_KEY"); k != "" {
		envUsed = true
		cfg.Server.TLS.KeyFile = k
	}
	return envUsed
}

// SigningKeySet derives the effective signing key set: explicit signing
// keys when configured, else the backend API keys.
func (c *Config) SigningKeySet() map[string]struct{} {
	out := map[string]struct{}{}
	src := c.Security.SigningKeys
	if len(src) == 0 {
		src = c.Security.APIKeys.Backend
	}
	for _, k := range src {
		out[k] = struct{}{}
	}
	return out
}

// EffectiveConfigResult is the merged configuration handed to the app.
type EffectiveConfigResult struct {
	Config   *Config
	Addr     string
	DBPath   string
	MediaDir string
	Source   string // "flags", "config", or "env"
}

// LoadEffective loads the config file (missing file is not fatal), applies
// env overrides and flag overrides, and returns the effective result.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := Load(cfgPath)
	fileUsed := err == nil
	if err != nil {
		if !os.IsNotExist(err) {
			return EffectiveConfigResult{}, err
		}
		cfg = &Config{}
	}
	envUsed := LoadEnvOverrides(cfg)

	eff := EffectiveConfigResult{Config: cfg}
	switch {
	case len(flags.Set) > 0:
		eff.Source = "flags"
	case envUsed:
		eff.Source = "env"
	case fileUsed:
		eff.Source = "config"
	default:
		eff.Source = "flags"
	}

	if flags.Set["addr"] {
		eff.Addr = flags.Addr
	} else {
		eff.Addr = cfg.Addr()
	}
	if flags.Set["db"] || cfg.Server.DBPath == "" {
		eff.DBPath = flags.DB
	} else {
		eff.DBPath = cfg.Server.DBPath
	}
	if flags.Set["media"] || cfg.Media.Dir == "" {
		eff.MediaDir = flags.Media
	} else {
		eff.MediaDir = cfg.Media.Dir
	}
	return eff, nil
}
