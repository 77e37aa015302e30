package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the token bucket for one route. A Path ending in "/"
// matches every path below it.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window; 0 is unlimited
	Window time.Duration // refill period for Limit tokens
	Burst  int           // bucket size; 0 means Limit
}

// Env var names.
const (
	EnvEnabled         = "RATE_LIMIT_ENABLED"
	EnvDefaultLimit    = "RATE_LIMIT_DEFAULT_LIMIT"
	EnvDefaultWindow   = "RATE_LIMIT_DEFAULT_WINDOW"
	EnvCleanupInterval = "RATE_LIMIT_CLEANUP_INTERVAL"
	EnvIdleTTL         = "RATE_LIMIT_IDLE_TTL"
	EnvWhitelist       = "RATE_LIMIT_WHITELIST"
	EnvBlacklist       = "RATE_LIMIT_BLACKLIST"
)

// LoadConfig reads the RATE_LIMIT_* variables from the process environment.
func LoadConfig() *Config {
	return ConfigFromEnv(os.LookupEnv)
}

// ConfigFromEnv builds a Config from lookup. Unparseable values fall back
// to their defaults.
func ConfigFromEnv(lookup func(string) (string, bool)) *Config {
	env := envReader(lookup)
	if !env.boolean(EnvEnabled, true) {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    env.integer(EnvDefaultLimit, 1000),
		DefaultWindow:   env.duration(EnvDefaultWindow, time.Minute),
		CleanupInterval: env.duration(EnvCleanupInterval, 5*time.Minute),
		IdleTTL:         env.duration(EnvIdleTTL, time.Hour),
		Whitelist:       env.set(EnvWhitelist),
		Blacklist:       env.set(EnvBlacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// collectingRoutes start a browser session against every source.
var collectingRoutes = []string{"search", "query", "follow-up", "stream"}

// DefaultEndpointConfigs returns the per-route buckets. Routes without an
// entry get the default limit; /health and /metrics are never limited.
func DefaultEndpointConfigs() []EndpointConfig {
	configs := make([]EndpointConfig, 0, len(collectingRoutes)+2)
	for _, route := range collectingRoutes {
		configs = append(configs, EndpointConfig{
			Path: "/api/v1/jobs/" + route, Method: "POST", Limit: 30, Window: time.Hour, Burst: 5,
		})
	}
	return append(configs,
		EndpointConfig{Path: "/api/v1/jobs/export", Method: "POST", Limit: 120, Window: time.Hour, Burst: 20},
		// Probes the live sites.
		EndpointConfig{Path: "/api/v1/sources/health", Method: "GET", Limit: 60, Window: time.Hour, Burst: 10},
	)
}

type envReader func(string) (string, bool)

func (e envReader) get(key string) (string, bool) {
	v, ok := e(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e envReader) integer(key string, def int) int {
	if v, ok := e.get(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if v, ok := e.get(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if v, ok := e.get(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// set parses a comma-separated list of client IPs.
func (e envReader) set(key string) map[string]bool {
	out := make(map[string]bool)
	v, ok := e.get(key)
	if !ok {
		return out
	}
	for _, ip := range strings.Split(v, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			out[ip] = true
		}
	}
	return out
}
