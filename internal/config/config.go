// Package config loads collector settings from a JSON file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds every setting the collector needs. All fields are optional in
// the file; missing values come from the environment or Defaults.
type Config struct {
	// Server
	Port     string `json:"port,omitempty"`
	LogLevel string `json:"log_level,omitempty"`

	// Language model
	LLMProvider string `json:"llm_provider,omitempty"` // gemini or anthropic
	APIKey      string `json:"api_key,omitempty"`

	// Statistics source
	BLSBaseURL          string  `json:"bls_base_url,omitempty"`
	CostOfLivingBaseURL string  `json:"cost_of_living_base_url,omitempty"`
	IndexTTL            string  `json:"index_ttl,omitempty"`          // e.g. "24h"
	CrawlRatePerSec     float64 `json:"crawl_rate_per_sec,omitempty"` // polite crawl rate for the stats site

	// Compensation database
	SalaryLoginURL string `json:"salary_login_url,omitempty"`
	SalaryUsername string `json:"salary_username,omitempty"`
	SalaryPassword string `json:"salary_password,omitempty"`

	// Job board
	JobBoardBaseURL  string `json:"job_board_base_url,omitempty"`
	CaptchaAPIKey    string `json:"captcha_api_key,omitempty"`
	CaptchaSubmitURL string `json:"captcha_submit_url,omitempty"`
	CaptchaResultURL string `json:"captcha_result_url,omitempty"`

	// Behavior
	MaxResults    int    `json:"max_results,omitempty"`
	SessionTTL    string `json:"session_ttl,omitempty"`     // idle clarification sessions are evicted after this
	SourcesMCPURL string `json:"sources_mcp_url,omitempty"` // when set, adapters are called over MCP
	Headed        bool   `json:"headed,omitempty"`          // show the browser window
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                "8080",
		LogLevel:            "info",
		LLMProvider:         "gemini",
		BLSBaseURL:          "https://www.bls.gov/ooh",
		CostOfLivingBaseURL: "https://www.payscale.com/cost-of-living-calculator",
		IndexTTL:            "24h",
		CrawlRatePerSec:     2,
		SalaryLoginURL:      "https://www.salary.com/sa/login",
		JobBoardBaseURL:     "https://www.indeed.com",
		CaptchaSubmitURL:    "https://2captcha.com/in.php",
		CaptchaResultURL:    "https://2captcha.com/res.php",
		MaxResults:          50,
		SessionTTL:          "30m",
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// envKeys maps environment variables onto config fields.
var envKeys = map[string]func(*Config, string){
	"PORT":                    func(c *Config, v string) { c.Port = v },
	"LOG_LEVEL":               func(c *Config, v string) { c.LogLevel = v },
	"LLM_PROVIDER":            func(c *Config, v string) { c.LLMProvider = v },
	"BLS_BASE_URL":            func(c *Config, v string) { c.BLSBaseURL = v },
	"COST_OF_LIVING_BASE_URL": func(c *Config, v string) { c.CostOfLivingBaseURL = v },
	"JOB_INDEX_TTL":           func(c *Config, v string) { c.IndexTTL = v },
	"SALARY_COM_LOGIN_URL":    func(c *Config, v string) { c.SalaryLoginURL = v },
	"SALARY_COM_USERNAME":     func(c *Config, v string) { c.SalaryUsername = v },
	"SALARY_COM_PASSWORD":     func(c *Config, v string) { c.SalaryPassword = v },
	"INDEED_BASE_URL":         func(c *Config, v string) { c.JobBoardBaseURL = v },
	"CAPTCHA_API_KEY":         func(c *Config, v string) { c.CaptchaAPIKey = v },
	"CAPTCHA_SUBMIT_URL":      func(c *Config, v string) { c.CaptchaSubmitURL = v },
	"CAPTCHA_RESULT_URL":      func(c *Config, v string) { c.CaptchaResultURL = v },
	"SOURCES_MCP_URL":         func(c *Config, v string) { c.SourcesMCPURL = v },
	"SESSION_TTL":             func(c *Config, v string) { c.SessionTTL = v },
	"MAX_RESULTS": func(c *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxResults = n
		}
	},
	"HEADED": func(c *Config, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Headed = b
		}
	},
	"HEADLESS": func(c *Config, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Headed = !b
		}
	},
}

// ApplyEnv overlays values found through lookup (os.LookupEnv in production).
// The API key is taken from the provider-specific variable.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for key, set := range envKeys {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			set(c, strings.TrimSpace(v))
		}
	}
	keyVar := "GEMINI_API_KEY"
	if strings.EqualFold(c.LLMProvider, "anthropic") {
		keyVar = "ANTHROPIC_API_KEY"
	}
	if v, ok := lookup(keyVar); ok && v != "" {
		c.APIKey = v
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.MaxResults < 0 || c.MaxResults > 1000 {
		return fmt.Errorf("config error: 'max_results' must be between 1 and 1000")
	}
	if c.CrawlRatePerSec < 0 {
		return fmt.Errorf("config error: 'crawl_rate_per_sec' must be non-negative")
	}
	for name, raw := range map[string]string{"index_ttl": c.IndexTTL, "session_ttl": c.SessionTTL} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("config error: '%s' is not a duration: %w", name, err)
		}
	}
	for name, raw := range map[string]string{
		"bls_base_url":       c.BLSBaseURL,
		"salary_login_url":   c.SalaryLoginURL,
		"job_board_base_url": c.JobBoardBaseURL,
		"sources_mcp_url":    c.SourcesMCPURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: '%s' must be an absolute URL", name)
		}
	}
	switch strings.ToLower(c.LLMProvider) {
	case "", "gemini", "anthropic":
	default:
		return fmt.Errorf("config error: unknown llm_provider %q", c.LLMProvider)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.Port, defaults.Port)
	fill(&result.LogLevel, defaults.LogLevel)
	fill(&result.LLMProvider, defaults.LLMProvider)
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.BLSBaseURL, defaults.BLSBaseURL)
	fill(&result.CostOfLivingBaseURL, defaults.CostOfLivingBaseURL)
	fill(&result.IndexTTL, defaults.IndexTTL)
	fill(&result.SalaryLoginURL, defaults.SalaryLoginURL)
	fill(&result.SalaryUsername, defaults.SalaryUsername)
	fill(&result.SalaryPassword, defaults.SalaryPassword)
	fill(&result.JobBoardBaseURL, defaults.JobBoardBaseURL)
	fill(&result.CaptchaAPIKey, defaults.CaptchaAPIKey)
	fill(&result.CaptchaSubmitURL, defaults.CaptchaSubmitURL)
	fill(&result.CaptchaResultURL, defaults.CaptchaResultURL)
	fill(&result.SessionTTL, defaults.SessionTTL)
	fill(&result.SourcesMCPURL, defaults.SourcesMCPURL)

	if result.MaxResults == 0 {
		result.MaxResults = defaults.MaxResults
	}
	if result.CrawlRatePerSec == 0 {
		result.CrawlRatePerSec = defaults.CrawlRatePerSec
	}

	// Bool fields cannot distinguish unset from false; flags win.
	return result
}

// Load resolves the effective configuration: file (optional), then
// environment, then defaults.
func Load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(lookup)
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}

// IndexTTLDuration returns the job index TTL, defaulting to 24h.
func (c *Config) IndexTTLDuration() time.Duration {
	return parseDurationOr(c.IndexTTL, 24*time.Hour)
}

// SessionTTLDuration returns the idle session TTL, defaulting to 30m.
func (c *Config) SessionTTLDuration() time.Duration {
	return parseDurationOr(c.SessionTTL, 30*time.Minute)
}

func parseDurationOr(raw string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return def
}
