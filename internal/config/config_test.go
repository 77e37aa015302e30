package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"port": "9090",
		"bls_base_url": "http://localhost:1234/ooh",
		"max_results": 20,
		"headed": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://localhost:1234/ooh", cfg.BLSBaseURL)
	assert.Equal(t, 20, cfg.MaxResults)
	assert.True(t, cfg.Headed)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyEnv(envFrom(map[string]string{
		"PORT":                 "7000",
		"INDEED_BASE_URL":      "http://board.test",
		"MAX_RESULTS":          "15",
		"HEADED":               "true",
		"GEMINI_API_KEY":       "g-key",
		"SALARY_COM_LOGIN_URL": "http://comp.test/login",
	}))

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "http://board.test", cfg.JobBoardBaseURL)
	assert.Equal(t, 15, cfg.MaxResults)
	assert.True(t, cfg.Headed)
	assert.Equal(t, "g-key", cfg.APIKey)
	assert.Equal(t, "http://comp.test/login", cfg.SalaryLoginURL)
}

func TestApplyEnv_Headless(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyEnv(envFrom(map[string]string{"HEADLESS": "false"}))
	assert.True(t, cfg.Headed)

	cfg.ApplyEnv(envFrom(map[string]string{"HEADLESS": "true"}))
	assert.False(t, cfg.Headed)
}

func TestApplyEnv_AnthropicKey(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyEnv(envFrom(map[string]string{
		"LLM_PROVIDER":      "anthropic",
		"GEMINI_API_KEY":    "g-key",
		"ANTHROPIC_API_KEY": "a-key",
	}))
	assert.Equal(t, "a-key", cfg.APIKey)
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"max results", func(c *Config) { c.MaxResults = 5000 }, "max_results"},
		{"ttl", func(c *Config) { c.IndexTTL = "soon" }, "index_ttl"},
		{"url", func(c *Config) { c.BLSBaseURL = "not a url" }, "bls_base_url"},
		{"provider", func(c *Config) { c.LLMProvider = "other" }, "llm_provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{Port: "9999"}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "9999", merged.Port)
	assert.Equal(t, "https://www.bls.gov/ooh", merged.BLSBaseURL)
	assert.Equal(t, 50, merged.MaxResults)
	assert.Equal(t, "", cfg.BLSBaseURL, "original should be unchanged")
}

func TestLoad_FileThenEnv(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"port": "1111", "log_level": "debug"}`), 0644))

	cfg, err := Load(tmpFile, envFrom(map[string]string{"PORT": "2222"}))
	require.NoError(t, err)
	assert.Equal(t, "2222", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.IndexTTLDuration())
	assert.Equal(t, 30*time.Minute, cfg.SessionTTLDuration())
}
