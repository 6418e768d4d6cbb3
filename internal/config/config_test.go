package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesrecon/reconciliation"
)

func TestConfigLogLevelValidation(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		wantError bool
	}{
		{"Valid DEBUG", "DEBUG", false},
		{"Valid INFO", "INFO", false},
		{"Valid WARN", "WARN", false},
		{"Valid ERROR", "ERROR", false},
		{"Valid lowercase debug", "debug", false},
		{"Invalid value", "INVALID", true},
		{"Empty string", "", false}, // Пустая строка допустима
		{"Mixed case", "DeBuG", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			cfg.LogLevel = tt.logLevel

			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }},
		{"idle above open", func(c *Config) { c.MaxIdleConns = c.MaxOpenConns + 1 }},
		{"zero page size", func(c *Config) { c.FetchPageSize = 0 }},
		{"short registry ttl", func(c *Config) { c.RegistryTTL = time.Millisecond }},
		{"threshold above 100", func(c *Config) { c.StreetThreshold = 101 }},
		{"zero threshold", func(c *Config) { c.SettlementThreshold = 0 }},
		{"unknown duplicate policy", func(c *Config) { c.DuplicatePolicy = "avg" }},
		{"no workers", func(c *Config) { c.ReconcileWorkers = 0 }},
		{"burst without tokens", func(c *Config) { c.RateLimitBurst = 0 }},
	}

	require.NoError(t, GetDefaults().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("REGISTRY_TTL", "30m")
	t.Setenv("FETCH_PAGE_SIZE", "250")
	t.Setenv("DUPLICATE_POLICY", "max")
	t.Setenv("STREET_THRESHOLD", "75.5")
	t.Setenv("RECONCILE_WORKERS", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.RegistryTTL)
	assert.Equal(t, 250, cfg.FetchPageSize)
	assert.Equal(t, "max", cfg.DuplicatePolicy)
	assert.Equal(t, 75.5, cfg.Thresholds().Street)
	assert.Equal(t, GetDefaults().ReconcileWorkers, cfg.ReconcileWorkers)
	assert.Equal(t, 250, cfg.DBConfig().PageSize)
	assert.Len(t, cfg.ReconcileOptions(), 2)
}

func TestLoadConfigInvalidEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DUPLICATE_POLICY", "median")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"port": "7000",
		"registry_ttl": "2h",
		"duplicate_policy": "max",
		"settlement_threshold": 90
	}`), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.RegistryTTL)
	assert.Equal(t, 90.0, cfg.SettlementThreshold)
	assert.Equal(t, GetDefaults().StreetThreshold, cfg.StreetThreshold)
	assert.Equal(t, string(reconciliation.DuplicateMax), cfg.DuplicatePolicy)

	t.Setenv("CONFIG_FILE", path)
	fromEnv, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "7000", fromEnv.Port)
}

func TestLoadConfigFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfigFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{`), 0o644))
	_, err = LoadConfigFile(broken)
	assert.Error(t, err)

	badDuration := filepath.Join(dir, "duration.json")
	require.NoError(t, os.WriteFile(badDuration, []byte(`{"registry_ttl": "soon"}`), 0o644))
	_, err = LoadConfigFile(badDuration)
	assert.Error(t, err)
}
