package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "delta", cfg.Predict.Mode)
	assert.Equal(t, 32, cfg.Predict.BatchSize)
	assert.Equal(t, "weights", cfg.Weights.Dir)
	assert.Equal(t, "xtb", cfg.Baseline.XTB.Binary)
	assert.Equal(t, 24*time.Hour, cfg.Baseline.Redis.TTL)
}

func TestLoadFromEnv_Override(t *testing.T) {
	t.Setenv("QMDELTA_PREDICT_MODE", "direct")
	t.Setenv("QMDELTA_WEIGHTS_DIR", "/opt/models")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "direct", cfg.Predict.Mode)
	assert.Equal(t, "/opt/models", cfg.Weights.Dir)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qmdelta.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
predict:
  mode: direct
  batch_size: 8
baseline:
  xtb:
    binary: /usr/local/bin/xtb
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "direct", cfg.Predict.Mode)
	assert.Equal(t, 8, cfg.Predict.BatchSize)
	assert.Equal(t, "/usr/local/bin/xtb", cfg.Baseline.XTB.Binary)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults are valid", func(*Config) {}, true},
		{"zero batch size", func(c *Config) { c.Predict.BatchSize = -1 }, false},
		{"bad mode", func(c *Config) { c.Predict.Mode = "hybrid" }, false},
		{"empty weight dir", func(c *Config) { c.Weights.Dir = "" }, false},
		{"remote without endpoint", func(c *Config) { c.Weights.RemoteEnabled = true }, false},
		{"cache without addr", func(c *Config) { c.Baseline.CacheEnabled = true }, false},
		{"cache with addr", func(c *Config) {
			c.Baseline.CacheEnabled = true
			c.Baseline.Redis.Addr = "localhost:6379"
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
