// Package config provides configuration loading, defaults, and validation
// for the qmdelta service and CLI.
package config

import (
	"fmt"
	"time"

	"github.com/molforge/qmdelta/internal/baseline"
	"github.com/molforge/qmdelta/internal/logging"
	"github.com/molforge/qmdelta/internal/weights"
)

// Config is the root configuration tree.
type Config struct {
	Log      logging.Config `mapstructure:"log"`
	Weights  WeightsConfig  `mapstructure:"weights"`
	Baseline BaselineConfig `mapstructure:"baseline"`
	Predict  PredictConfig  `mapstructure:"predict"`
}

// WeightsConfig locates trained model weights.
type WeightsConfig struct {
	// Dir is the local weight directory, one <model_id>.json per model.
	Dir string `mapstructure:"dir"`
	// Watch enables filesystem-driven cache invalidation over Dir.
	Watch bool `mapstructure:"watch"`
	// RemoteEnabled turns on object-storage backfill for missing blobs.
	RemoteEnabled bool                 `mapstructure:"remote_enabled"`
	Remote        weights.RemoteConfig `mapstructure:"remote"`
}

// BaselineConfig configures the external baseline tool and its cache.
type BaselineConfig struct {
	XTB baseline.XTBConfig `mapstructure:"xtb"`
	// CacheEnabled turns on the redis result cache.
	CacheEnabled bool                 `mapstructure:"cache_enabled"`
	Redis        baseline.RedisConfig `mapstructure:"redis"`
}

// PredictConfig carries the default prediction parameters; CLI flags
// override them per invocation.
type PredictConfig struct {
	Mode          string `mapstructure:"mode"`
	BatchSize     int    `mapstructure:"batch_size"`
	Force3D       bool   `mapstructure:"force3d"`
	AddHydrogens  bool   `mapstructure:"addh"`
	Optimize      bool   `mapstructure:"xtbopt"`
	NormTableFile string `mapstructure:"norm_table_file"`
}

// Validate checks cross-field consistency. Defaults must be applied first.
func (c *Config) Validate() error {
	if c.Predict.BatchSize < 1 {
		return fmt.Errorf("predict.batch_size must be positive, got %d", c.Predict.BatchSize)
	}
	switch c.Predict.Mode {
	case "delta", "direct":
	default:
		return fmt.Errorf("predict.mode must be \"delta\" or \"direct\", got %q", c.Predict.Mode)
	}
	if c.Weights.Dir == "" {
		return fmt.Errorf("weights.dir must be set")
	}
	if c.Weights.RemoteEnabled {
		if c.Weights.Remote.Endpoint == "" || c.Weights.Remote.Bucket == "" {
			return fmt.Errorf("weights.remote requires endpoint and bucket when enabled")
		}
	}
	if c.Baseline.CacheEnabled {
		if c.Baseline.Redis.Addr == "" {
			return fmt.Errorf("baseline.redis.addr must be set when the cache is enabled")
		}
		if c.Baseline.Redis.TTL < 0 {
			return fmt.Errorf("baseline.redis.ttl must not be negative")
		}
	}
	return nil
}

// ApplyDefaults fills unset fields with working defaults.
func ApplyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if len(c.Log.OutputPaths) == 0 {
		c.Log.OutputPaths = []string{"stderr"}
	}
	if c.Weights.Dir == "" {
		c.Weights.Dir = "weights"
	}
	if c.Baseline.XTB.Binary == "" {
		c.Baseline.XTB.Binary = "xtb"
	}
	if c.Baseline.Redis.TTL == 0 {
		c.Baseline.Redis.TTL = 24 * time.Hour
	}
	if c.Predict.Mode == "" {
		c.Predict.Mode = "delta"
	}
	if c.Predict.BatchSize == 0 {
		c.Predict.BatchSize = 32
	}
}
