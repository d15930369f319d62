package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all settings.
const envPrefix = "QMDELTA"

// newViper builds a pre-configured Viper instance: YAML file type,
// QMDELTA_ env prefix, automatic env binding, and a key replacer mapping
// "." to "_" so "weights.dir" resolves from QMDELTA_WEIGHTS_DIR.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// setDefaults registers every known key so environment overrides are
// visible to Unmarshal (viper only resolves env vars for registered keys).
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_paths", []string{"stderr"})

	v.SetDefault("weights.dir", "weights")
	v.SetDefault("weights.watch", false)
	v.SetDefault("weights.remote_enabled", false)
	v.SetDefault("weights.remote.endpoint", "")
	v.SetDefault("weights.remote.access_key", "")
	v.SetDefault("weights.remote.secret_key", "")
	v.SetDefault("weights.remote.bucket", "")
	v.SetDefault("weights.remote.prefix", "")
	v.SetDefault("weights.remote.use_ssl", false)

	v.SetDefault("baseline.xtb.binary", "xtb")
	v.SetDefault("baseline.xtb.scratch", "")
	v.SetDefault("baseline.cache_enabled", false)
	v.SetDefault("baseline.redis.addr", "")
	v.SetDefault("baseline.redis.password", "")
	v.SetDefault("baseline.redis.db", 0)
	v.SetDefault("baseline.redis.ttl", 24*time.Hour)

	v.SetDefault("predict.mode", "delta")
	v.SetDefault("predict.batch_size", 32)
	v.SetDefault("predict.force3d", false)
	v.SetDefault("predict.addh", false)
	v.SetDefault("predict.xtbopt", false)
	v.SetDefault("predict.norm_table_file", "")
}

// Load reads the YAML file at configPath, merges QMDELTA_* environment
// overrides, applies defaults for unset fields, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from QMDELTA_* environment variables
// and defaults, with no config file required.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling configuration: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}
