// Package config loads the feed server configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config drives `tether serve`.
type Config struct {
	Listen    string        `mapstructure:"listen"`
	LogLevel  string        `mapstructure:"log_level"`
	Heartbeat time.Duration `mapstructure:"heartbeat"`
	Demo      Demo          `mapstructure:"demo"`
	Redis     Redis         `mapstructure:"redis"`
}

// Demo configures the synthetic workload that keeps the feed busy.
type Demo struct {
	Enabled  bool          `mapstructure:"enabled"`
	Objects  int           `mapstructure:"objects"`
	Interval time.Duration `mapstructure:"interval"`
}

// Redis configures the optional stream mirror.
type Redis struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:    ":8787",
		LogLevel:  "info",
		Heartbeat: 15 * time.Second,
		Demo: Demo{
			Objects:  4,
			Interval: 750 * time.Millisecond,
		},
		Redis: Redis{
			Addr:   "localhost:6379",
			Stream: "tether:events",
		},
	}
}

// Load reads a YAML file over the defaults. YAML is decoded to a generic map
// first and then mapped onto the struct, so duration fields accept "15s"
// style strings.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, fmt.Errorf("build config decoder: %w", err)
	}
	if err := dec.Decode(tree); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
