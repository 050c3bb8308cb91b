// Package config loads the shardkv server configuration from a YAML file
// and SHARDKV_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/shardkv/pkg/logging"
	"github.com/dd0wney/shardkv/pkg/metrics"
	"github.com/dd0wney/shardkv/pkg/sharding"
	"github.com/dd0wney/shardkv/pkg/shardkv"
	"github.com/dd0wney/shardkv/pkg/validation"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SHARDKV_"

// Config is the complete server configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig maps onto shardkv.Options.
type StoreConfig struct {
	Dir         string  `yaml:"dir" validate:"required"`
	FileShards  int     `yaml:"file_shards" validate:"min=1"`
	GroupShards int     `yaml:"group_shards" validate:"min=1"`
	GroupShift  int     `yaml:"group_shift" validate:"min=1"`
	FilePrefix  string  `yaml:"file_prefix"`
	Extension   string  `yaml:"extension" validate:"required"`
	MaxWorkers  int     `yaml:"max_workers" validate:"min=0"`
	Compress    bool    `yaml:"compress"`
	BloomFPRate float64 `yaml:"bloom_fp_rate"`
	NoSync      bool    `yaml:"no_sync"`
	VerifyIndex bool    `yaml:"verify_index"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" validate:"min=1"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Dir:         "./data",
			FileShards:  sharding.DefaultFileShards,
			GroupShards: sharding.DefaultGroupShards,
			GroupShift:  sharding.DefaultGroupShift,
			FilePrefix:  sharding.DefaultPrefix,
			Extension:   sharding.DefaultExtension,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    64 << 20,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv applies SHARDKV_* overrides to cfg.
func LoadFromEnv(cfg *Config) error {
	strs := map[string]*string{
		"DATA_DIR":    &cfg.Store.Dir,
		"FILE_PREFIX": &cfg.Store.FilePrefix,
		"EXTENSION":   &cfg.Store.Extension,
		"ADDR":        &cfg.Server.Addr,
		"LOG_LEVEL":   &cfg.Log.Level,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FILE_SHARDS":  &cfg.Store.FileShards,
		"GROUP_SHARDS": &cfg.Store.GroupShards,
		"GROUP_SHIFT":  &cfg.Store.GroupShift,
		"MAX_WORKERS":  &cfg.Store.MaxWorkers,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"COMPRESS":     &cfg.Store.Compress,
		"NO_SYNC":      &cfg.Store.NoSync,
		"VERIFY_INDEX": &cfg.Store.VerifyIndex,
	}
	for name, dst := range bools {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
	}
	return nil
}

// Validate checks struct tags first, then the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	err := validation.NewConfigValidator("store").
		When(c.Store.BloomFPRate != 0, func(cv *validation.ConfigValidator) {
			cv.OpenRangeFloat("bloom_fp_rate", c.Store.BloomFPRate, 0, 1)
		}).
		Custom("extension", func() error {
			if strings.ContainsAny(c.Store.Extension, `./\`) {
				return fmt.Errorf("%q must not contain dots or path separators", c.Store.Extension)
			}
			return nil
		}).
		Custom("file_prefix", func() error {
			if strings.ContainsAny(c.Store.FilePrefix, `/\`) {
				return fmt.Errorf("%q must not contain path separators", c.Store.FilePrefix)
			}
			return nil
		}).
		Validate()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StoreOptions builds store options from the configuration.
func (c *Config) StoreOptions(logger logging.Logger, reg *metrics.Registry) shardkv.Options {
	s := c.Store
	return shardkv.Options{
		Dir:         s.Dir,
		FileShards:  s.FileShards,
		GroupShards: s.GroupShards,
		GroupShift:  s.GroupShift,
		FilePrefix:  s.FilePrefix,
		Extension:   s.Extension,
		MaxWorkers:  s.MaxWorkers,
		Compress:    s.Compress,
		BloomFPRate: s.BloomFPRate,
		NoSync:      s.NoSync,
		VerifyIndex: s.VerifyIndex,
		Logger:      logger,
		Metrics:     reg,
	}
}
