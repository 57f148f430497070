/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml"
)

// Supported content store backends.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSqlite = "sqlite"
)

// Config is the repository configuration. It can be loaded from TOML or YAML.
type Config struct {
	Core struct {
		// Log level: TRACE, DEBUG, INFO, WARN, ERROR, FATAL
		LogLevel string `toml:"log_level" yaml:"log_level"`
		// Log file; stdout if empty
		LogFile string `toml:"log_file" yaml:"log_file"`
	} `toml:"core" yaml:"core"`

	Repo struct {
		// Storage engine: memory, bolt or sqlite
		Backend string `toml:"backend" yaml:"backend"`
		// Database path for persistent backends
		Path string `toml:"path" yaml:"path"`
		// Compress stored records with zstd
		Compress bool `toml:"compress" yaml:"compress"`
		// Number of decoded objects kept in memory
		CacheSize int `toml:"cache_size" yaml:"cache_size"`
		// Reject saveContent of an object that is already stored
		RejectDuplicates bool `toml:"reject_duplicates" yaml:"reject_duplicates"`
		// Maximum content size of a versioned object segment
		SegmentSize int `toml:"segment_size" yaml:"segment_size"`
	} `toml:"repo" yaml:"repo"`

	Pit struct {
		// Lifetime in milliseconds of interests that do not carry one
		DefaultLifetime int `toml:"default_lifetime" yaml:"default_lifetime"`
		// Interval in milliseconds between expiry sweeps
		ExpiryInterval int `toml:"expiry_interval" yaml:"expiry_interval"`
	} `toml:"pit" yaml:"pit"`

	Dispatch struct {
		// Number of delivery threads
		Threads int `toml:"threads" yaml:"threads"`
		// Per-thread queue size
		QueueSize int `toml:"queue_size" yaml:"queue_size"`
		// Collection window in milliseconds for standing filter batches (0 = one batch per put)
		BatchWindow int `toml:"batch_window" yaml:"batch_window"`
	} `toml:"dispatch" yaml:"dispatch"`

	Faces struct {
		Unix struct {
			Enabled    bool   `toml:"enabled" yaml:"enabled"`
			SocketPath string `toml:"socket_path" yaml:"socket_path"`
		} `toml:"unix" yaml:"unix"`
		Tcp struct {
			Enabled bool   `toml:"enabled" yaml:"enabled"`
			Bind    string `toml:"bind" yaml:"bind"`
			Port    uint16 `toml:"port" yaml:"port"`
		} `toml:"tcp" yaml:"tcp"`
		WebSocket struct {
			Enabled bool   `toml:"enabled" yaml:"enabled"`
			Bind    string `toml:"bind" yaml:"bind"`
			Port    uint16 `toml:"port" yaml:"port"`
		} `toml:"websocket" yaml:"websocket"`
	} `toml:"faces" yaml:"faces"`

	Mgmt struct {
		Enabled bool   `toml:"enabled" yaml:"enabled"`
		Bind    string `toml:"bind" yaml:"bind"`
	} `toml:"mgmt" yaml:"mgmt"`

	Ingest struct {
		Enabled bool   `toml:"enabled" yaml:"enabled"`
		Dir     string `toml:"dir" yaml:"dir"`
		Prefix  string `toml:"prefix" yaml:"prefix"`
	} `toml:"ingest" yaml:"ingest"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	c := &Config{}

	c.Core.LogLevel = "INFO"

	c.Repo.Backend = BackendMemory
	c.Repo.CacheSize = 1024
	c.Repo.SegmentSize = 8000

	c.Pit.DefaultLifetime = 4000
	c.Pit.ExpiryInterval = 100

	c.Dispatch.Threads = 4
	c.Dispatch.QueueSize = 1024

	c.Faces.Unix.Enabled = true
	c.Faces.Unix.SocketPath = "/run/ndnrepo.sock"
	c.Faces.Tcp.Enabled = true
	c.Faces.Tcp.Port = 7376
	c.Faces.WebSocket.Enabled = false
	c.Faces.WebSocket.Port = 9797

	c.Mgmt.Enabled = true
	c.Mgmt.Bind = "127.0.0.1:7377"

	c.Ingest.Prefix = "/ingest"
	return c
}

// Validate checks the configuration for values the repository cannot run with.
func (c *Config) Validate() error {
	logLevels := []interface{}{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	backends := []interface{}{BackendMemory, BackendBolt, BackendSqlite}

	err := validation.Errors{
		"core.log_level":    validation.Validate(strings.ToUpper(c.Core.LogLevel), validation.In(logLevels...)),
		"repo.backend":      validation.Validate(c.Repo.Backend, validation.Required, validation.In(backends...)),
		"repo.cache_size":   validation.Validate(c.Repo.CacheSize, validation.Min(0)),
		"repo.segment_size": validation.Validate(c.Repo.SegmentSize, validation.Required, validation.Min(64)),
		"pit.default_lifetime": validation.Validate(c.Pit.DefaultLifetime,
			validation.Required, validation.Min(1)),
		"pit.expiry_interval": validation.Validate(c.Pit.ExpiryInterval, validation.Required, validation.Min(1)),
		"dispatch.threads":    validation.Validate(c.Dispatch.Threads, validation.Required, validation.Min(1), validation.Max(256)),
		"dispatch.queue_size": validation.Validate(c.Dispatch.QueueSize, validation.Required, validation.Min(1)),
		"dispatch.batch_window": validation.Validate(c.Dispatch.BatchWindow,
			validation.Min(0), validation.Max(10000)),
		"ingest.prefix": validation.Validate(c.Ingest.Prefix,
			validation.When(c.Ingest.Enabled, validation.Required)),
		"ingest.dir": validation.Validate(c.Ingest.Dir,
			validation.When(c.Ingest.Enabled, validation.Required)),
	}.Filter()
	if err != nil {
		return err
	}

	if c.Repo.Backend != BackendMemory && c.Repo.Path == "" {
		return fmt.Errorf("repo.path: required for the %s backend", c.Repo.Backend)
	}
	return nil
}

// PitDefaultLifetime returns the configured default interest lifetime.
func (c *Config) PitDefaultLifetime() time.Duration {
	return time.Duration(c.Pit.DefaultLifetime) * time.Millisecond
}

// PitExpiryInterval returns the configured interval between expiry sweeps.
func (c *Config) PitExpiryInterval() time.Duration {
	return time.Duration(c.Pit.ExpiryInterval) * time.Millisecond
}

// DispatchBatchWindow returns the configured filter batching window.
func (c *Config) DispatchBatchWindow() time.Duration {
	return time.Duration(c.Dispatch.BatchWindow) * time.Millisecond
}

var config atomic.Pointer[Config]

// GetConfig returns the process-wide configuration, or the defaults if none was set.
func GetConfig() *Config {
	if c := config.Load(); c != nil {
		return c
	}
	return DefaultConfig()
}

// SetConfig replaces the process-wide configuration.
func SetConfig(c *Config) {
	config.Store(c)
}

// LoadConfig loads a configuration file on top of the defaults.
// The format is chosen by extension: .yml and .yaml are YAML, anything else is TOML.
func LoadConfig(file string) (*Config, error) {
	c := DefaultConfig()

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yml", ".yaml":
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f, yaml.Strict())
		if err = dec.Decode(c); err != nil {
			return nil, fmt.Errorf("unable to parse configuration file: %w", err)
		}
	default:
		tree, err := toml.LoadFile(file)
		if err != nil {
			return nil, fmt.Errorf("unable to load configuration file: %w", err)
		}
		if err = tree.Unmarshal(c); err != nil {
			return nil, fmt.Errorf("unable to parse configuration file: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
