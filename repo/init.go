/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package repo

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/named-data/ndnrepo/core"
)

// ConfigEnv names the environment variable holding the default configuration file.
const ConfigEnv = "NDNREPO_CONFIG"

// Initialize parses repository flags from args, loads the configuration they
// name, and opens the repository. It returns the arguments it did not consume.
//
// Recognized flags: -config FILE, -backend memory|bolt|sqlite, -path FILE, -log-level LEVEL.
func Initialize(args []string) (*Repository, []string, error) {
	flagset := flag.NewFlagSet("ndnrepo", flag.ContinueOnError)
	flagset.SetOutput(io.Discard)

	var configFile, backend, path, logLevel string
	flagset.StringVar(&configFile, "config", os.Getenv(ConfigEnv), "Configuration file (TOML or YAML)")
	flagset.StringVar(&backend, "backend", "", "Content store backend: memory, bolt or sqlite")
	flagset.StringVar(&path, "path", "", "Database path for persistent backends")
	flagset.StringVar(&logLevel, "log-level", "", "Log level override")

	if err := flagset.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRepositoryConfig, err)
	}

	config := core.DefaultConfig()
	if configFile != "" {
		var err error
		if config, err = core.LoadConfig(configFile); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrRepositoryConfig, err)
		}
	}
	if backend != "" {
		config.Repo.Backend = backend
	}
	if path != "" {
		config.Repo.Path = path
	}
	if logLevel != "" {
		config.Core.LogLevel = logLevel
	}

	r, err := New(config)
	if err != nil {
		return nil, nil, err
	}
	core.SetConfig(config)
	return r, flagset.Args(), nil
}
