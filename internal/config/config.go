// Package config loads testgate's optional configuration file and applies
// environment overrides on top, mirroring flag defaults for the CLI.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"testgate/internal/audit"
)

// DefaultPath is where Load looks when no explicit path is given.
const DefaultPath = ".testgate.yaml"

// Config drives the multi-file runner. The gating engine itself takes no
// configuration; everything here is driver plumbing.
type Config struct {
	// Include is the list of file globs to transform.
	Include []string `yaml:"include"`

	// LogFile is the audit log path, relative to the working directory.
	LogFile string `yaml:"log_file"`

	// Workers bounds the file-level worker pool. Zero means one worker per
	// CPU.
	Workers int `yaml:"workers"`

	// DryRun prints rewritten sources instead of writing files.
	DryRun bool `yaml:"dry_run"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Include: []string{"**/*.test.js", "**/*.test.ts", "**/*.spec.js", "**/*.spec.ts"},
		LogFile: audit.DefaultLogPath,
	}
}

// Load reads the config at path (DefaultPath when empty), then applies env
// overrides. A missing file is not an error: defaults apply.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults.
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	if len(cfg.Include) == 0 {
		cfg.Include = Default().Include
	}
	if cfg.LogFile == "" {
		cfg.LogFile = audit.DefaultLogPath
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TESTGATE_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("TESTGATE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
}
