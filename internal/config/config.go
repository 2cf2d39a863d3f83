// Package config loads bw2kp settings from a YAML file and the environment.
//
// Precedence, lowest first: defaults, config file, environment, command
// line flags. Flags are merged by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source names accepted in the source setting.
const (
	SourceCLI    = "bw-cli"
	SourceExport = "bitwarden"
)

// Environment variables read by ApplyEnv.
const (
	EnvBWSession        = "BW_SESSION"
	EnvBWPath           = "BW_PATH"
	EnvDatabasePath     = "DATABASE_PATH"
	EnvDatabasePassword = "DATABASE_PASSWORD"
	EnvDatabaseKeyfile  = "DATABASE_KEYFILE"
)

// LogConfig configures the optional rotating log file.
type LogConfig struct {
	// File is the log file path. Empty disables file logging.
	File string `yaml:"file"`

	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `yaml:"max_age_days"`

	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`
}

// Config holds the settings of a migration run.
type Config struct {
	// Source selects the vault reader: bw-cli or bitwarden (JSON export).
	Source string `yaml:"source"`

	// Input is the export file read by the bitwarden source.
	Input string `yaml:"input"`

	// BWPath is the bw binary used by the bw-cli source.
	BWPath string `yaml:"bw_path"`

	// BWSession is the session key from `bw unlock --raw`.
	BWSession string `yaml:"bw_session"`

	// DatabasePath is the KeePass file. It is created if missing.
	DatabasePath string `yaml:"database_path"`

	// DatabasePassword unlocks the KeePass file.
	DatabasePassword string `yaml:"database_password"`

	// DatabaseKeyfile is an optional KeePass key file.
	DatabaseKeyfile string `yaml:"database_keyfile"`

	// Delimiter separates nesting levels in folder names.
	Delimiter string `yaml:"delimiter"`

	// DryRun converts everything but does not save the database.
	DryRun bool `yaml:"dry_run"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	Log LogConfig `yaml:"log"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Source:    SourceCLI,
		BWPath:    "bw",
		Delimiter: "/",
		LogLevel:  "info",
	}
}

// LoadConfig loads configuration from path on top of the defaults.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshalling into the defaults keeps every key the file omits.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings with the non-empty environment variables
// reported by lookup. Pass os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.BWSession, EnvBWSession)
	set(&c.BWPath, EnvBWPath)
	set(&c.DatabasePath, EnvDatabasePath)
	set(&c.DatabasePassword, EnvDatabasePassword)
	set(&c.DatabaseKeyfile, EnvDatabaseKeyfile)
}

// Validate checks the settings before any work starts: the destination is
// named, the key file is readable and the vault source is usable.
// A missing password is not checked here; the CLI may still prompt for it.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required (--database-path or %s)", EnvDatabasePath)
	}
	if c.Delimiter == "" {
		return fmt.Errorf("delimiter cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}

	if c.DatabaseKeyfile != "" && !readable(c.DatabaseKeyfile) {
		return fmt.Errorf("key file for KeePass database is not readable: %s", c.DatabaseKeyfile)
	}

	return c.ValidateSource()
}

// ValidateSource checks only the vault side: a known source whose binary or
// export file is usable.
func (c *Config) ValidateSource() error {
	switch c.Source {
	case SourceCLI:
		if _, err := exec.LookPath(c.BWPath); err != nil {
			return fmt.Errorf("bitwarden-cli was not found or not executable; did you set the correct --bw-path? (%s)", c.BWPath)
		}
	case SourceExport:
		if c.Input == "" {
			return fmt.Errorf("the bitwarden source needs an export file (--input)")
		}
		if !readable(c.Input) {
			return fmt.Errorf("export file is not readable: %s", c.Input)
		}
	default:
		return fmt.Errorf("unknown source %q, must be %s or %s", c.Source, SourceCLI, SourceExport)
	}
	return nil
}

func readable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
