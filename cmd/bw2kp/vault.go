package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nvinuesa/bw2kp/internal/config"
	"github.com/nvinuesa/bw2kp/internal/logger"
	"github.com/nvinuesa/bw2kp/internal/security"
	"github.com/nvinuesa/bw2kp/internal/sources"
)

// lookupEnv is replaced in tests.
var lookupEnv = os.LookupEnv

// vaultFlags are the flags shared by every command that reads a vault.
type vaultFlags struct {
	configPath string
	source     string
	input      string
	bwPath     string
	bwSession  string
	delimiter  string
}

func (f *vaultFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "vault source (bw-cli|bitwarden)")
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Bitwarden JSON export (bitwarden source)")
	cmd.Flags().StringVar(&f.bwPath, "bw-path", "", "path to the bw binary (bw-cli source)")
	cmd.Flags().StringVar(&f.bwSession, "bw-session", "", "session key from 'bw unlock --raw'")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "folder nesting delimiter (default \"/\")")
}

// loadConfig merges defaults, the config file, the environment and the
// flags the user actually set, in that order.
func (f *vaultFlags) loadConfig(cmd *cobra.Command, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(lookup)

	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("source", &cfg.Source, f.source)
	override("input", &cfg.Input, f.input)
	override("bw-path", &cfg.BWPath, f.bwPath)
	override("bw-session", &cfg.BWSession, f.bwSession)
	override("delimiter", &cfg.Delimiter, f.delimiter)

	// An input without an explicit source means an export file.
	if cfg.Input != "" && !flags.Changed("source") && cfg.Source == config.SourceCLI {
		cfg.Source = config.SourceExport
	}
	return cfg, nil
}

// openVault resolves the configured source and opens it.
func openVault(cfg *config.Config, log *logger.Logger) (sources.Source, error) {
	registry := sources.DefaultRegistry()

	source, ok := registry.Get(cfg.Source)
	if !ok {
		return nil, fmt.Errorf("unknown source type: %s (try: %s)", cfg.Source, strings.Join(registry.Names(), ", "))
	}

	path := cfg.BWPath
	if cfg.Source == config.SourceExport {
		path = cfg.Input
	}

	opts := sources.OpenOptions{
		Session:      cfg.BWSession,
		Interactive:  stdinIsTerminal(),
		PasswordFunc: promptPassword,
	}

	log.Debugf("Opening %s source at %s.", source.Name(), path)
	if err := source.Open(path, opts); err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	return source, nil
}

// newLogger builds the run logger on w. Verbose wins over quiet.
func newLogger(w io.Writer, cfg *config.Config, verbose, quiet bool) (*logger.Logger, error) {
	level := logger.ParseLevel(cfg.LogLevel)
	switch {
	case verbose:
		level = logger.LevelDebug
	case quiet:
		level = logger.LevelError
	}

	log := logger.New(w, level)
	if cfg.Log.File != "" {
		err := log.SetFile(logger.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}
	return log, nil
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after password
	defer security.Wipe(password)
	return string(password), err
}
