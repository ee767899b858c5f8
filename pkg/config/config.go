// Package config loads the configuration of solrepl from a YAML file and
// command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"src.solrepl.sh/pkg/prog"
)

// Supported diagnostic grammars.
const (
	GrammarSolc08 = "solc-0.8"
	GrammarSolc04 = "solc-0.4"
)

// Config keeps the configuration.
type Config struct {
	// URL of the Ethereum JSON-RPC endpoint.
	RPC string `yaml:"rpc"`
	// Path or name of the solc binary.
	Solc string `yaml:"solc"`
	// Version constraint written in the pragma of synthesized contracts.
	// Empty means the default of the grammar.
	Pragma string `yaml:"pragma"`
	// Diagnostic grammar of the compiler.
	Grammar string `yaml:"grammar"`
	// Gas supplied to deployments.
	Gas uint64 `yaml:"gas"`
	// Sender account. Empty means the first account of the node.
	Account string `yaml:"account"`
	// Whether to show compiler warnings.
	Warnings bool `yaml:"warnings"`
	// Path to the history database. Empty means the default path.
	DB string `yaml:"db"`
	// Timeout of each evaluation. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		RPC:     "http://localhost:8545",
		Solc:    "solc",
		Grammar: GrammarSolc08,
		Gas:     3000000,
	}
}

// Dir returns the directory holding config.yaml: $XDG_CONFIG_HOME/solrepl,
// or ~/.config/solrepl.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "solrepl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find config directory: %w", err)
	}
	return filepath.Join(home, ".config", "solrepl"), nil
}

// DataDir returns the directory holding the history database:
// $XDG_STATE_HOME/solrepl, or ~/.local/state/solrepl.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "solrepl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find data directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "solrepl"), nil
}

// Load reads the configuration from a file, starting from the defaults. If
// path is empty, the default path is used, and a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.yaml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes YAML into cfg, leaving fields that are absent from the input
// unchanged. Unknown fields are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(cfg)
	if err == io.EOF {
		// Empty document.
		return nil
	}
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	switch cfg.Grammar {
	case GrammarSolc08, GrammarSolc04:
	default:
		return fmt.Errorf("unknown grammar %q, want %s or %s", cfg.Grammar, GrammarSolc08, GrammarSolc04)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("negative timeout %v", cfg.Timeout)
	}
	return nil
}

// ApplyFlags overrides the configuration with flags that were explicitly set
// on the command line.
func (cfg *Config) ApplyFlags(f *prog.Flags) error {
	if f.Set["rpc"] {
		cfg.RPC = f.RPC
	}
	if f.Set["solc"] {
		cfg.Solc = f.Solc
	}
	if f.Set["pragma"] {
		cfg.Pragma = f.Pragma
	}
	if f.Set["grammar"] {
		cfg.Grammar = f.Grammar
	}
	if f.Set["db"] {
		cfg.DB = f.DB
	}
	if f.Set["warnings"] {
		cfg.Warnings = f.Warnings
	}
	if f.Set["timeout"] {
		cfg.Timeout = f.Timeout
	}
	return cfg.Validate()
}

// FromFlags loads the configuration file named by the -config flag (or the
// default one), and applies the other flags on top.
func FromFlags(f *prog.Flags) (Config, error) {
	cfg, err := Load(f.Config)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.ApplyFlags(f)
}

// DBPath returns the path of the history database, creating its directory if
// needed.
func (cfg *Config) DBPath(mkdir func(string) error) (string, error) {
	if cfg.DB != "" {
		return cfg.DB, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := mkdir(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, "db.bolt"), nil
}
