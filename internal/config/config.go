// Package config loads the optional user configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/netgen"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/precheck"
)

// Tools holds the binaries to run. Values may be names looked up in PATH or
// absolute paths.
type Tools struct {
	Magic   string `yaml:"magic"`
	Netgen  string `yaml:"netgen"`
	Yosys   string `yaml:"yosys"`
	KLayout string `yaml:"klayout"`
	Python  string `yaml:"python3"`
	Git     string `yaml:"git"`
}

// Precheck locates the mpw_precheck checkout.
type Precheck struct {
	Root string `yaml:"root"`
	Repo string `yaml:"repo"`
}

// Config is the user configuration.
type Config struct {
	Tools         Tools    `yaml:"tools"`
	Precheck      Precheck `yaml:"precheck"`
	NetgenColumns int      `yaml:"netgen_columns"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tools: Tools{
			Magic:   "magic",
			Netgen:  "netgen",
			Yosys:   "yosys",
			KLayout: "klayout",
			Python:  "python3",
			Git:     "git",
		},
		Precheck: Precheck{
			Root: precheck.DefaultRoot(),
			Repo: precheck.DefaultRepoURL,
		},
		NetgenColumns: netgen.DefaultColumns,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/opentracelvs/config.yaml, falling back to
// ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "opentracelvs", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.NetgenColumns <= 0 {
		cfg.NetgenColumns = netgen.DefaultColumns
	}
	return cfg, nil
}

// Write encodes cfg as YAML.
func Write(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return enc.Close()
}
