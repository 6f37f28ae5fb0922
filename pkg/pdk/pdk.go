// Package pdk locates the files of an installed process design kit and
// indexes the macros its cell libraries declare.
package pdk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEnvironment reports missing or invalid configuration: PDK_ROOT, PDK,
// or any input path a tool is asked to read.
var ErrEnvironment = errors.New("pdk: invalid environment")

// Environment variable names read by FromEnv.
const (
	EnvRoot    = "PDK_ROOT"
	EnvVariant = "PDK"
)

// Config identifies one PDK variant (e.g. $PDK_ROOT/sky130A).
type Config struct {
	Root    string
	Variant string
}

// FromEnv reads PDK_ROOT and PDK and validates them.
func FromEnv() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup is FromEnv with an injectable lookup, for tests and flag
// defaults.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	root, ok := lookup(EnvRoot)
	if !ok || root == "" {
		return Config{}, fmt.Errorf("%w: %s is not exported, please export %s to the right pdk path", ErrEnvironment, EnvRoot, EnvRoot)
	}
	variant, ok := lookup(EnvVariant)
	if !ok || variant == "" {
		return Config{}, fmt.Errorf("%w: %s is not exported, please export %s (e.g. sky130A)", ErrEnvironment, EnvVariant, EnvVariant)
	}
	cfg := Config{Root: root, Variant: variant}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that both the root and the variant directory exist.
func (c Config) Validate() error {
	if c.Root == "" || c.Variant == "" {
		return fmt.Errorf("%w: pdk root and pdk variant are required", ErrEnvironment)
	}
	if !isDir(c.Root) {
		return fmt.Errorf("%w: %s %s doesn't exist", ErrEnvironment, EnvRoot, c.Root)
	}
	if !isDir(c.Path()) {
		return fmt.Errorf("%w: %s doesn't exist", ErrEnvironment, c.Path())
	}
	return nil
}

// Path is $PDK_ROOT/$PDK.
func (c Config) Path() string {
	return filepath.Join(c.Root, c.Variant)
}

// TechDir holds tool setup files (libs.tech).
func (c Config) TechDir() string {
	return filepath.Join(c.Path(), "libs.tech")
}

// RefDir holds the cell libraries (libs.ref).
func (c Config) RefDir() string {
	return filepath.Join(c.Path(), "libs.ref")
}

// MagicRC is the magic startup file for the variant.
func (c Config) MagicRC() string {
	return filepath.Join(c.TechDir(), "magic", c.Variant+".magicrc")
}

// NetgenSetup is the netgen technology setup file for the variant.
func (c Config) NetgenSetup() string {
	return filepath.Join(c.TechDir(), "netgen", c.Variant+"_setup.tcl")
}

// Env returns the variables every PDK-aware tool script expects.
func (c Config) Env() map[string]string {
	return map[string]string{
		EnvRoot:    c.Root,
		EnvVariant: c.Variant,
	}
}

// Family returns the technology family this variant belongs to.
func (c Config) Family() Family {
	return FamilyFor(c.Variant)
}

// RequirePaths fails with ErrEnvironment naming the first missing path.
func RequirePaths(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%w: %s path doesn't exist", ErrEnvironment, p)
		}
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
