// Package yosys flattens a gate-level verilog netlist into the list of cell
// instances of its top module, using yosys' JSON backend.
package yosys

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/hier"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/tool"
)

//go:embed scripts/to-json.tcl
var toJSONScript []byte

// Environment variables read by the embedded script.
const (
	EnvVerilogIn = "YOSYS_VERILOG_IN"
	EnvJSONOut   = "YOSYS_JSON_OUT"
)

// Inspector runs yosys on one netlist at a time.
type Inspector struct {
	Runner  tool.Runner
	Binary  string // default "yosys"
	WorkDir string // where the JSON intermediate is written
}

// Result is the top module's instance list plus any warnings yosys printed.
type Result struct {
	Module    string
	Instances hier.InstanceMap
	Warnings  []string
}

// document is the subset of yosys' write_json output we read.
type document struct {
	Modules map[string]struct {
		Cells map[string]struct {
			Type string `json:"type"`
		} `json:"cells"`
	} `json:"modules"`
}

// Inspect reads path and returns the cells of the module named after the
// file. The JSON intermediate is removed before returning.
func (in *Inspector) Inspect(ctx context.Context, path string) (*Result, error) {
	binary := in.Binary
	if binary == "" {
		binary = "yosys"
	}
	module := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	scriptDir, err := os.MkdirTemp("", "otl-yosys-")
	if err != nil {
		return nil, fmt.Errorf("yosys: %w", err)
	}
	defer os.RemoveAll(scriptDir)
	script := filepath.Join(scriptDir, "to-json.tcl")
	if err := os.WriteFile(script, toJSONScript, 0o644); err != nil {
		return nil, fmt.Errorf("yosys: %w", err)
	}

	workDir := in.WorkDir
	if workDir == "" {
		workDir = scriptDir
	}
	jsonPath := filepath.Join(workDir, module+"-yosys.json")

	res, err := in.Runner.Run(ctx, tool.Command{
		Name: binary,
		Args: []string{"-c", script},
		Env: map[string]string{
			EnvVerilogIn: path,
			EnvJSONOut:   jsonPath,
		},
	})
	if err != nil {
		return nil, err
	}
	defer os.Remove(jsonPath)

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("yosys: read %s: %w", jsonPath, err)
	}
	instances, err := ParseJSON(data, module)
	if err != nil {
		return nil, err
	}
	return &Result{
		Module:    module,
		Instances: instances,
		Warnings:  Warnings(res.Output),
	}, nil
}

// ParseJSON extracts the cells of module from a yosys JSON dump.
func ParseJSON(data []byte, module string) (hier.InstanceMap, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yosys: decode json: %w", err)
	}
	mod, ok := doc.Modules[module]
	if !ok {
		return nil, fmt.Errorf("yosys: module %q not found in netlist (the top module must be named after the file)", module)
	}
	instances := make(hier.InstanceMap, len(mod.Cells))
	for name, cell := range mod.Cells {
		instances[name] = cell.Type
	}
	return instances, nil
}

// Warnings returns the "Warning:" lines of yosys output.
func Warnings(output []byte) []string {
	var out []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Warning:") {
			out = append(out, line)
		}
	}
	return out
}

// ErrWarnings is matched by every WarningsError.
var ErrWarnings = errors.New("yosys: translation produced warnings")

// WarningsError reports a translation that yosys accepted with warnings.
type WarningsError struct {
	Path     string
	Warnings []string
}

func (e *WarningsError) Error() string {
	return fmt.Sprintf("yosys: %d warning(s) while reading %s (use --force to continue):\n  %s",
		len(e.Warnings), e.Path, strings.Join(e.Warnings, "\n  "))
}

func (e *WarningsError) Is(target error) bool { return target == ErrWarnings }

// CheckWarnings fails on translation warnings unless force is set.
func CheckWarnings(r *Result, path string, force bool) error {
	if force || len(r.Warnings) == 0 {
		return nil
	}
	return &WarningsError{Path: path, Warnings: r.Warnings}
}
