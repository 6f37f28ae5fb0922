// Package magic drives the magic VLSI layout tool: netlist extraction for
// LVS and conversions between GDS, MAG, DEF and LEF views.
//
// Every operation runs magic in batch mode with the PDK's magicrc and one of
// the helper scripts embedded in this package. Parameters travel as
// environment variables of the child process only.
package magic

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/design"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/pdk"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/tool"
)

//go:embed scripts/*.tcl
var scripts embed.FS

// Environment variables read by the extraction scripts.
const (
	EnvExtInput  = "ext_inp1"
	EnvExtOutput = "ext_out"
	EnvUseGDS    = "MAGIC_EXT_USE_GDS"
)

// Magic runs magic against one PDK.
type Magic struct {
	Runner  tool.Runner
	PDK     pdk.Config
	Binary  string    // default "magic"
	Console io.Writer // live tool output; nil discards

	// CellAbstracts extracts a GDS against the cell-library abstracts
	// instead of the raw GDS database (MAGIC_EXT_USE_GDS=0).
	CellAbstracts bool
}

func (m *Magic) binary() string {
	if m.Binary == "" {
		return "magic"
	}
	return m.Binary
}

func (m *Magic) console() io.Writer {
	if m.Console == nil {
		return io.Discard
	}
	return m.Console
}

// run materializes the helper scripts, then runs magic on script with env.
func (m *Magic) run(ctx context.Context, script string, env map[string]string, stream io.Writer) error {
	dir, err := os.MkdirTemp("", "otl-magic-")
	if err != nil {
		return fmt.Errorf("magic: %w", err)
	}
	defer os.RemoveAll(dir)
	if err := writeScripts(dir); err != nil {
		return err
	}

	full := m.PDK.Env()
	for k, v := range env {
		full[k] = v
	}
	_, err = m.Runner.Run(ctx, tool.Command{
		Name: m.binary(),
		Args: []string{
			"-dnull",
			"-noconsole",
			"-rcfile", m.PDK.MagicRC(),
			filepath.Join(dir, script),
		},
		Env:    full,
		Stream: stream,
	})
	return err
}

func writeScripts(dir string) error {
	entries, err := fs.ReadDir(scripts, "scripts")
	if err != nil {
		return fmt.Errorf("magic: %w", err)
	}
	for _, e := range entries {
		data, err := scripts.ReadFile("scripts/" + e.Name())
		if err != nil {
			return fmt.Errorf("magic: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644); err != nil {
			return fmt.Errorf("magic: %w", err)
		}
	}
	return nil
}

// ExtractionLog is the per-design extraction log path.
func ExtractionLog(d design.Design, outDir string) string {
	return filepath.Join(outDir, d.Name+"-magic_extraction.log")
}

// Extract produces the transistor netlist for d and returns its path.
// Netlist views are returned unchanged; unknown views fail with
// design.ErrUnsupportedFormat before magic is started.
func (m *Magic) Extract(ctx context.Context, d design.Design, outDir string) (string, error) {
	needed, err := d.RequireExtraction()
	if err != nil {
		return "", err
	}
	if !needed {
		return d.Path, nil
	}

	var script string
	useGDS := "0"
	switch d.Kind {
	case design.KindGeometry:
		script = "extract_gds.tcl"
		if !m.CellAbstracts {
			useGDS = "1"
		}
	case design.KindSymbolic:
		script = "extract_mag.tcl"
	default:
		return "", fmt.Errorf("%w: no extraction procedure for %q", design.ErrUnsupportedFormat, d.View)
	}

	logFile, err := tool.CreateLog(ExtractionLog(d, outDir), m.Console)
	if err != nil {
		return "", fmt.Errorf("magic: %w", err)
	}
	defer logFile.Close()

	err = m.run(ctx, script, map[string]string{
		EnvExtInput:  d.Path,
		EnvExtOutput: outDir,
		EnvUseGDS:    useGDS,
	}, logFile)
	if err != nil {
		return "", err
	}

	out := d.ExtractedPath(outDir)
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("magic: extraction of %s did not produce %s", d.Path, out)
	}
	return out, nil
}
