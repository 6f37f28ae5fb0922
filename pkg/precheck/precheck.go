// Package precheck runs the checks of the efabless mpw_precheck repository:
// klayout DRC, the precheck LVS flow and a layout XOR.
package precheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/tool"
)

// DefaultRepoURL is cloned when the precheck checkout is missing.
const DefaultRepoURL = "https://github.com/efabless/mpw_precheck.git"

// DefaultRoot is the checkout location under the user's home directory.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mpw_precheck"
	}
	return filepath.Join(home, "mpw_precheck")
}

// Harness locates (and if needed fetches) the precheck checkout and runs
// its scripts.
type Harness struct {
	Runner  tool.Runner
	Root    string
	RepoURL string
	Python  string // default "python3"
	Git     string // default "git"
	KLayout string // default "klayout"
	Threads int    // XOR threads; 0 means runtime.NumCPU()
	Stdout  io.Writer
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (h *Harness) root() string {
	return orDefault(h.Root, DefaultRoot())
}

// Ensure clones the precheck repository when Root does not exist yet.
func (h *Harness) Ensure(ctx context.Context) error {
	root := h.root()
	if _, err := os.Stat(root); err == nil {
		return nil
	}
	_, err := h.Runner.Run(ctx, tool.Command{
		Name:   orDefault(h.Git, "git"),
		Args:   []string{"clone", orDefault(h.RepoURL, DefaultRepoURL), root},
		Stream: h.Stdout,
	})
	return err
}

// DRC runs the klayout DRC check on gds for the given PDK variant. Reports
// land in out/outputs/reports and logs in out/logs.
func (h *Harness) DRC(ctx context.Context, gds, out, pdkVariant string) error {
	gds, err := filepath.Abs(gds)
	if err != nil {
		return fmt.Errorf("precheck: %w", err)
	}
	if out, err = filepath.Abs(out); err != nil {
		return fmt.Errorf("precheck: %w", err)
	}
	if err := h.Ensure(ctx); err != nil {
		return err
	}
	for _, dir := range []string{"logs", filepath.Join("outputs", "reports")} {
		if err := os.MkdirAll(filepath.Join(out, dir), 0o755); err != nil {
			return fmt.Errorf("precheck: %w", err)
		}
	}
	root := h.root()
	_, err = h.Runner.Run(ctx, tool.Command{
		Name: orDefault(h.Python, "python3"),
		Args: []string{
			filepath.Join(root, "checks", "drc_checks", "klayout", "klayout_gds_drc_check.py"),
			"-g", gds,
			"-o", out,
			"-f", "-b", "-og",
			"-p", pdkVariant,
		},
		Stream: h.Stdout,
	})
	return err
}

// LVSOptions are the inputs of the precheck LVS flow.
type LVSOptions struct {
	DesignName string
	DesignDir  string // holds gds/<design>.gds and verilog/gl/<design>.v
	OutputDir  string
	ConfigFile string
	PDKPath    string // $PDK_ROOT/$PDK
	Tag        string
}

// LVS runs checks/lvs_check/lvs.py from the precheck root.
func (h *Harness) LVS(ctx context.Context, o LVSOptions) error {
	var err error
	for _, p := range []*string{&o.DesignDir, &o.OutputDir, &o.ConfigFile} {
		if *p, err = filepath.Abs(*p); err != nil {
			return fmt.Errorf("precheck: %w", err)
		}
	}
	if err := h.Ensure(ctx); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(o.OutputDir, o.DesignName), 0o755); err != nil {
		return fmt.Errorf("precheck: %w", err)
	}

	root := h.root()
	args := []string{
		filepath.Join(root, "checks", "lvs_check", "lvs.py"),
		"-g", o.DesignDir,
		"-o", o.OutputDir,
		"-d", o.DesignName,
		"-c", o.ConfigFile,
		"-p", o.PDKPath,
	}
	if o.Tag != "" {
		args = append(args, "-t", o.Tag)
	}
	_, err = h.Runner.Run(ctx, tool.Command{
		Name:   orDefault(h.Python, "python3"),
		Args:   args,
		Env:    map[string]string{"PYTHONPATH": root},
		Dir:    root,
		Stream: h.Stdout,
	})
	return err
}

// XORResult names the files an XOR run writes next to the first layout.
type XORResult struct {
	Layout string // <dir(a)>/<top>-xor.gds
	Total  string // <dir(a)>/xor_output.txt
}

// XOR compares two GDS layouts of top cell top with klayout's xor.rb.drc.
func (h *Harness) XOR(ctx context.Context, top, a, b string) (*XORResult, error) {
	var err error
	if a, err = filepath.Abs(a); err != nil {
		return nil, fmt.Errorf("precheck: %w", err)
	}
	if b, err = filepath.Abs(b); err != nil {
		return nil, fmt.Errorf("precheck: %w", err)
	}
	if err := h.Ensure(ctx); err != nil {
		return nil, err
	}

	threads := h.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	res := &XORResult{
		Layout: filepath.Join(filepath.Dir(a), top+"-xor.gds"),
		Total:  filepath.Join(filepath.Dir(a), "xor_output.txt"),
	}
	_, err = h.Runner.Run(ctx, tool.Command{
		Name: orDefault(h.KLayout, "klayout"),
		Args: []string{
			"-r", "xor.rb.drc",
			"-rd", "thr=" + strconv.Itoa(threads),
			"-rd", "top_cell=" + top,
			"-rd", "a=" + a,
			"-rd", "b=" + b,
			"-rd", "ol=" + res.Layout,
			"-rd", "ext=gds",
			"-rd", "xor_total_file_path=" + res.Total,
			"-zz",
		},
		Dir:    filepath.Join(h.root(), "checks", "xor_check"),
		Stream: h.Stdout,
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
