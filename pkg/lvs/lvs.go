package lvs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/design"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/hier"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/magic"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/netgen"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/pdk"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/tool"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/yosys"
)

// ErrInputOrder is returned when the inputs are not (layout or transistor
// netlist, netlist).
var ErrInputOrder = errors.New("lvs: input 1 must be a layout or spice netlist and input 2 a netlist")

// Options are the per-run inputs.
type Options struct {
	Inputs     [2]string
	OutputDir  string
	Blackbox   bool
	Force      bool
	Verilog    []string
	Spice      []string
	VerilogDir string
	Abstract   []string
	KeepScript bool

	// CellAbstracts extracts GDS layouts against the cell-library
	// abstracts.
	CellAbstracts bool
}

func (o Options) overrides() hier.Overrides {
	return hier.Overrides{
		Spice:      o.Spice,
		Verilog:    o.Verilog,
		VerilogDir: o.VerilogDir,
		Blackbox:   o.Blackbox,
	}
}

// Tools names the external binaries.
type Tools struct {
	Magic         string
	Netgen        string
	Yosys         string
	NetgenColumns int
}

// Pipeline wires the collaborators of one LVS run.
type Pipeline struct {
	PDK    pdk.Config
	Tools  Tools
	Runner tool.Runner
	Stdout io.Writer
}

// Result describes the artifacts of a completed run.
type Result struct {
	Layout        design.Design
	Top           design.Design
	Missing       []string // non-PDK macros found in the top netlist
	LayoutNetlist string
	Script        string // removed unless Options.KeepScript
	Log           string
	Report        string
	ReportJSON    string
}

// ArtifactBase is the common prefix of a run's output files.
func ArtifactBase(layout, top design.Design, outDir string) string {
	return filepath.Join(outDir, fmt.Sprintf("%s-%s-vs-%s", layout.Name, layout.View, top.View))
}

func (p *Pipeline) stdout() io.Writer {
	if p.Stdout == nil {
		return io.Discard
	}
	return p.Stdout
}

// Classify builds both designs and enforces the input ordering.
func Classify(inputs [2]string) (layout, top design.Design, err error) {
	if layout, err = design.New(inputs[0]); err != nil {
		return
	}
	if top, err = design.New(inputs[1]); err != nil {
		return
	}
	for _, d := range []design.Design{layout, top} {
		if _, err = d.RequireExtraction(); err != nil {
			return
		}
	}
	if layout.Kind == design.KindStructural {
		err = fmt.Errorf("%w: %s is a %s", ErrInputOrder, layout.Path, layout.Kind)
		return
	}
	if !top.IsNetlist() {
		err = fmt.Errorf("%w: %s is a %s", ErrInputOrder, top.Path, top.Kind)
		return
	}
	return
}

// Run executes the pipeline. Steps run strictly in order and the first
// failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	out := p.stdout()

	layout, top, err := Classify(opts.Inputs)
	if err != nil {
		return nil, err
	}
	outDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("lvs: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("lvs: create output directory: %w", err)
	}

	res := &Result{Layout: layout, Top: top}
	base := ArtifactBase(layout, top, outDir)
	res.Script = base + "-setup.tcl"
	res.Log = base + ".log"
	res.Report = base + ".out"
	res.ReportJSON = netgen.ReportJSONPath(res.Report)

	fmt.Fprintf(out, "LVS: %s vs %s\n", layout, top)

	if top.Translate && !opts.Blackbox {
		missing, err := p.checkHierarchy(ctx, top, outDir, opts)
		if err != nil {
			return nil, err
		}
		res.Missing = missing
	}

	m := &magic.Magic{
		Runner:        p.Runner,
		PDK:           p.PDK,
		Binary:        p.Tools.Magic,
		Console:       out,
		CellAbstracts: opts.CellAbstracts,
	}
	res.LayoutNetlist, err = m.Extract(ctx, layout, outDir)
	if err != nil {
		return nil, err
	}
	if layout.Extract == design.ExtractYes {
		fmt.Fprintf(out, "✓ Extracted %s\n", res.LayoutNetlist)
	}

	refs, err := p.PDK.ReferenceSpice()
	if err != nil {
		return nil, err
	}
	script, err := netgen.Generate(netgen.ScriptInput{
		Layout:         layout,
		LayoutNetlist:  res.LayoutNetlist,
		Top:            top,
		ReferenceSpice: refs,
		Spice:          opts.Spice,
		Verilog:        opts.Verilog,
		VerilogDir:     opts.VerilogDir,
		Missing:        res.Missing,
		Blackbox:       opts.Blackbox,
		Abstract:       opts.Abstract,
		Family:         p.PDK.Family(),
		SetupFile:      p.PDK.NetgenSetup(),
		Report:         res.Report,
	})
	if err != nil {
		return nil, err
	}
	if err := script.WriteFile(res.Script); err != nil {
		return nil, err
	}
	if !opts.KeepScript {
		defer os.Remove(res.Script)
	}

	cmp := &netgen.Comparator{
		Runner:  p.Runner,
		Binary:  p.Tools.Netgen,
		Columns: p.Tools.NetgenColumns,
		Env:     p.PDK.Env(),
	}
	if err := cmp.Compare(ctx, res.Script, res.Log, out); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "✓ Comparison finished\n")
	fmt.Fprintf(out, "  Log:    %s\n", res.Log)
	fmt.Fprintf(out, "  Report: %s\n", res.Report)
	return res, nil
}

// checkHierarchy lists the non-PDK macros of a verilog top and applies the
// override policy.
func (p *Pipeline) checkHierarchy(ctx context.Context, top design.Design, outDir string, opts Options) ([]string, error) {
	out := p.stdout()
	inspector := &yosys.Inspector{Runner: p.Runner, Binary: p.Tools.Yosys, WorkDir: outDir}
	graph, err := inspector.Inspect(ctx, top.Path)
	if err != nil {
		return nil, err
	}
	if err := yosys.CheckWarnings(graph, top.Path, opts.Force); err != nil {
		return nil, err
	}
	for _, w := range graph.Warnings {
		fmt.Fprintf(out, "  %s\n", w)
	}

	index, err := p.PDK.MacroIndex()
	if err != nil {
		return nil, err
	}
	missing := hier.Resolve(graph.Instances, index)
	fmt.Fprintf(out, "✓ %s: %d instances, %d PDK macros indexed, %d non-PDK macros\n",
		graph.Module, len(graph.Instances), index.Len(), len(missing))
	for _, m := range missing {
		fmt.Fprintf(out, "  %s\n", m)
	}
	if err := hier.Check(missing, opts.overrides()); err != nil {
		return nil, err
	}
	return missing, nil
}
