// Package netgen writes and runs netgen LVS comparison scripts.
//
// A script loads the layout netlist as circuit 1, builds circuit 2 from the
// PDK reference cells, user-supplied netlists and the top-level netlist,
// applies the family's cell-equivalence rules and finally runs lvs with
// JSON output.
package netgen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/design"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/hier"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/pdk"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/spice"
)

var (
	// ErrTopNotNetlist is returned when circuit 2's top needs extraction.
	ErrTopNotNetlist = errors.New("netgen: top-level design must be a netlist view")
	// ErrLayoutStructural is returned when circuit 1 is a verilog netlist.
	ErrLayoutStructural = errors.New("netgen: circuit 1 must be a transistor netlist")
)

// Step groups directives by their position in the script.
type Step int

const (
	StepLoadLayout Step = iota + 1
	StepLoadReference
	StepLoadOverride
	StepLoadTop
	StepRules
	StepFlatten
	StepCompare
)

func (s Step) String() string {
	switch s {
	case StepLoadLayout:
		return "load-layout"
	case StepLoadReference:
		return "load-reference"
	case StepLoadOverride:
		return "load-override"
	case StepLoadTop:
		return "load-top"
	case StepRules:
		return "rules"
	case StepFlatten:
		return "flatten"
	case StepCompare:
		return "compare"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Directive is one Tcl command (or rule block) of a script.
type Directive struct {
	Step Step
	Text string
}

// Script is an ordered, immutable list of directives.
type Script struct {
	directives []Directive
}

// Directives returns a copy of the script's directives.
func (s *Script) Directives() []Directive {
	return append([]Directive(nil), s.directives...)
}

// Count returns the number of directives of the given step.
func (s *Script) Count(step Step) int {
	n := 0
	for _, d := range s.directives {
		if d.Step == step {
			n++
		}
	}
	return n
}

func (s *Script) String() string {
	var b strings.Builder
	for _, d := range s.directives {
		b.WriteString(d.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteFile writes the script to path.
func (s *Script) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(s.String()), 0o644); err != nil {
		return fmt.Errorf("netgen: write script: %w", err)
	}
	return nil
}

// ScriptInput is everything Generate needs.
type ScriptInput struct {
	// Layout is the circuit 1 design. LayoutNetlist is the netlist to load
	// for it, normally the extraction result; empty means Layout.Path.
	Layout        design.Design
	LayoutNetlist string

	// Top is the circuit 2 top-level netlist.
	Top design.Design

	ReferenceSpice []string // PDK standard-cell netlists
	Spice          []string // user transistor netlists
	Verilog        []string // user gate-level netlists
	VerilogDir     string   // holds {macro}.v for missing macros

	Missing  []string // non-PDK macros still to be accounted for
	Blackbox bool

	Abstract []string // macros flattened in circuit 2

	Family    pdk.Family
	SetupFile string
	Report    string
}

// Generate assembles the comparison script. Macros left unresolved after all
// loads fail the generation with a *hier.UnresolvedError unless Blackbox is
// set; no script is returned in that case.
func Generate(in ScriptInput) (*Script, error) {
	if in.Layout.Kind == design.KindUnsupported {
		return nil, fmt.Errorf("%w: %s", design.ErrUnsupportedFormat, in.Layout.Path)
	}
	if in.Layout.Kind == design.KindStructural {
		return nil, fmt.Errorf("%w: %s", ErrLayoutStructural, in.Layout.Path)
	}
	if !in.Top.IsNetlist() {
		return nil, fmt.Errorf("%w: %s is a %s view", ErrTopNotNetlist, in.Top.Path, in.Top.View)
	}
	layoutNetlist := in.LayoutNetlist
	if layoutNetlist == "" {
		if in.Layout.IsLayout() {
			return nil, fmt.Errorf("netgen: %s has not been extracted", in.Layout.Path)
		}
		layoutNetlist = in.Layout.Path
	}

	s := &Script{}
	add := func(step Step, format string, args ...any) {
		s.directives = append(s.directives, Directive{Step: step, Text: fmt.Sprintf(format, args...)})
	}

	add(StepLoadLayout, "set circuit1 [readnet spice %s]", tclWord(layoutNetlist))
	add(StepLoadReference, "set circuit2 [readnet spice /dev/null]")
	for _, ref := range in.ReferenceSpice {
		add(StepLoadReference, "readnet spice %s $circuit2", tclWord(ref))
	}

	missing := newNameSet(in.Missing)
	for _, path := range in.Spice {
		add(StepLoadOverride, "readnet spice %s $circuit2", tclWord(path))
		missing.remove(baseName(path))
		nl, err := spice.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("netgen: %w", err)
		}
		for _, name := range nl.Names() {
			missing.remove(name)
		}
	}
	for _, path := range in.Verilog {
		add(StepLoadOverride, "readnet verilog %s $circuit2", tclWord(path))
		missing.remove(baseName(path))
	}
	if in.VerilogDir != "" {
		for _, macro := range missing.sorted() {
			path := filepath.Join(in.VerilogDir, macro+".v")
			if _, err := os.Stat(path); err != nil {
				continue
			}
			add(StepLoadOverride, "readnet verilog %s $circuit2", tclWord(path))
			missing.remove(macro)
		}
	}
	if left := missing.sorted(); len(left) > 0 && !in.Blackbox {
		return nil, &hier.UnresolvedError{Macros: left}
	}

	format := "spice"
	if in.Top.View == design.ViewV {
		format = "verilog"
	}
	add(StepLoadTop, "readnet %s %s $circuit2", format, tclWord(in.Top.Path))

	add(StepRules, "set cells1 [cells list -all -circuit1]")
	add(StepRules, "set cells2 [cells list -all -circuit2]")
	for _, r := range RulesFor(in.Family) {
		text, err := r.Render(in.Family)
		if err != nil {
			return nil, err
		}
		add(StepRules, "%s", text)
	}

	for _, macro := range in.Abstract {
		add(StepFlatten, "flatten class \"-circuit2 %s\"", macro)
	}

	add(StepCompare, "lvs \"$circuit1 %s\" \"$circuit2 %s\" %s %s -json",
		in.Layout.Name, in.Top.Name, tclWord(in.SetupFile), tclWord(in.Report))
	return s, nil
}

// tclWord braces s when Tcl would otherwise split or substitute it.
func tclWord(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n;$[]{}\"\\") {
		return s
	}
	return "{" + s + "}"
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	s := make(nameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s nameSet) remove(name string) { delete(s, name) }

func (s nameSet) sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
