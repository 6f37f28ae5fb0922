// Package design classifies LVS input files by their extension.
package design

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when a file's view cannot take part in the
// requested operation.
var ErrUnsupportedFormat = errors.New("design: unsupported format")

// View is the file extension a design was loaded from, without the dot.
type View string

const (
	ViewGDS   View = "gds"
	ViewMag   View = "mag"
	ViewSpice View = "spice"
	ViewV     View = "v"
	ViewCDL   View = "cdl"
)

// Kind groups views by what the file describes.
type Kind int

const (
	KindUnsupported Kind = iota
	KindGeometry         // layout database (GDS)
	KindSymbolic         // symbolic layout (magic .mag)
	KindStructural       // gate-level verilog
	KindTransistor       // spice / cdl
)

func (k Kind) String() string {
	switch k {
	case KindGeometry:
		return "layout-geometry"
	case KindSymbolic:
		return "layout-symbolic"
	case KindStructural:
		return "structural-netlist"
	case KindTransistor:
		return "transistor-netlist"
	default:
		return "unsupported"
	}
}

// Extraction is the tri-state answer to "does this file need extraction".
type Extraction int

const (
	ExtractUnsupported Extraction = iota
	ExtractNo
	ExtractYes
)

func (e Extraction) String() string {
	switch e {
	case ExtractYes:
		return "yes"
	case ExtractNo:
		return "no"
	default:
		return "unsupported"
	}
}

// Design describes a single LVS input.
type Design struct {
	Path      string // absolute path
	View      View
	Kind      Kind
	Name      string // base name without extension
	Extract   Extraction
	Translate bool // structural netlist that needs hierarchy translation
}

// New classifies path. It never fails for unknown extensions; the returned
// design carries ExtractUnsupported and fails when extraction is attempted.
func New(path string) (Design, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Design{}, fmt.Errorf("design: resolve %s: %w", path, err)
	}
	view, name := splitView(abs)
	kind, extract := classify(view)
	return Design{
		Path:      abs,
		View:      view,
		Kind:      kind,
		Name:      name,
		Extract:   extract,
		Translate: view == ViewV,
	}, nil
}

// Classify returns the kind and extraction state for a view.
func Classify(view View) (Kind, Extraction) {
	return classify(view)
}

func classify(view View) (Kind, Extraction) {
	switch view {
	case ViewGDS:
		return KindGeometry, ExtractYes
	case ViewMag:
		return KindSymbolic, ExtractYes
	case ViewV:
		return KindStructural, ExtractNo
	case ViewSpice, ViewCDL:
		return KindTransistor, ExtractNo
	default:
		return KindUnsupported, ExtractUnsupported
	}
}

func splitView(path string) (View, string) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return View(strings.TrimPrefix(ext, ".")), strings.TrimSuffix(base, ext)
}

// RequireExtraction reports whether the design needs extraction and fails
// with ErrUnsupportedFormat when the view is unknown.
func (d Design) RequireExtraction() (bool, error) {
	switch d.Extract {
	case ExtractYes:
		return true, nil
	case ExtractNo:
		return false, nil
	default:
		return false, fmt.Errorf("%w: LVS on %q files not supported (%s)", ErrUnsupportedFormat, d.View, d.Path)
	}
}

// IsNetlist reports whether the file already is a netlist (structural or
// transistor level).
func (d Design) IsNetlist() bool {
	return d.Kind == KindStructural || d.Kind == KindTransistor
}

// IsLayout reports whether the file is a geometry or symbolic layout view.
func (d Design) IsLayout() bool {
	return d.Kind == KindGeometry || d.Kind == KindSymbolic
}

// ExtractedPath is where extraction of d writes its spice netlist.
func (d Design) ExtractedPath(outDir string) string {
	return filepath.Join(outDir, fmt.Sprintf("%s-%s-extracted.spice", d.Name, d.View))
}

// NetlistPath returns the transistor netlist that represents d in a
// comparison: the extraction output for layouts, the file itself otherwise.
func (d Design) NetlistPath(outDir string) string {
	if d.Extract == ExtractYes {
		return d.ExtractedPath(outDir)
	}
	return d.Path
}

func (d Design) String() string {
	return fmt.Sprintf("%s (%s, %s)", filepath.Base(d.Path), d.View, d.Kind)
}
