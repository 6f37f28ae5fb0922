// Package hier works out which macros a gate-level netlist instantiates that
// the PDK does not provide.
package hier

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnresolved is matched by every UnresolvedError.
var ErrUnresolved = errors.New("hier: unresolved macros")

// InstanceMap maps instance name to macro type for one module.
type InstanceMap map[string]string

// Types returns the distinct macro types, sorted.
func (m InstanceMap) Types() []string {
	seen := make(map[string]struct{}, len(m))
	for _, typ := range m {
		seen[typ] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for typ := range seen {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Index is anything that can answer "is this a PDK macro". pdk.MacroIndex
// satisfies it.
type Index interface {
	Has(name string) bool
}

// Resolve returns the sorted, de-duplicated macro types of instances that
// the index does not know.
func Resolve(instances InstanceMap, index Index) []string {
	var missing []string
	for _, typ := range instances.Types() {
		if !index.Has(typ) {
			missing = append(missing, typ)
		}
	}
	return missing
}

// Overrides are the ways a caller can explain non-PDK macros.
type Overrides struct {
	Spice      []string
	Verilog    []string
	VerilogDir string
	Blackbox   bool
}

// Any reports whether at least one override was supplied.
func (o Overrides) Any() bool {
	return len(o.Spice) > 0 || len(o.Verilog) > 0 || o.VerilogDir != "" || o.Blackbox
}

// UnresolvedError names the macros nothing accounts for.
type UnresolvedError struct {
	Macros []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("hier: the following macros are not part of the PDK and were not provided: %s; "+
		"pass them with --spice, --verilog or --verilog_directory, or use --blackbox",
		strings.Join(e.Macros, ", "))
}

func (e *UnresolvedError) Is(target error) bool { return target == ErrUnresolved }

// Check applies the hierarchy policy: non-PDK macros with no override at all
// make full comparison impossible.
func Check(missing []string, o Overrides) error {
	if len(missing) == 0 || o.Any() {
		return nil
	}
	return &UnresolvedError{Macros: append([]string(nil), missing...)}
}
