package pdk

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/lef"
)

// MacroIndex is the set of macro names declared by a PDK's LEF files.
type MacroIndex map[string]struct{}

// NewMacroIndex builds an index from explicit names.
func NewMacroIndex(names ...string) MacroIndex {
	idx := make(MacroIndex, len(names))
	for _, n := range names {
		idx[n] = struct{}{}
	}
	return idx
}

// Has reports whether name is a PDK macro.
func (m MacroIndex) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Len returns the number of distinct macros.
func (m MacroIndex) Len() int {
	return len(m)
}

// Sorted returns the macro names in lexical order.
func (m MacroIndex) Sorted() []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// BuildMacroIndex recursively scans every .lef file under root.
func BuildMacroIndex(root string) (MacroIndex, error) {
	idx := make(MacroIndex)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isLEFFile(path) {
			return nil
		}
		macros, err := lef.ScanFile(path)
		if err != nil {
			return fmt.Errorf("pdk: %w", err)
		}
		for _, m := range macros {
			idx[m] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// MacroIndex scans the variant's cell libraries.
func (c Config) MacroIndex() (MacroIndex, error) {
	return BuildMacroIndex(c.RefDir())
}

func isLEFFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".lef"
}

// ReferenceSpice lists the cell-library spice files of the variant
// ($PDK_ROOT/$PDK/libs.ref/<lib>/spice/*.spice) in lexical order, skipping
// the family's primitive-device libraries.
func (c Config) ReferenceSpice() ([]string, error) {
	pattern := filepath.Join(c.RefDir(), "*", "spice", "*.spice")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("pdk: glob %s: %w", pattern, err)
	}
	family := c.Family()
	var out []string
	for _, m := range matches {
		lib := filepath.Base(filepath.Dir(filepath.Dir(m)))
		if hasAnyPrefix(lib, family.PrimitiveLibs) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}
