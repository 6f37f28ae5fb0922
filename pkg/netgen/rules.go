package netgen

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/pdk"
)

// Rule is a named cell-equivalence heuristic rendered as a Tcl block. The
// block runs after both circuits are loaded and may use $cells1 and $cells2.
// Templates use << >> delimiters since Tcl owns the braces.
type Rule struct {
	Name    string
	applies func(pdk.Family) bool
	tmpl    *template.Template
}

// Applies reports whether the rule has anything to do for family f.
func (r Rule) Applies(f pdk.Family) bool {
	return r.applies == nil || r.applies(f)
}

// Render writes the Tcl for family f.
func (r Rule) Render(f pdk.Family) (string, error) {
	var b strings.Builder
	if err := r.tmpl.Execute(&b, ruleData{
		Fill:       strings.Join(f.FillCellPatterns, "|"),
		SRAM:       f.SRAMPattern,
		SRAMFormat: f.SRAMCellFormat,
	}); err != nil {
		return "", fmt.Errorf("netgen: rule %s: %w", r.Name, err)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

type ruleData struct {
	Fill       string
	SRAM       string
	SRAMFormat string
}

// aliasPattern splits an extracted cell name into a one or two character
// prefix (e.g. "XA_") and the library cell name behind it.
const aliasPattern = `([A-Z][A-Z0-9]_)(.*)`

func newRule(name string, applies func(pdk.Family) bool, text string) Rule {
	return Rule{
		Name:    name,
		applies: applies,
		tmpl:    template.Must(template.New(name).Delims("<<", ">>").Parse(text)),
	}
}

// PrefixAliasRule equates a prefixed cell of circuit 1 with the un-prefixed
// cell of circuit 2 when the prefixed name is unknown to circuit 2 and the
// bare name is not a cell of circuit 1 itself.
var PrefixAliasRule = newRule("prefix-alias", nil, `foreach cell $cells1 {
    if {[regexp {`+aliasPattern+`} $cell match prefix cellname]} {
        if {([lsearch -exact $cells2 $cell] < 0) && \
                ([lsearch -exact $cells2 $cellname] >= 0) && \
                ([lsearch -exact $cells1 $cellname] < 0)} {
            equate classes "-circuit1 $cell" "-circuit2 $cellname"
            equate pins "-circuit1 $cell" "-circuit2 $cellname"
            puts stdout "Matching pins of $cell in circuit 1 and $cellname in circuit 2"
        }
    }
}
`)

// FillCellRule ignores filler and tap cells in circuit 1.
var FillCellRule = newRule("fill-cells", func(f pdk.Family) bool {
	return len(f.FillCellPatterns) > 0
}, `foreach cell $cells1 {
    if {[regexp {^(?:[A-Z][A-Z0-9]_)?(?:<<.Fill>>)$} $cell]} {
        ignore class "-circuit1 $cell"
    }
}
`)

// SRAMMacroRule maps versioned memory macro names onto the canonical
// reference cell they were generated from.
var SRAMMacroRule = newRule("sram-macros", pdk.Family.HasVersionedSRAM, `foreach cell $cells1 {
    if {[regexp {<<.SRAM>>} $cell match cellname]} {
        set cellname [format "<<.SRAMFormat>>" $cellname]
        if {([lsearch -exact $cells2 $cell] < 0) && \
                ([lsearch -exact $cells2 $cellname] >= 0)} {
            equate classes "-circuit1 $cell" "-circuit2 $cellname"
            equate pins "-circuit1 $cell" "-circuit2 $cellname"
            puts stdout "Matching pins of $cell in circuit 1 and $cellname in circuit 2"
        }
    }
}
`)

// CatchAllPrefixRule is the relaxed second pass of PrefixAliasRule: any
// remaining prefixed cell whose bare name exists in circuit 2 is equated.
var CatchAllPrefixRule = newRule("catch-all-prefix", pdk.Family.HasVersionedSRAM, `foreach cell $cells1 {
    if {[regexp {`+aliasPattern+`} $cell match prefix cellname]} {
        if {([lsearch -exact $cells2 $cell] < 0) && \
                ([lsearch -exact $cells2 $cellname] >= 0)} {
            equate classes "-circuit1 $cell" "-circuit2 $cellname"
            equate pins "-circuit1 $cell" "-circuit2 $cellname"
            puts stdout "Matching pins of $cell in circuit 1 and $cellname in circuit 2"
        }
    }
}
`)

// RuleSets lists the rules applied per family name. Families without an
// entry use DefaultRules.
var RuleSets = map[string][]Rule{
	"sky130":   {PrefixAliasRule, FillCellRule, SRAMMacroRule, CatchAllPrefixRule},
	"gf180mcu": {PrefixAliasRule, FillCellRule},
}

// DefaultRules apply to families without a RuleSets entry.
var DefaultRules = []Rule{PrefixAliasRule, FillCellRule}

// RulesFor returns the rules that apply to f, in emission order.
func RulesFor(f pdk.Family) []Rule {
	set, ok := RuleSets[f.Name]
	if !ok {
		set = DefaultRules
	}
	var out []Rule
	for _, r := range set {
		if r.Applies(f) {
			out = append(out, r)
		}
	}
	return out
}
