package pdk

// Family holds the naming conventions of one technology family. Regular
// expressions are Tcl (ARE) syntax because they end up in netgen scripts.
type Family struct {
	Name string

	// VariantPrefixes select the family from the PDK variant name.
	VariantPrefixes []string

	// PrimitiveLibs are libs.ref library names holding device models; their
	// spice files are never loaded as cell references.
	PrimitiveLibs []string

	// FillCellPatterns match layout-only cells that carry no devices worth
	// comparing (fill, decap-free taps).
	FillCellPatterns []string

	// SRAMPattern matches versioned memory macro names and captures the
	// canonical cell name as its last group. Empty when the family has no
	// such naming scheme.
	SRAMPattern string

	// SRAMCellFormat turns the captured canonical name back into the
	// reference library cell name (fmt verb %s).
	SRAMCellFormat string
}

// HasVersionedSRAM reports whether the family advertises the versioned
// memory-macro naming scheme.
func (f Family) HasVersionedSRAM() bool {
	return f.SRAMPattern != ""
}

// Families is the table of known technology families. The last entry is the
// fallback.
var Families = []Family{
	{
		Name:            "sky130",
		VariantPrefixes: []string{"sky130"},
		PrimitiveLibs:   []string{"sky130_fd_pr"},
		FillCellPatterns: []string{
			`sky130_fd_sc_[^_]+__fill_[[:digit:]]+`,
			`sky130_fd_sc_[^_]+__tapvpwrvgnd_[[:digit:]]+`,
			`sky130_ef_sc_[^_]+__fill_[[:digit:]]+`,
		},
		SRAMPattern:    `sky130_sram_[^_]+_[^_]+_[^_]+_[^_]+_[^_]+_(.+)`,
		SRAMCellFormat: "sky130_fd_bd_sram__%s",
	},
	{
		Name:            "gf180mcu",
		VariantPrefixes: []string{"gf180mcu"},
		PrimitiveLibs:   []string{"gf180mcu_fd_pr"},
		FillCellPatterns: []string{
			`gf180mcu_fd_sc_[^_]+__fill_[[:digit:]]+`,
			`gf180mcu_fd_sc_[^_]+__filltie`,
			`gf180mcu_fd_sc_[^_]+__endcap`,
		},
	},
	{
		Name: "generic",
	},
}

// FamilyFor picks the family whose variant prefix matches, or the generic
// fallback.
func FamilyFor(variant string) Family {
	for _, f := range Families {
		if hasAnyPrefix(variant, f.VariantPrefixes) {
			return f
		}
	}
	return Families[len(Families)-1]
}
