package magic

import (
	"context"
	"strings"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/pdk"
)

// Environment variables read by the conversion scripts.
const (
	EnvMacro         = "MACRO"
	EnvOutput        = "OUTPUT"
	EnvMaglefMacro   = "MAGLEF_MACRO"
	EnvGDSMacro      = "GDS_MACRO"
	EnvMagDir        = "MAG_DIR"
	EnvExtraLEFs     = "EXTRA_LEFS"
	EnvExtraGDS      = "EXTRA_GDS_FILES"
	EnvAllowAbstract = "MAGIC_GDS_ALLOW_ABSTRACT"
)

// Macros are additional cells to load before writing a layout.
type Macros struct {
	Maglef []string // abstract views (.mag)
	MagDir []string // search paths
	GDS    []string // full GDS macros
}

// Conversion is a fully described magic conversion run.
type Conversion struct {
	Script string
	Env    map[string]string
	Paths  []string // must exist before magic starts
}

// Convert validates every path and runs the conversion.
func (m *Magic) Convert(ctx context.Context, c Conversion) error {
	paths := append([]string{}, c.Paths...)
	paths = append(paths, m.PDK.Root, m.PDK.Path())
	if err := pdk.RequirePaths(paths...); err != nil {
		return err
	}
	return m.run(ctx, c.Script, c.Env, m.console())
}

func baseEnv(input, output string) map[string]string {
	return map[string]string{
		EnvMacro:  input,
		EnvOutput: output,
	}
}

func joinList(paths []string) string {
	return strings.Join(paths, " ")
}

func withMacros(c Conversion, macros Macros) Conversion {
	if len(macros.Maglef) > 0 {
		c.Env[EnvMaglefMacro] = joinList(macros.Maglef)
		c.Paths = append(c.Paths, macros.Maglef...)
	}
	if len(macros.GDS) > 0 {
		c.Env[EnvGDSMacro] = joinList(macros.GDS)
		c.Paths = append(c.Paths, macros.GDS...)
	}
	if len(macros.MagDir) > 0 {
		c.Env[EnvMagDir] = joinList(macros.MagDir)
		c.Paths = append(c.Paths, macros.MagDir...)
	}
	return c
}

// GDSToMagConversion builds the gds → mag run.
func GDSToMagConversion(gds, output string) Conversion {
	return Conversion{Script: "gds_to_mag.tcl", Env: baseEnv(gds, output), Paths: []string{gds, output}}
}

// MagToGDSConversion builds the mag → gds run.
func MagToGDSConversion(mag, output string, macros Macros) Conversion {
	c := Conversion{Script: "mag_to_gds.tcl", Env: baseEnv(mag, output), Paths: []string{mag, output}}
	return withMacros(c, macros)
}

// GDSToDEFConversion builds the gds → def run.
func GDSToDEFConversion(gds, output string) Conversion {
	return Conversion{Script: "gds_to_def.tcl", Env: baseEnv(gds, output), Paths: []string{gds, output}}
}

// MagToDEFConversion builds the mag → def run.
func MagToDEFConversion(mag, output string, macros Macros) Conversion {
	c := Conversion{Script: "mag_to_def.tcl", Env: baseEnv(mag, output), Paths: []string{mag, output}}
	return withMacros(c, macros)
}

// DEFToGDSConversion builds the def → gds run. Extra LEFs allow abstract
// views in the written GDS.
func DEFToGDSConversion(def, output string, extraGDS, extraLEF []string) Conversion {
	c := Conversion{Script: "def_to_all.tcl", Env: baseEnv(def, output), Paths: []string{output, def}}
	c.Env["DEF_TO_GDS"] = "1"
	c.Env["DEF_TO_MAG"] = "0"
	c.Env[EnvAllowAbstract] = "0"
	if len(extraLEF) > 0 {
		c.Env[EnvAllowAbstract] = "1"
		c.Env[EnvExtraLEFs] = joinList(extraLEF)
		c.Paths = append(c.Paths, extraLEF...)
	}
	if len(extraGDS) > 0 {
		c.Env[EnvExtraGDS] = joinList(extraGDS)
		c.Paths = append(c.Paths, extraGDS...)
	}
	return c
}

// DEFToMagConversion builds the def → mag run.
func DEFToMagConversion(def, output string) Conversion {
	c := Conversion{Script: "def_to_all.tcl", Env: baseEnv(def, output), Paths: []string{output, def}}
	c.Env["DEF_TO_MAG"] = "1"
	c.Env["DEF_TO_GDS"] = "0"
	return c
}

// LEF source views for ToLEFConversion.
const (
	FromMag = "MAG_TO_LEF"
	FromGDS = "GDS_TO_LEF"
	FromDEF = "DEF_TO_LEF"
)

// ToLEFConversion builds a mag/gds/def → lef run. from is one of FromMag,
// FromGDS or FromDEF.
func ToLEFConversion(from, input, output string) Conversion {
	c := Conversion{Script: "all_to_lef.tcl", Env: baseEnv(input, output), Paths: []string{output, input}}
	for _, k := range []string{FromMag, FromGDS, FromDEF} {
		c.Env[k] = "0"
	}
	c.Env[from] = "1"
	return c
}
