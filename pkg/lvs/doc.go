// Package lvs runs a layout-vs-schematic comparison with the open-source
// tools of an installed PDK.
//
// # Overview
//
// A run takes two files. The first is the layout (gds or mag) or a
// transistor-level netlist (spice, cdl); the second is the reference
// netlist (v, spice, cdl). The pipeline:
//  1. Classify both inputs and reject unsupported views
//  2. For a verilog reference, flatten it with yosys and list the cell
//     types the PDK does not provide; fail unless every one of them is
//     covered by --spice, --verilog, --verilog_directory or --blackbox
//  3. Extract the layout to spice with magic
//  4. Write the netgen script: layout netlist, PDK reference libraries,
//     user overrides, the top netlist, equivalence rules, flatten
//     directives and the final lvs command
//  5. Run netgen and stream its output to the console and the log
//
// Steps run in order and the first failure aborts the run.
//
// # Usage
//
//	p, err := pdk.FromEnv()
//	pipeline := &lvs.Pipeline{PDK: p, Runner: tool.ExecRunner{}, Stdout: os.Stdout}
//	res, err := pipeline.Run(ctx, lvs.Options{
//		Inputs:    [2]string{"user_proj.gds", "user_proj.v"},
//		OutputDir: "lvs_out",
//	})
//
//	report, err := netgen.ReadReport(res.ReportJSON)
//	fmt.Println(report.Match())
//
// # Artifacts
//
// Everything is written to the output directory under the base name
// {name1}-{view1}-vs-{view2}:
//   - {base}.log           netgen console output
//   - {base}.out           netgen report
//   - {base}.json          report summary
//   - {base}-setup.tcl     generated script (only with KeepScript)
//   - {name}-magic_extraction.log and {name}-{view}-extracted.spice
package lvs
