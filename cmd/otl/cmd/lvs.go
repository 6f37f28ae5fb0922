package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/lvs"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/netgen"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/pdk"
)

var (
	lvsInputs     []string
	lvsOutputDir  string
	lvsBlackbox   bool
	lvsForce      bool
	lvsVerilog    []string
	lvsVerilogDir string
	lvsSpice      []string
	lvsAbstract   []string
	lvsKeepScript bool
	lvsAbstracts  bool
)

var lvsCmd = &cobra.Command{
	Use:   "lvs",
	Short: "Compare a layout against its netlist",
	Long: `Run layout-vs-schematic on two inputs. The first is the layout (gds, mag)
or a spice/cdl netlist, the second the reference netlist (v, spice, cdl).

Layouts are extracted with magic. A gate-level verilog reference is
flattened with yosys first and every instantiated macro that is not part of
the PDK must be provided with --spice, --verilog or --verilog_directory,
unless --blackbox is given. The comparison runs in netgen; results are
written to <output_dir>/<name>-<view>-vs-<view>.{log,out,json}.
The top cell of each circuit is named after its own file: top.gds is
compared as cell "top" against the module named after the second file.

Examples:
  # GDS against the gate-level netlist
  otl lvs -i user_proj.gds user_proj.v -o lvs_out

  # Macros come from a directory of gate-level netlists
  otl lvs -i top.gds top.v -o lvs_out -vd verilog/gl

  # Compare an SRAM macro only at its boundary
  otl lvs -i top.gds top.v -o lvs_out -s sram.spice -abs sky130_sram_1kbyte_1rw1r_32x256_8`,
	RunE: runLVS,
}

func init() {
	rootCmd.AddCommand(lvsCmd)

	lvsCmd.Flags().StringArrayVarP(&lvsInputs, "input", "i", nil, "the two files to compare")
	lvsCmd.Flags().StringVarP(&lvsOutputDir, "output-dir", "o", "", "output directory (created if absent)")
	lvsCmd.Flags().BoolVar(&lvsBlackbox, "blackbox", false, "skip the hierarchy check (-bb)")
	lvsCmd.Flags().BoolVarP(&lvsForce, "force", "f", false, "continue despite yosys warnings")
	lvsCmd.Flags().StringArrayVarP(&lvsVerilog, "verilog", "v", nil, "extra gate-level netlists")
	lvsCmd.Flags().StringVar(&lvsVerilogDir, "verilog-directory", "", "directory holding <macro>.v netlists (-vd)")
	lvsCmd.Flags().StringArrayVarP(&lvsSpice, "spice", "s", nil, "extra spice netlists")
	lvsCmd.Flags().StringArrayVar(&lvsAbstract, "abstract", nil, "macros compared at their boundary only (-abs)")
	lvsCmd.Flags().BoolVar(&lvsKeepScript, "keep-script", false, "keep the generated netgen script")
	lvsCmd.Flags().BoolVar(&lvsAbstracts, "cell-abstracts", false, "extract a GDS against the cell-library abstracts")
	lvsCmd.MarkFlagRequired("input")
	lvsCmd.MarkFlagRequired("output-dir")
}

func runLVS(cmd *cobra.Command, args []string) error {
	if len(lvsInputs) != 2 {
		return fmt.Errorf("--input takes exactly two files, got %d", len(lvsInputs))
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := pdk.FromEnv()
	if err != nil {
		return err
	}

	pipeline := &lvs.Pipeline{
		PDK: p,
		Tools: lvs.Tools{
			Magic:         cfg.Tools.Magic,
			Netgen:        cfg.Tools.Netgen,
			Yosys:         cfg.Tools.Yosys,
			NetgenColumns: cfg.NetgenColumns,
		},
		Runner: runner(),
		Stdout: os.Stdout,
	}
	res, err := pipeline.Run(cmd.Context(), lvs.Options{
		Inputs:     [2]string{lvsInputs[0], lvsInputs[1]},
		OutputDir:  lvsOutputDir,
		Blackbox:   lvsBlackbox,
		Force:      lvsForce,
		Verilog:    lvsVerilog,
		Spice:      lvsSpice,
		VerilogDir: lvsVerilogDir,
		Abstract:   lvsAbstract,
		KeepScript: lvsKeepScript,

		CellAbstracts: lvsAbstracts,
	})
	if err != nil {
		return err
	}

	report, err := netgen.ReadReport(res.ReportJSON)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "  no JSON summary: %v\n", err)
		}
		return nil
	}
	if report.Match() {
		fmt.Printf("✓ Circuits match\n")
		return nil
	}
	fmt.Printf("✗ Circuits differ, see %s\n", res.Report)
	for _, name := range report.Mismatched() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
