package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/sdf"
)

var (
	sdfInput  string
	sdfOutput string
	sdfDir    string
	sdfScope  string
)

var sdfCmd = &cobra.Command{
	Use:   "sdf-annotate",
	Short: "List $sdf_annotate calls for every instance of a netlist",
	Long: `Print one $sdf_annotate call per cell instance of a gate-level netlist,
for inclusion in a timing-annotated testbench.

Example:
  otl sdf-annotate -i fpga_core.v -o sdf_includes.v`,
	Args: cobra.NoArgs,
	RunE: runSDF,
}

func init() {
	rootCmd.AddCommand(sdfCmd)

	sdfCmd.Flags().StringVarP(&sdfInput, "input", "i", "", "gate-level verilog netlist")
	sdfCmd.Flags().StringVarP(&sdfOutput, "output", "o", "", "includes file (default stdout)")
	sdfCmd.Flags().StringVar(&sdfDir, "sdf-dir", sdf.DefaultDir, "directory prefix of the .sdf files")
	sdfCmd.Flags().StringVar(&sdfScope, "scope", sdf.DefaultScope, "hierarchical scope of the instances")
	sdfCmd.MarkFlagRequired("input")
}

func runSDF(cmd *cobra.Command, args []string) error {
	var w io.Writer = os.Stdout
	if sdfOutput != "" {
		f, err := os.Create(sdfOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	n, err := sdf.AnnotateFile(sdfInput, w, sdfDir, sdfScope)
	if err != nil {
		return err
	}
	if sdfOutput != "" {
		fmt.Printf("✓ Wrote %d annotations to %s\n", n, sdfOutput)
	}
	return nil
}
