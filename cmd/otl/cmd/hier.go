package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/hier"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/pdk"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/yosys"
)

var (
	macrosPDKRoot string
	macrosPDK     string
	macrosCount   bool

	hierForce bool
)

var macrosCmd = &cobra.Command{
	Use:   "macros",
	Short: "List the macros declared in the PDK cell libraries",
	Long: `Scan every .lef file under $PDK_ROOT/$PDK/libs.ref and print the declared
macro names, one per line.

Examples:
  otl macros
  otl macros --pdk gf180mcuC --count`,
	Args: cobra.NoArgs,
	RunE: runMacros,
}

var hierCmd = &cobra.Command{
	Use:   "hier <netlist.v>",
	Short: "Print the macros of a gate-level netlist that the PDK does not provide",
	Long: `Flatten a gate-level netlist with yosys and compare its instance types
against the PDK macro index. The top module must be named after the file.

Examples:
  otl hier verilog/gl/user_project_wrapper.v`,
	Args: cobra.ExactArgs(1),
	RunE: runHier,
}

func init() {
	rootCmd.AddCommand(macrosCmd)
	rootCmd.AddCommand(hierCmd)

	pdkFlags(macrosCmd, &macrosPDKRoot, &macrosPDK)
	macrosCmd.Flags().BoolVarP(&macrosCount, "count", "c", false, "only print the number of macros")

	hierCmd.Flags().BoolVarP(&hierForce, "force", "f", false, "accept yosys warnings")
}

func runMacros(cmd *cobra.Command, args []string) error {
	p, err := pdkConfig(macrosPDKRoot, macrosPDK)
	if err != nil {
		return err
	}
	index, err := p.MacroIndex()
	if err != nil {
		return err
	}
	if macrosCount {
		fmt.Printf("%d\n", index.Len())
		return nil
	}
	for _, name := range index.Sorted() {
		fmt.Println(name)
	}
	return nil
}

func runHier(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := pdk.FromEnv()
	if err != nil {
		return err
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	work, err := os.MkdirTemp("", "otl-hier-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	inspector := &yosys.Inspector{Runner: runner(), Binary: cfg.Tools.Yosys, WorkDir: work}
	res, err := inspector.Inspect(cmd.Context(), path)
	if err != nil {
		return err
	}
	if err := yosys.CheckWarnings(res, path, hierForce); err != nil {
		return err
	}
	index, err := p.MacroIndex()
	if err != nil {
		return err
	}

	missing := hier.Resolve(res.Instances, index)
	fmt.Printf("✓ %s: %d instances of %d cell types\n", res.Module, len(res.Instances), len(res.Instances.Types()))
	if len(missing) == 0 {
		fmt.Printf("  all cells are provided by %s\n", p.Variant)
		return nil
	}
	fmt.Printf("  non-PDK macros (%d):\n", len(missing))
	for _, m := range missing {
		fmt.Printf("    %s\n", m)
	}
	return nil
}
