package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceLVS/internal/config"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/precheck"
)

var (
	drcOutput string
	drcPDK    string

	pcLVSOutput    string
	pcLVSDesignDir string
	pcLVSConfig    string
	pcLVSPDKRoot   string
	pcLVSPDK       string
	pcLVSTag       string

	xorDesign1 string
	xorDesign2 string
)

var drcCmd = &cobra.Command{
	Use:   "drc <gds>",
	Short: "Run the precheck klayout DRC",
	Long: `Run the klayout DRC deck of mpw_precheck on a GDS. The precheck
repository is cloned on first use.

Example:
  otl drc gds/user_project_wrapper.gds --output drc_out`,
	Args: cobra.ExactArgs(1),
	RunE: runDRC,
}

var precheckLVSCmd = &cobra.Command{
	Use:   "precheck-lvs <design>",
	Short: "Run the precheck LVS flow on a caravel-style design",
	Long: `Run mpw_precheck's LVS check. The design directory must hold
gds/<design>.gds and verilog/gl/<design>.v.

Example:
  otl precheck-lvs user_project_wrapper --design-dir . --config-file lvs_config.json --output lvs`,
	Args: cobra.ExactArgs(1),
	RunE: runPrecheckLVS,
}

var xorCmd = &cobra.Command{
	Use:   "xor <top-cell>",
	Short: "XOR two layouts with klayout",
	Long: `Compare two GDS files geometrically. The XOR layout and the total count
are written next to --design1.

Example:
  otl xor user_project_wrapper --design1 a/top.gds --design2 b/top.gds`,
	Args: cobra.ExactArgs(1),
	RunE: runXOR,
}

func init() {
	rootCmd.AddCommand(drcCmd)
	rootCmd.AddCommand(precheckLVSCmd)
	rootCmd.AddCommand(xorCmd)

	drcCmd.Flags().StringVar(&drcOutput, "output", "", "report directory")
	drcCmd.Flags().StringVar(&drcPDK, "pdk", os.Getenv("PDK"), "PDK variant")
	drcCmd.MarkFlagRequired("output")

	precheckLVSCmd.Flags().StringVar(&pcLVSOutput, "output", "", "report directory")
	precheckLVSCmd.Flags().StringVar(&pcLVSDesignDir, "design-dir", "", "design directory")
	precheckLVSCmd.Flags().StringVar(&pcLVSConfig, "config-file", "", "LVS config file")
	precheckLVSCmd.Flags().StringVar(&pcLVSTag, "tag", "", "run tag")
	pdkFlags(precheckLVSCmd, &pcLVSPDKRoot, &pcLVSPDK)
	precheckLVSCmd.MarkFlagRequired("output")
	precheckLVSCmd.MarkFlagRequired("design-dir")
	precheckLVSCmd.MarkFlagRequired("config-file")

	xorCmd.Flags().StringVar(&xorDesign1, "design1", "", "first GDS")
	xorCmd.Flags().StringVar(&xorDesign2, "design2", "", "second GDS")
	xorCmd.MarkFlagRequired("design1")
	xorCmd.MarkFlagRequired("design2")
}

func newHarness(cfg config.Config) *precheck.Harness {
	return &precheck.Harness{
		Runner:  runner(),
		Root:    cfg.Precheck.Root,
		RepoURL: cfg.Precheck.Repo,
		Python:  cfg.Tools.Python,
		Git:     cfg.Tools.Git,
		KLayout: cfg.Tools.KLayout,
		Stdout:  os.Stdout,
	}
}

func runDRC(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if drcPDK == "" {
		return fmt.Errorf("--pdk or $PDK is required")
	}
	if err := newHarness(cfg).DRC(cmd.Context(), args[0], drcOutput, drcPDK); err != nil {
		return err
	}
	fmt.Printf("✓ DRC finished, reports in %s\n", filepath.Join(drcOutput, "outputs", "reports"))
	return nil
}

func runPrecheckLVS(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := pdkConfig(pcLVSPDKRoot, pcLVSPDK)
	if err != nil {
		return err
	}
	err = newHarness(cfg).LVS(cmd.Context(), precheck.LVSOptions{
		DesignName: args[0],
		DesignDir:  pcLVSDesignDir,
		OutputDir:  pcLVSOutput,
		ConfigFile: pcLVSConfig,
		PDKPath:    p.Path(),
		Tag:        pcLVSTag,
	})
	if err != nil {
		return err
	}
	fmt.Printf("✓ Precheck LVS finished for %s\n", args[0])
	return nil
}

func runXOR(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := newHarness(cfg).XOR(cmd.Context(), args[0], xorDesign1, xorDesign2)
	if err != nil {
		return err
	}
	fmt.Printf("✓ XOR finished\n")
	fmt.Printf("  Layout: %s\n", res.Layout)
	fmt.Printf("  Total:  %s\n", res.Total)
	return nil
}
