package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/OpenTraceLab/OpenTraceLVS/internal/config"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/pdk"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/tool"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

// newRunner builds the subprocess runner. Tests replace it.
var newRunner = func() tool.Runner {
	return tool.ExecRunner{}
}

var rootCmd = &cobra.Command{
	Use:   "otl",
	Short: "OpenTraceLVS - LVS and layout conversion front-end for magic, netgen and yosys",
	Long: `OpenTraceLVS (otl) drives the open-source EDA tools to check a layout
against its netlist and to convert between layout formats.

PDK_ROOT and PDK must point at an installed PDK variant.

Examples:
  otl lvs -i user_proj.gds user_proj.v -o out          # full LVS
  otl lvs -i top.gds top.v -o out -vd gl/ -abs sram    # resolve macros from gl/
  otl gds-to-mag top.gds --output mag/                 # convert a layout
  otl macros | grep sram                               # list PDK macros`,
	Version:       "0.9.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetArgs(NormalizeArgs(os.Args[1:]))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "print every tool invocation")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.SetGlobalNormalizationFunc(dashFlags)
}

// dashFlags accepts --output_dir for --output-dir.
func dashFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

func runner() tool.Runner {
	r := newRunner()
	if verbose {
		return tool.Traced{Runner: r, Out: os.Stderr}
	}
	return r
}

// pdkFlags registers --pdk-root/--pdk defaulting to the environment.
func pdkFlags(c *cobra.Command, root, variant *string) {
	c.Flags().StringVar(root, "pdk-root", os.Getenv(pdk.EnvRoot), "path to the PDK root ($"+pdk.EnvRoot+")")
	c.Flags().StringVar(variant, "pdk", os.Getenv(pdk.EnvVariant), "PDK variant, e.g. sky130A ($"+pdk.EnvVariant+")")
}

// pdkConfig validates flag values, falling back to the environment when a
// flag was left empty.
func pdkConfig(root, variant string) (pdk.Config, error) {
	return pdk.FromLookup(func(key string) (string, bool) {
		switch key {
		case pdk.EnvRoot:
			if root != "" {
				return root, true
			}
		case pdk.EnvVariant:
			if variant != "" {
				return variant, true
			}
		}
		return os.LookupEnv(key)
	})
}

// Legacy single-dash long options of the lvs command.
var legacyFlags = map[string]string{
	"-bb":  "--blackbox",
	"-vd":  "--verilog-directory",
	"-abs": "--abstract",
}

// Options that take several values after one flag (-i a.gds b.v).
var multiValueFlags = map[string]string{
	"-i":         "--input",
	"--input":    "--input",
	"-v":         "--verilog",
	"--verilog":  "--verilog",
	"-s":         "--spice",
	"--spice":    "--spice",
	"--abstract": "--abstract",
}

// NormalizeArgs rewrites the argparse spellings of the lvs command into
// flags pflag understands: "-bb" becomes "--blackbox" and "-i a b" becomes
// "--input a --input b". Arguments of other commands are left alone.
func NormalizeArgs(args []string) []string {
	sub := -1
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" {
			i++
			continue
		}
		if !strings.HasPrefix(args[i], "-") {
			sub = i
			break
		}
	}
	if sub < 0 || args[sub] != "lvs" {
		return args
	}

	out := append([]string(nil), args[:sub+1]...)
	multi := ""
	for _, a := range args[sub+1:] {
		if long, ok := legacyFlags[a]; ok {
			a = long
		}
		switch {
		case strings.HasPrefix(a, "-"):
			multi = multiValueFlags[a]
			if multi == "" {
				out = append(out, a)
			}
		case multi != "":
			out = append(out, multi, a)
		default:
			out = append(out, a)
		}
	}
	return out
}
