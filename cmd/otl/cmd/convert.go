package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/magic"
)

// conversionFlags are the values one conversion command accepts.
type conversionFlags struct {
	pdkRoot  string
	pdk      string
	output   string
	macros   magic.Macros
	extraGDS []string
	extraLEF []string
}

type conversion struct {
	use    string
	short  string
	macros bool // accepts --maglef-macro/--mag-dir/--gds-macro
	extra  bool // accepts --extra-lef/--extra-gds
	build  func(input string, f *conversionFlags) magic.Conversion
}

var conversions = []conversion{
	{
		use: "mag-to-gds", short: "Create a GDS from a magic layout", macros: true,
		build: func(in string, f *conversionFlags) magic.Conversion {
			return magic.MagToGDSConversion(in, f.output, f.macros)
		},
	},
	{
		use: "gds-to-mag", short: "Create magic layouts from a GDS",
		build: func(in string, f *conversionFlags) magic.Conversion {
			return magic.GDSToMagConversion(in, f.output)
		},
	},
	{
		use: "gds-to-def", short: "Create a DEF from a GDS",
		build: func(in string, f *conversionFlags) magic.Conversion {
			return magic.GDSToDEFConversion(in, f.output)
		},
	},
	{
		use: "mag-to-def", short: "Create a DEF from a magic layout", macros: true,
		build: func(in string, f *conversionFlags) magic.Conversion {
			return magic.MagToDEFConversion(in, f.output, f.macros)
		},
	},
	{
		use: "def-to-gds", short: "Create a GDS from a DEF", extra: true,
		build: func(in string, f *conversionFlags) magic.Conversion {
			return magic.DEFToGDSConversion(in, f.output, f.extraGDS, f.extraLEF)
		},
	},
	{
		use: "def-to-mag", short: "Create magic layouts from a DEF",
		build: func(in string, f *conversionFlags) magic.Conversion {
			return magic.DEFToMagConversion(in, f.output)
		},
	},
	{
		use: "mag-to-lef", short: "Create a LEF abstract from a magic layout",
		build: func(in string, f *conversionFlags) magic.Conversion {
			return magic.ToLEFConversion(magic.FromMag, in, f.output)
		},
	},
	{
		use: "gds-to-lef", short: "Create a LEF abstract from a GDS",
		build: func(in string, f *conversionFlags) magic.Conversion {
			return magic.ToLEFConversion(magic.FromGDS, in, f.output)
		},
	},
	{
		use: "def-to-lef", short: "Create a LEF abstract from a DEF",
		build: func(in string, f *conversionFlags) magic.Conversion {
			return magic.ToLEFConversion(magic.FromDEF, in, f.output)
		},
	},
}

func init() {
	for _, c := range conversions {
		rootCmd.AddCommand(newConversionCmd(c))
	}
}

func newConversionCmd(c conversion) *cobra.Command {
	f := &conversionFlags{}
	cmd := &cobra.Command{
		Use:   c.use + " <input>",
		Short: c.short,
		Long: c.short + `. The input, --output and every extra file must exist.

Example:
  otl ` + c.use + ` design.` + c.use[:3] + ` --output out/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConversion(cmd, c, f, args[0])
		},
	}

	pdkFlags(cmd, &f.pdkRoot, &f.pdk)
	cmd.Flags().StringVar(&f.output, "output", "", "destination directory")
	cmd.MarkFlagRequired("output")
	if c.macros {
		cmd.Flags().StringArrayVar(&f.macros.Maglef, "maglef-macro", nil, "abstract view to load (repeatable)")
		cmd.Flags().StringArrayVar(&f.macros.MagDir, "mag-dir", nil, "directory to search for cells (repeatable)")
		cmd.Flags().StringArrayVar(&f.macros.GDS, "gds-macro", nil, "GDS macro to load (repeatable)")
	}
	if c.extra {
		cmd.Flags().StringArrayVar(&f.extraLEF, "extra-lef", nil, "LEF of an abstract macro (repeatable)")
		cmd.Flags().StringArrayVar(&f.extraGDS, "extra-gds", nil, "GDS of a macro (repeatable)")
	}
	return cmd
}

func runConversion(cmd *cobra.Command, c conversion, f *conversionFlags, input string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := pdkConfig(f.pdkRoot, f.pdk)
	if err != nil {
		return err
	}
	input, err = filepath.Abs(input)
	if err != nil {
		return err
	}
	flags := *f
	if flags.output, err = filepath.Abs(f.output); err != nil {
		return err
	}

	m := &magic.Magic{Runner: runner(), PDK: p, Binary: cfg.Tools.Magic, Console: os.Stdout}
	if err := m.Convert(cmd.Context(), c.build(input, &flags)); err != nil {
		return err
	}
	fmt.Printf("✓ %s: %s -> %s\n", c.use, input, flags.output)
	return nil
}
