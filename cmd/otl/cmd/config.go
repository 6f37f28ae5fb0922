package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceLVS/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration in effect after reading the config file, as YAML.
The output can be saved as a starting point:

  otl config > ~/.config/opentracelvs/config.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return config.Write(os.Stdout, cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
