package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/gitwork/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	Long: `Print the configuration after merging defaults, the global file
($XDG_CONFIG_HOME/gitwork/config.toml) and .gitwork.toml in the current
directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetConfig()
		if err := c.Validate(); err != nil {
			cmd.PrintErrf("warning: %v\n", err)
		}
		return config.Encode(cmd.OutOrStdout(), c)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
