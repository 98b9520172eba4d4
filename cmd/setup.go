package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/gitwork/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure gitwork (re-run anytime to edit settings)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Edit the global file only; project overrides stay out of it.
		existing, err := config.LoadGlobal()
		if err != nil {
			return err
		}

		updated, err := config.RunSetup(cmd.InOrStdin(), cmd.OutOrStdout(), *existing)
		if err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}

		path, err := config.Save(updated)
		if err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		cmd.Printf("  ✓ Config saved to %s\n", path)
		cmd.Println("  Setup complete. Run 'gitwork analyze' to build today's report.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
