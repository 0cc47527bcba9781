package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mugo-bistro/mugo/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a mugo config with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the menu site and writes ` + config.DefaultFile + ` (or the file named by --config).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("\nConfig written to %s. Start the site with `mugo serve`.\n", cfgFile)
		if cfg.UsesDefaultPassword() {
			fmt.Println("Warning: the admin password is still the default.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
