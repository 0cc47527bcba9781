package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mugo-bistro/mugo/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mugo",
	Short: "Restaurant menu site with an admin editor",
	Long: `mugo serves a restaurant's menu as a website, lets the staff edit it
from /admin or from the terminal, and publishes it as a static site or as a
commit to a source repository. The menu lives in a single menu.json file.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
