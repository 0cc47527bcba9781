package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mugo-bistro/mugo/internal/menu"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the menu as JSON or YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		doc, err := repository(cfg, logger).Load()
		if err != nil {
			return fmt.Errorf("loading %s: %w", cfg.MenuPath(), err)
		}

		format, _ := cmd.Flags().GetString("format")
		var data []byte
		switch format {
		case "json":
			data, err = menu.Marshal(doc)
		case "compact":
			data, err = menu.MarshalCompact(doc)
		case "yaml":
			data, err = menu.MarshalYAML(doc)
		default:
			return fmt.Errorf("unsupported format %q (use json, compact or yaml)", format)
		}
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" || output == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Menu exported to %s\n", output)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "json", "output format: json, compact or yaml")
	exportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
