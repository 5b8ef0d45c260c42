package cli

import "github.com/spf13/cobra"

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the stockroom CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stockroom",
		Short: "Inventory and order fulfillment backend",
		Long:  "Stockroom serves the inventory management and order fulfillment HTTP API.",
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}
