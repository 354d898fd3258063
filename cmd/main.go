// @title                       Condensing Unit API
// @version                     1.0
// @description                 Read-only view of a refrigeration condensing unit controller.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configDir string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "condenser",
		Short:         "Condensing unit controller: compressor sequencing and condenser fan staging",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config", "configs", "directory holding config.yml")

	root.AddCommand(newServeCmd())
	root.AddCommand(newReplayCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
