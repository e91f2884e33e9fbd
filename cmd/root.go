package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/ethman/cmd/config"
	"github.com/stratastor/ethman/cmd/serve"
	"github.com/stratastor/ethman/cmd/status"
	"github.com/stratastor/ethman/cmd/version"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ethman",
		Short: "Ethman: wired interface lifecycle controller",
	}

	rootCmd.AddCommand(serve.NewServeCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(status.NewStatusCmd())
	rootCmd.AddCommand(config.NewConfigCmd())

	return rootCmd
}
