// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the stellar-operator binary.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "stellar-operator",
		Short:        "Kubernetes operator for Stellar validators, gateways and RPC nodes",
		SilenceUsage: true,
	}

	cmd.AddCommand(Run())
	cmd.AddCommand(Get())
	cmd.AddCommand(Sample())
	cmd.AddCommand(Version())

	return cmd
}
