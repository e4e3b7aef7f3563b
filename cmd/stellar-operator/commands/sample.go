package commands

import (
	"github.com/spf13/cobra"

	"github.com/stellar-k8s/stellar-operator/cmd/stellar-operator/handlers"
)

// Sample returns the command that prints an example StellarNode manifest.
func Sample() *cobra.Command {
	var name, namespace string

	cmd := &cobra.Command{
		Use:       "sample <validator|gateway|rpc>",
		Short:     "Print an example StellarNode manifest",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"validator", "gateway", "rpc"},
		Example: `  stellar-operator sample gateway --name horizon | kubectl apply -f -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Sample(cmd.OutOrStdout(), args[0], name, namespace)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Node name (default: derived from the kind)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "stellar", "Node namespace")

	return cmd
}
