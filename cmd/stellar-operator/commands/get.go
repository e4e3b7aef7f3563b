package commands

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/stellar-k8s/stellar-operator/cmd/stellar-operator/handlers"
)

// Get returns the parent command for read-only listings.
func Get() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Display StellarNode resources",
	}
	cmd.AddCommand(getNodes())
	return cmd
}

func getNodes() *cobra.Command {
	opts := handlers.GetNodesOptions{}

	cmd := &cobra.Command{
		Use:     "nodes",
		Aliases: []string{"node", "sn"},
		Short:   "List StellarNodes with their phase and readiness",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Styled = isInteractiveTTY()
			return handlers.GetNodes(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: standard loading rules)")
	f.StringVarP(&opts.Namespace, "namespace", "n", "", "Namespace to list (default: all namespaces)")
	f.StringVarP(&opts.Output, "output", "o", handlers.OutputTable, "Output format: table or json")

	return cmd
}

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
