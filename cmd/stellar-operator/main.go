// Package main is the entry point for stellar-operator.
//
// The binary runs the StellarNode controller (run) and carries a few helper
// commands for operators of the cluster: version, sample and get nodes.
package main

import (
	"fmt"
	"os"

	"github.com/stellar-k8s/stellar-operator/cmd/stellar-operator/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
