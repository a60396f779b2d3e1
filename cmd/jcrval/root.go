// Package main implements jcrval, a command-line validator that checks a
// JSON document against a JCR ruleset.
package main

import (
	"github.com/spf13/cobra"
)

// configMaxDepth is a global flag shared by subcommands that parse JCR text.
var configMaxDepth int

// NewRootCmd creates the root command for the jcrval CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jcrval",
		Short: "jcrval - JSON Content Rules validator",
		Long: `jcrval compiles a JSON Content Rules (JCR) ruleset and checks whether a
JSON document satisfies it.`,
	}

	cmd.PersistentFlags().IntVar(&configMaxDepth, "max-depth", 1000, "maximum JCR/JSON nesting depth")

	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewCheckCmd())

	return cmd
}
