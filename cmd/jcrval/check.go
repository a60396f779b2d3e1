package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcrschema/jcr/jcrerr"
	"github.com/jcrschema/jcr/parser"
)

// NewCheckCmd creates the check subcommand, which only verifies that a JCR
// ruleset parses without attempting to validate any document.
func NewCheckCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a JCR ruleset for syntax errors without validating a document",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCheck(path)
		},
	}
	cmd.Flags().StringVar(&path, "ruleset", "", "path to the .jcr ruleset (required)")
	_ = cmd.MarkFlagRequired("ruleset")
	return cmd
}

func runCheck(path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read ruleset: %w", err)
	}
	if _, err := parser.ParseWithOptions(string(text), jcrerr.DefaultHandler{}, configMaxDepth); err != nil {
		slog.Error("ruleset invalid", "path", path, "error", err)
		return fmt.Errorf("%s: invalid ruleset", path)
	}
	slog.Info("ruleset valid", "path", path)
	return nil
}
