// Command jcrval is a thin CLI wrapper around the parser/rule packages: it
// reads a JCR ruleset and a JSON document and reports pass/fail.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("jcrval failed", "error", err)
		os.Exit(2)
	}
}
