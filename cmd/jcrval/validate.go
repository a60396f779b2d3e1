package main

import (
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/jcrschema/jcr/jcrerr"
	"github.com/jcrschema/jcr/parser"
	"github.com/jcrschema/jcr/value"
)

// exitCode values match SPEC_FULL's CLI contract: 0 pass, 1 validation
// fail, 2 parse/read error.
const (
	exitPass           = 0
	exitValidationFail = 1
	exitReadOrParseErr = 2
)

var (
	rulesetPath  string
	documentPath string
	strict       bool
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON document against a JCR ruleset",
		Long: `Reads a JCR ruleset and a JSON document, and reports whether the document
satisfies the ruleset.

Exit code 0 on pass, 1 on validation failure, 2 on a parse or read error.`,
		RunE: runValidate,
	}
	cmd.Flags().StringVar(&rulesetPath, "ruleset", "", "path to the .jcr ruleset (required)")
	cmd.Flags().StringVar(&documentPath, "document", "", "path to the JSON document (required)")
	cmd.Flags().BoolVar(&strict, "strict", false, "abort on the first recoverable parse diagnostic instead of continuing")
	_ = cmd.MarkFlagRequired("ruleset")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	rulesetText, err := os.ReadFile(rulesetPath)
	if err != nil {
		slog.Error("failed to read ruleset", "path", rulesetPath, "error", err)
		os.Exit(exitReadOrParseErr)
	}
	documentText, err := os.ReadFile(documentPath)
	if err != nil {
		slog.Error("failed to read document", "path", documentPath, "error", err)
		os.Exit(exitReadOrParseErr)
	}

	handler := jcrerr.ErrorHandler(jcrerr.DefaultHandler{})
	if !strict {
		handler = lenientHandler{}
	}

	rs, err := parser.ParseWithOptions(string(rulesetText), handler, configMaxDepth)
	if err != nil {
		wrapped := oops.Code("JCR_PARSE_FAILED").With("ruleset", rulesetPath).Wrap(err)
		slog.Error("ruleset parse failed", "error", wrapped)
		os.Exit(exitReadOrParseErr)
	}

	doc, err := value.ParseString(string(documentText))
	if err != nil {
		wrapped := oops.Code("JSON_PARSE_FAILED").With("document", documentPath).Wrap(err)
		slog.Error("document parse failed", "error", wrapped)
		os.Exit(exitReadOrParseErr)
	}

	if rs.Validate(doc) {
		cmd.Println("pass")
		slog.Info("validation passed", "ruleset", rulesetPath, "document", documentPath)
		return nil
	}

	cmd.Println("fail")
	slog.Info("validation failed", "ruleset", rulesetPath, "document", documentPath)
	os.Exit(exitValidationFail)
	return nil
}

// lenientHandler recovers from every non-fatal diagnostic (the --strict
// flag's default, opposite of jcrerr.DefaultHandler), logging each one via
// slog instead of aborting.
type lenientHandler struct{}

func (lenientHandler) Error(kind jcrerr.Kind, line, column int) bool {
	slog.Warn("recoverable parse diagnostic", "code", kind.Code(), "line", line, "column", column)
	return true
}

func (lenientHandler) Fatal(kind jcrerr.Kind, line, column int) error {
	return jcrerr.New(kind, line, column)
}
