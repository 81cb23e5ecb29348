package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	orchestrators "github.com/sbpy-tools/sbforge/internal/domain-orchestrators"
	"github.com/sbpy-tools/sbforge/internal/domain/interfaces"
	"github.com/sbpy-tools/sbforge/internal/domain/services"
	"github.com/sbpy-tools/sbforge/internal/external-adapters/render"
	"github.com/sbpy-tools/sbforge/internal/external-adapters/yaml"
)

func runLint(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	var (
		projectDir = fs.String("project", ".", "Project directory containing sbforge.yml")
		format     = fs.String("format", "pretty", "Output format: pretty or json")
		plain      = fs.Bool("plain", false, "Disable terminal styling")
		verbose    = fs.Bool("verbose", false, "Enable debug logging")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sbforge lint [options]

Validate the CI pipeline definition, the conda recipe, and their
cross-file consistency against the project policy.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Exit Codes:
  0  No error-level findings
  1  Error-level findings present
  2  Usage error or the project files could not be loaded

Examples:
  sbforge lint
  sbforge lint --project ./dist --format json
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(2)
	}

	var logger interfaces.Logger = &interfaces.NoOpLogger{}
	if *verbose {
		logger = interfaces.NewStderrLogger(true)
	}
	orch := orchestrators.NewAuditOrchestrator(
		yaml.NewProjectRepository(*projectDir), services.NewMatrixService(), logger)

	result, err := orch.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	switch *format {
	case "json":
		out, err := json.MarshalIndent(result.Findings, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		fmt.Println(string(out))
	case "pretty":
		fmt.Print(render.NewReportRenderer(*plain).Render(result.Findings))
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *format)
		os.Exit(2)
	}

	if result.HasErrors() {
		os.Exit(1)
	}
}
