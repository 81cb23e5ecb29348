package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sbpy-tools/sbforge/internal/domain-adapters/gateways"
	orchestrators "github.com/sbpy-tools/sbforge/internal/domain-orchestrators"
	"github.com/sbpy-tools/sbforge/internal/domain/services"
	"github.com/sbpy-tools/sbforge/internal/external-adapters/yaml"
)

func runMonitor(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	var (
		projectDir = fs.String("project", ".", "Project directory containing sbforge.yml")
		jsonOutput = fs.Bool("json", true, "Output results as JSON (default)")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sbforge monitor [options]

Check the versions pinned in the CI matrix and promised by the recipe
against the latest upstream releases. Upstreams are configured in
sbforge.yml; set GITHUB_TOKEN to raise the API rate limit.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  sbforge monitor
  sbforge monitor --json=false
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(2)
	}

	repo := yaml.NewProjectRepository(*projectDir)
	orch := orchestrators.NewAuditOrchestrator(repo, services.NewMatrixService(), nil)

	cfg, jobs, err := orch.ExpandJobs(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if len(cfg.Upstreams) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no upstreams configured in sbforge.yml")
		os.Exit(2)
	}

	recipe, err := repo.LoadRecipe(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	watcher := gateways.NewReleaseWatcher(os.Getenv("GITHUB_TOKEN"))
	results := services.NewFreshnessService(watcher).Check(ctx, cfg.Upstreams, jobs, recipe)

	if *jsonOutput {
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		fmt.Println(string(out))
	} else {
		for _, info := range results {
			switch {
			case info.Error != "":
				fmt.Printf("%-12s error: %s\n", info.Name, info.Error)
			case info.UpdateNeeded:
				fmt.Printf("%-12s pinned %s, latest %s (update available)\n",
					info.Name, info.Pinned, info.Latest)
			default:
				fmt.Printf("%-12s up to date (latest %s)\n", info.Name, info.Latest)
			}
		}
	}

	for _, info := range results {
		if info.Error != "" {
			os.Exit(1)
		}
	}
}
