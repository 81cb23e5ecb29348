package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	orchestrators "github.com/sbpy-tools/sbforge/internal/domain-orchestrators"
	"github.com/sbpy-tools/sbforge/internal/domain/services"
	"github.com/sbpy-tools/sbforge/internal/external-adapters/render"
	"github.com/sbpy-tools/sbforge/internal/external-adapters/yaml"
)

func runJobs(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("jobs", flag.ExitOnError)
	var (
		projectDir    = fs.String("project", ".", "Project directory containing sbforge.yml")
		stage         = fs.String("stage", "", "Only show jobs in this stage")
		osFilter      = fs.String("os", "", "Only show jobs on this operating system")
		event         = fs.String("event", "", "Only show jobs that run for this trigger event")
		format        = fs.String("format", "table", "Output format: table or yaml")
		writeSnapshot = fs.Bool("write-snapshot", false, "Write the full matrix snapshot to the configured path")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sbforge jobs [options]

Expand the CI matrix into concrete jobs and list them.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  sbforge jobs
  sbforge jobs --stage test --os linux
  sbforge jobs --format yaml
  sbforge jobs --write-snapshot
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(2)
	}

	repo := yaml.NewProjectRepository(*projectDir)
	matrix := services.NewMatrixService()
	orch := orchestrators.NewAuditOrchestrator(repo, matrix, nil)

	cfg, jobs, err := orch.ExpandJobs(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if *writeSnapshot {
		snapshot, err := render.Snapshot(jobs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		path, err := repo.SnapshotPath(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		if err := os.WriteFile(path, snapshot, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: write snapshot: %v\n", err)
			os.Exit(2)
		}
		fmt.Printf("Wrote %s (%d jobs)\n", cfg.SnapshotPath, len(jobs))
		return
	}

	filtered := matrix.Filter(jobs, services.JobFilter{
		Stage: *stage,
		OS:    *osFilter,
		Event: *event,
	})

	switch *format {
	case "yaml":
		snapshot, err := render.Snapshot(filtered)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		fmt.Print(string(snapshot))
	case "table":
		for _, job := range filtered {
			marker := " "
			if job.AllowFailure {
				marker = "~"
			}
			fmt.Printf("%s %-28s %-10s %-6s %s\n", marker, job.Name, job.Stage, job.OS, job.Command())
		}
		fmt.Printf("%d job(s)\n", len(filtered))
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *format)
		os.Exit(2)
	}
}
