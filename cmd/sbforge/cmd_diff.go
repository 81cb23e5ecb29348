package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	orchestrators "github.com/sbpy-tools/sbforge/internal/domain-orchestrators"
	"github.com/sbpy-tools/sbforge/internal/domain/services"
	"github.com/sbpy-tools/sbforge/internal/external-adapters/render"
	"github.com/sbpy-tools/sbforge/internal/external-adapters/yaml"
)

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	var (
		projectDir = fs.String("project", ".", "Project directory containing sbforge.yml")
		quiet      = fs.Bool("quiet", false, "Suppress the diff, exit code only")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sbforge diff [options]

Compare the expanded CI matrix against the committed snapshot and report
drift. Refresh the snapshot with "sbforge jobs --write-snapshot".

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Exit Codes:
  0  Matrix matches the snapshot
  1  Matrix drifted from the snapshot
  2  Usage error, missing snapshot, or unreadable project files
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

	current, err := render.Snapshot(jobs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	recorded, err := repo.ReadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, yaml.ErrSnapshotMissing) {
			fmt.Fprintf(os.Stderr, "Error: no snapshot at %s; run \"sbforge jobs --write-snapshot\" first\n", cfg.SnapshotPath)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(2)
	}

	diff, err := render.Diff(recorded, current, cfg.SnapshotPath, "expanded matrix")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if diff == "" {
		if !*quiet {
			fmt.Println("Matrix matches the snapshot")
		}
		return
	}

	if !*quiet {
		fmt.Print(diff)
	}
	os.Exit(1)
}
