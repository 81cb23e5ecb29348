package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	orchestrators "github.com/sbpy-tools/sbforge/internal/domain-orchestrators"
	"github.com/sbpy-tools/sbforge/internal/domain/services"
	"github.com/sbpy-tools/sbforge/internal/external-adapters/yaml"
)

func runPlan(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	var (
		projectDir = fs.String("project", ".", "Project directory containing sbforge.yml")
		jsonOutput = fs.Bool("json", false, "Output the plan as JSON")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sbforge plan [options] <job>

Show the provisioning plan a job implies: the conda and pip installs its
environment variables call for.

Arguments:
  job    Job name as printed by "sbforge jobs" (required)

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  sbforge plan job03/test/py3.7/linux
  sbforge plan --json job03/test/py3.7/linux
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(2)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: job name is required\n\n")
		fs.Usage()
		os.Exit(2)
	}
	jobName := fs.Arg(0)

	orch := orchestrators.NewAuditOrchestrator(
		yaml.NewProjectRepository(*projectDir), services.NewMatrixService(), nil)

	_, jobs, err := orch.ExpandJobs(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	for _, job := range jobs {
		if job.Name != jobName {
			continue
		}

		plan, err := services.NewPlanService().Build(job)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if *jsonOutput {
			out, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
			fmt.Println(string(out))
		} else {
			fmt.Print(plan.Render())
		}
		return
	}

	fmt.Fprintf(os.Stderr, "Error: no job named %q; known jobs:\n", jobName)
	for _, job := range jobs {
		fmt.Fprintf(os.Stderr, "  %s\n", job.Name)
	}
	os.Exit(1)
}
