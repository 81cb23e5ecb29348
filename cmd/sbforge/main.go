package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "lint":
		runLint(ctx, os.Args[2:])
	case "jobs":
		runJobs(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "plan":
		runPlan(ctx, os.Args[2:])
	case "monitor":
		runMonitor(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println(`sbforge - CI matrix and packaging recipe toolkit

Usage:
  sbforge <command> [options]

Commands:
  lint     Validate the CI pipeline, the conda recipe, and their consistency
  jobs     Expand the CI matrix and list the resulting jobs
  diff     Compare the expanded matrix against the committed snapshot
  plan     Show the provisioning plan a job implies
  monitor  Check pinned dependency versions against upstream releases
  verify   Verify a source tarball against the recipe (sha256 + GPG)

Use "sbforge <command> --help" for more information about a command.`)
}
