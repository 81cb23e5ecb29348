package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sbpy-tools/sbforge/internal/domain-adapters/gateways"
	"github.com/sbpy-tools/sbforge/internal/external-adapters/gpg"
	"github.com/sbpy-tools/sbforge/internal/external-adapters/yaml"
)

func runVerify(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	var (
		projectDir    = fs.String("project", ".", "Project directory containing sbforge.yml")
		signature     = fs.String("signature", "", "Detached signature file (overrides the recipe's signature URL)")
		keyring       = fs.String("keyring", "", "Local keyring file with the upstream's release keys")
		skipSignature = fs.Bool("skip-signature", false, "Only check the sha256, skip GPG verification")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sbforge verify [options] <tarball>

Verify a downloaded source tarball against the recipe: the sha256 first,
then the detached GPG signature when the recipe or flags provide one.

Arguments:
  tarball    Path to the downloaded source archive (required)

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Exit Codes:
  0  Tarball matches the recipe
  1  Verification failed
  2  Usage error or unreadable project files

Examples:
  sbforge verify sbpy-0.1.tar.gz
  sbforge verify sbpy-0.1.tar.gz --keyring ./KEYS --signature sbpy-0.1.tar.gz.asc
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(2)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: tarball path is required\n\n")
		fs.Usage()
		os.Exit(2)
	}
	tarball := fs.Arg(0)

	recipe, err := yaml.NewProjectRepository(*projectDir).LoadRecipe(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if recipe.Source.SHA256 == "" {
		fmt.Fprintln(os.Stderr, "Error: recipe declares no source sha256")
		os.Exit(2)
	}

	verifier := gateways.NewChecksumVerifier()
	if err := verifier.Verify(ctx, tarball, recipe.Source.SHA256); err != nil {
		fmt.Fprintf(os.Stderr, "Checksum: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Checksum OK")

	if *skipSignature {
		return
	}

	sigSource := *signature
	if sigSource == "" {
		sigSource = recipe.Source.Signature
	}
	if sigSource == "" {
		// Nothing to check beyond the sha256.
		return
	}

	gpgVerifier := gpg.NewVerifier()
	switch {
	case *keyring != "":
		if err := gpgVerifier.ImportKeyringFile(*keyring); err != nil {
			fmt.Fprintf(os.Stderr, "Keyring: %v\n", err)
			os.Exit(1)
		}
	case recipe.Source.KeyringURL != "":
		if err := gpgVerifier.ImportKeyringURL(ctx, recipe.Source.KeyringURL); err != nil {
			fmt.Fprintf(os.Stderr, "Keyring: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "Error: a signature is declared but no keyring is available; pass --keyring or set source.keyring_url")
		os.Exit(2)
	}

	if isURL(sigSource) {
		err = gpgVerifier.VerifyDetachedURL(ctx, tarball, sigSource)
	} else {
		err = gpgVerifier.VerifyDetached(tarball, sigSource)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Signature: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Signature OK")
}

func isURL(s string) bool {
	return len(s) > 8 && (s[:7] == "http://" || s[:8] == "https://")
}
