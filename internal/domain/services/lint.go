package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
)

// Severity classifies a lint finding.
type Severity string

// Finding severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one lint result: a stable rule identifier, a severity, a
// human-readable message, and where it was found.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Location string   `json:"location"`
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Channel keywords accepted in version pin variables besides concrete
// versions: install the latest stable, the development head, or the most
// recent pre-release.
var channelKeywords = map[string]bool{
	"stable":      true,
	"dev":         true,
	"development": true,
	"prerelease":  true,
	"pre":         true,
}

var pinVars = []string{
	entities.EnvNumpyVersion,
	entities.EnvAstropyVersion,
	entities.EnvSynphotVersion,
}

var sha256Pattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// LintService checks a pipeline, its expanded jobs, and the packaging
// recipe against the distribution policy.
type LintService struct {
	policy entities.Policy
	matrix *MatrixService
}

// NewLintService creates a lint service for the given policy.
func NewLintService(policy entities.Policy, matrix *MatrixService) *LintService {
	if matrix == nil {
		matrix = NewMatrixService()
	}
	return &LintService{policy: policy, matrix: matrix}
}

// LintAll runs every rule group and returns the combined findings.
func (s *LintService) LintAll(p *entities.Pipeline, jobs []entities.Job, r *entities.Recipe) []Finding {
	findings := s.LintPipeline(p, jobs)
	findings = append(findings, s.LintRecipe(r)...)
	findings = append(findings, s.CrossCheck(jobs, r)...)
	return findings
}

// LintPipeline checks the CI matrix rules (P001..P009).
func (s *LintService) LintPipeline(p *entities.Pipeline, jobs []entities.Job) []Finding {
	var findings []Finding

	supported := make(map[string]bool, len(s.policy.SupportedPythons))
	for _, v := range s.policy.SupportedPythons {
		supported[v] = true
	}

	stageSeen := make(map[string]bool)
	for _, job := range jobs {
		loc := "job " + job.Name
		stageSeen[job.Stage] = true

		py := job.PythonVersion()
		if py != "" && len(supported) > 0 && !supported[py] {
			findings = append(findings, Finding{
				Rule:     "P001",
				Severity: SeverityError,
				Message: fmt.Sprintf("PYTHON_VERSION %s is not a supported interpreter (%s)",
					py, strings.Join(s.policy.SupportedPythons, ", ")),
				Location: loc,
			})
		}

		for _, required := range []string{entities.EnvPythonVersion, entities.EnvMainCmd, entities.EnvSetupCmd} {
			if !job.Env.Has(required) {
				findings = append(findings, Finding{
					Rule:     "P002",
					Severity: SeverityError,
					Message:  fmt.Sprintf("merged environment does not define %s", required),
					Location: loc,
				})
			}
		}

		if job.OS != "linux" && job.OS != "osx" {
			findings = append(findings, Finding{
				Rule:     "P003",
				Severity: SeverityError,
				Message:  fmt.Sprintf("unknown operating system %q", job.OS),
				Location: loc,
			})
		}

		if len(s.policy.RequiredStages) > 0 && job.Stage != "" && !contains(s.policy.RequiredStages, job.Stage) {
			findings = append(findings, Finding{
				Rule:     "P004",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("stage %q is not declared in the policy stage list", job.Stage),
				Location: loc,
			})
		}

		if job.RemoteData() && !job.Env.Has(entities.EnvADSDevKey) && p.SecureVars == 0 {
			findings = append(findings, Finding{
				Rule:     "P007",
				Severity: SeverityError,
				Message:  "remote-data job has no ADS_DEV_KEY and the pipeline declares no secure env entry",
				Location: loc,
			})
		}

		for _, pinVar := range pinVars {
			pin, ok := job.Env.Get(pinVar)
			if !ok || pin == "" {
				continue
			}
			if channelKeywords[strings.ToLower(pin)] {
				continue
			}
			if _, err := entities.ParseVersion(pin); err != nil || pin[0] < '0' || pin[0] > '9' {
				findings = append(findings, Finding{
					Rule:     "P009",
					Severity: SeverityError,
					Message:  fmt.Sprintf("%s=%q is neither a version nor a channel keyword", pinVar, pin),
					Location: loc,
				})
			}
		}
	}

	for _, stage := range s.policy.RequiredStages {
		if !stageSeen[stage] {
			findings = append(findings, Finding{
				Rule:     "P004",
				Severity: SeverityError,
				Message:  fmt.Sprintf("policy stage %q has no job in the matrix", stage),
				Location: "matrix",
			})
		}
	}

	for _, i := range s.matrix.UnmatchedSelectors(p, jobs) {
		findings = append(findings, Finding{
			Rule:     "P005",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("allow_failures selector %q matches no job", p.Matrix.AllowFailures[i].Env.String()),
			Location: "matrix.allow_failures",
		})
	}

	for _, i := range s.matrix.Duplicates(jobs) {
		findings = append(findings, Finding{
			Rule:     "P006",
			Severity: SeverityWarning,
			Message:  "job duplicates an earlier entry's operating system and environment",
			Location: "job " + jobs[i].Name,
		})
	}

	findings = append(findings, s.lintCoverage(p, jobs)...)

	return findings
}

// lintCoverage enforces P008: each after_success guard must select exactly
// one job, and must agree with the policy's coverage command when set.
func (s *LintService) lintCoverage(p *entities.Pipeline, jobs []entities.Job) []Finding {
	var findings []Finding
	for _, guard := range ParseCoverageGuards(p.AfterSuccess) {
		matched := guard.MatchingJobs(jobs)
		if len(matched) != 1 {
			findings = append(findings, Finding{
				Rule:     "P008",
				Severity: SeverityError,
				Message: fmt.Sprintf("after_success guard %s == %q selects %d jobs, want exactly 1",
					guard.Var, guard.Literal, len(matched)),
				Location: "after_success",
			})
		}
		if s.policy.CoverageCommand != "" && guard.Var == entities.EnvSetupCmd &&
			guard.Literal != s.policy.CoverageCommand {
			findings = append(findings, Finding{
				Rule:     "P008",
				Severity: SeverityWarning,
				Message: fmt.Sprintf("coverage guard literal %q differs from policy coverage command %q",
					guard.Literal, s.policy.CoverageCommand),
				Location: "after_success",
			})
		}
	}
	return findings
}

// LintRecipe checks the packaging recipe rules (R001..R007).
func (s *LintService) LintRecipe(r *entities.Recipe) []Finding {
	var findings []Finding

	hostNames := r.Requirements.HostNames()
	for _, dep := range r.Requirements.Run {
		if !hostNames[dep.Name] {
			findings = append(findings, Finding{
				Rule:     "R001",
				Severity: SeverityError,
				Message:  fmt.Sprintf("run dependency %q is not in the host dependency list", dep.Name),
				Location: "requirements.run",
			})
		}
	}

	switch {
	case r.Package.Name == "":
		findings = append(findings, Finding{
			Rule: "R002", Severity: SeverityError,
			Message: "package name is empty", Location: "package",
		})
	case r.Package.Name != strings.ToLower(r.Package.Name):
		findings = append(findings, Finding{
			Rule: "R002", Severity: SeverityError,
			Message:  fmt.Sprintf("package name %q must be lowercase", r.Package.Name),
			Location: "package",
		})
	}
	if r.Package.Version != "" {
		if _, err := entities.ParseVersion(r.Package.Version); err != nil {
			findings = append(findings, Finding{
				Rule: "R002", Severity: SeverityError,
				Message:  fmt.Sprintf("package version %q does not parse: %v", r.Package.Version, err),
				Location: "package",
			})
		}
	}

	if r.Source.SHA256 != "" && !sha256Pattern.MatchString(r.Source.SHA256) {
		findings = append(findings, Finding{
			Rule: "R003", Severity: SeverityError,
			Message:  "source sha256 must be 64 lowercase hex characters",
			Location: "source",
		})
	}

	if r.About.License == "" {
		findings = append(findings, Finding{
			Rule: "R004", Severity: SeverityError,
			Message: "about.license is missing", Location: "about",
		})
	}
	if r.About.Home == "" {
		findings = append(findings, Finding{
			Rule: "R004", Severity: SeverityWarning,
			Message: "about.home is missing", Location: "about",
		})
	}
	if len(r.Extra.RecipeMaintainers) == 0 {
		findings = append(findings, Finding{
			Rule: "R004", Severity: SeverityError,
			Message: "extra.recipe-maintainers is empty", Location: "extra",
		})
	}

	if r.Package.Name != "" && !contains(r.Test.Imports, r.Package.Name) {
		findings = append(findings, Finding{
			Rule: "R005", Severity: SeverityError,
			Message:  fmt.Sprintf("test imports do not include the package itself (%q)", r.Package.Name),
			Location: "test.imports",
		})
	}

	for _, runDep := range r.Requirements.Run {
		hostDep, ok := r.Requirements.FindHost(runDep.Name)
		if !ok {
			continue // R001 already reported
		}
		runMin, runOK := runDep.Spec.MinBound()
		hostMin, hostOK := hostDep.Spec.MinBound()
		if runOK && hostOK && runMin.Less(hostMin) {
			findings = append(findings, Finding{
				Rule: "R006", Severity: SeverityWarning,
				Message: fmt.Sprintf("%s: run floor %s is below host floor %s",
					runDep.Name, runMin, hostMin),
				Location: "requirements",
			})
		}
	}

	for _, list := range []struct {
		name string
		deps []entities.Dependency
	}{
		{"requirements.host", r.Requirements.Host},
		{"requirements.run", r.Requirements.Run},
	} {
		py, ok := findDep(list.deps, "python")
		if !ok {
			findings = append(findings, Finding{
				Rule: "R007", Severity: SeverityError,
				Message: "python is not declared", Location: list.name,
			})
			continue
		}
		if py.Spec.IsEmpty() {
			findings = append(findings, Finding{
				Rule: "R007", Severity: SeverityWarning,
				Message: "python requirement is unpinned", Location: list.name,
			})
		}
	}

	return findings
}

// CrossCheck verifies the recipe and the CI matrix agree (X001..X002).
func (s *LintService) CrossCheck(jobs []entities.Job, r *entities.Recipe) []Finding {
	var findings []Finding

	if py, ok := r.Requirements.FindRun("python"); ok && !py.Spec.IsEmpty() {
		satisfied := false
		for _, job := range jobs {
			v, err := entities.ParseVersion(job.PythonVersion())
			if err != nil {
				continue
			}
			if py.Spec.Matches(v) {
				satisfied = true
				break
			}
		}
		if !satisfied && len(jobs) > 0 {
			findings = append(findings, Finding{
				Rule: "X001", Severity: SeverityError,
				Message: fmt.Sprintf("recipe python requirement %q is not exercised by any CI job",
					py.Spec),
				Location: "requirements.run",
			})
		}
	}

	// The distribution must test the floor it promises: the lowest version
	// pinned in CI for each counterpart package must satisfy the recipe's
	// run constraint.
	for pkg, pinVar := range map[string]string{
		"numpy":   entities.EnvNumpyVersion,
		"astropy": entities.EnvAstropyVersion,
		"synphot": entities.EnvSynphotVersion,
	} {
		dep, ok := r.Requirements.FindRun(pkg)
		if !ok || dep.Spec.IsEmpty() {
			continue
		}
		lowest, ok := lowestPinned(jobs, pinVar)
		if !ok {
			continue
		}
		if !dep.Spec.Matches(lowest) {
			findings = append(findings, Finding{
				Rule: "X002", Severity: SeverityError,
				Message: fmt.Sprintf("lowest CI-tested %s version %s does not satisfy recipe constraint %q",
					pkg, lowest, dep.Spec),
				Location: pinVar,
			})
		}
	}

	return findings
}

// lowestPinned returns the smallest parseable version pinned for pinVar
// across the jobs. Channel keywords are skipped.
func lowestPinned(jobs []entities.Job, pinVar string) (entities.Version, bool) {
	var lowest entities.Version
	found := false
	for _, job := range jobs {
		pin, ok := job.Env.Get(pinVar)
		if !ok || channelKeywords[strings.ToLower(pin)] {
			continue
		}
		v, err := entities.ParseVersion(pin)
		if err != nil {
			continue
		}
		if !found || v.Less(lowest) {
			lowest = v
			found = true
		}
	}
	return lowest, found
}

func findDep(deps []entities.Dependency, name string) (entities.Dependency, bool) {
	for _, d := range deps {
		if d.Name == name {
			return d, true
		}
	}
	return entities.Dependency{}, false
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
