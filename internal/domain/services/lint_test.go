package services

import (
	"testing"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
)

func dep(t *testing.T, line string) entities.Dependency {
	t.Helper()
	d, err := entities.ParseDependency(line)
	if err != nil {
		t.Fatalf("ParseDependency(%q) error = %v", line, err)
	}
	return d
}

func testPolicy() entities.Policy {
	return entities.Policy{
		SupportedPythons: []string{"3.6", "3.7"},
		RequiredStages:   []string{"build", "test"},
		CoverageCommand:  "test --coverage --remote-data",
	}
}

func testRecipe(t *testing.T) *entities.Recipe {
	t.Helper()
	return &entities.Recipe{
		Package: entities.RecipePackage{Name: "sbpy", Version: "0.1"},
		Source: entities.RecipeSource{
			URL:    "https://pypi.io/packages/source/s/sbpy/sbpy-0.1.tar.gz",
			SHA256: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		},
		Requirements: entities.RecipeRequirements{
			Host: []entities.Dependency{
				dep(t, "python 3.7.*"),
				dep(t, "setuptools"),
				dep(t, "numpy >=1.13.0"),
				dep(t, "astropy >=3.0"),
			},
			Run: []entities.Dependency{
				dep(t, "python 3.7.*"),
				dep(t, "numpy >=1.13.0"),
				dep(t, "astropy >=3.0"),
			},
		},
		Test:  entities.RecipeTest{Imports: []string{"sbpy"}},
		About: entities.RecipeAbout{Home: "https://sbpy.org", License: "BSD-3-Clause"},
		Extra: entities.RecipeExtra{RecipeMaintainers: []string{"mkelley"}},
	}
}

func findRules(findings []Finding, rule string) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Rule == rule {
			out = append(out, f)
		}
	}
	return out
}

func expandJobs(t *testing.T, p *entities.Pipeline) []entities.Job {
	t.Helper()
	jobs, err := NewMatrixService().Expand(p)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	return jobs
}

func TestLintAll_CleanProject(t *testing.T) {
	p := testPipeline(t)
	jobs := expandJobs(t, p)
	svc := NewLintService(testPolicy(), nil)

	findings := svc.LintAll(p, jobs, testRecipe(t))
	for _, f := range findings {
		t.Errorf("unexpected finding: %s %s: %s (%s)", f.Rule, f.Severity, f.Message, f.Location)
	}
}

func TestLintPipeline_UnsupportedPython(t *testing.T) {
	p := testPipeline(t)
	p.Matrix.Include[1].Env = env(t, "PYTHON_VERSION=2.7")
	findings := NewLintService(testPolicy(), nil).LintPipeline(p, expandJobs(t, p))

	got := findRules(findings, "P001")
	if len(got) != 1 {
		t.Fatalf("got %d P001 findings, want 1: %v", len(got), findings)
	}
	if got[0].Severity != SeverityError {
		t.Errorf("P001 severity = %s, want error", got[0].Severity)
	}
}

func TestLintPipeline_MissingRequiredVars(t *testing.T) {
	p := testPipeline(t)
	p.GlobalEnv = env(t, "PYTHON_VERSION=3.7")
	p.Matrix.Include = p.Matrix.Include[:1]
	p.Matrix.Include[0].Env = env(t, "")
	p.Matrix.AllowFailures = nil
	p.AfterSuccess = nil

	findings := NewLintService(entities.Policy{}, nil).LintPipeline(p, expandJobs(t, p))
	got := findRules(findings, "P002")
	if len(got) != 2 {
		t.Fatalf("got %d P002 findings, want 2 (MAIN_CMD and SETUP_CMD): %v", len(got), got)
	}
}

func TestLintPipeline_UnknownOS(t *testing.T) {
	p := testPipeline(t)
	p.Matrix.Include[2].OS = "windows"
	findings := NewLintService(testPolicy(), nil).LintPipeline(p, expandJobs(t, p))
	if got := findRules(findings, "P003"); len(got) != 1 {
		t.Fatalf("got %d P003 findings, want 1", len(got))
	}
}

func TestLintPipeline_Stages(t *testing.T) {
	p := testPipeline(t)
	policy := testPolicy()
	policy.RequiredStages = []string{"build", "test", "docs"}

	findings := NewLintService(policy, nil).LintPipeline(p, expandJobs(t, p))
	got := findRules(findings, "P004")
	if len(got) != 1 {
		t.Fatalf("got %d P004 findings, want 1 (missing docs stage): %v", len(got), got)
	}
	if got[0].Severity != SeverityError {
		t.Errorf("missing stage severity = %s, want error", got[0].Severity)
	}

	// An undeclared stage on a job is only a warning.
	p.Matrix.Include[0].Stage = "extras"
	findings = NewLintService(testPolicy(), nil).LintPipeline(p, expandJobs(t, p))
	var warned bool
	for _, f := range findRules(findings, "P004") {
		if f.Severity == SeverityWarning {
			warned = true
		}
	}
	if !warned {
		t.Error("undeclared job stage should produce a P004 warning")
	}
}

func TestLintPipeline_UnmatchedSelectorAndDuplicates(t *testing.T) {
	p := testPipeline(t)
	p.Matrix.AllowFailures = append(p.Matrix.AllowFailures,
		entities.EnvSelector{Env: env(t, "NUMPY_VERSION=9.9")})
	p.Matrix.Include = append(p.Matrix.Include, p.Matrix.Include[1])

	findings := NewLintService(testPolicy(), nil).LintPipeline(p, expandJobs(t, p))
	if got := findRules(findings, "P005"); len(got) != 1 {
		t.Errorf("got %d P005 findings, want 1", len(got))
	}
	if got := findRules(findings, "P006"); len(got) != 1 {
		t.Errorf("got %d P006 findings, want 1", len(got))
	}
}

func TestLintPipeline_RemoteDataNeedsCredentials(t *testing.T) {
	p := testPipeline(t)
	// Strip the key and any secure entries from the coverage job.
	p.Matrix.Include[3].Env = env(t, "SETUP_CMD='test --coverage --remote-data'")
	p.SecureVars = 0

	findings := NewLintService(testPolicy(), nil).LintPipeline(p, expandJobs(t, p))
	if got := findRules(findings, "P007"); len(got) != 1 {
		t.Fatalf("got %d P007 findings, want 1", len(got))
	}

	// A secure env entry satisfies the rule even without ADS_DEV_KEY.
	p.SecureVars = 1
	findings = NewLintService(testPolicy(), nil).LintPipeline(p, expandJobs(t, p))
	if got := findRules(findings, "P007"); len(got) != 0 {
		t.Errorf("got %d P007 findings with a secure var, want 0", len(got))
	}
}

func TestLintPipeline_CoverageGuard(t *testing.T) {
	t.Run("guard selecting no job", func(t *testing.T) {
		p := testPipeline(t)
		p.AfterSuccess = []string{
			"if [[ $SETUP_CMD == 'test --coverage' ]]; then coveralls; fi",
		}
		findings := NewLintService(entities.Policy{}, nil).LintPipeline(p, expandJobs(t, p))
		if got := findRules(findings, "P008"); len(got) != 1 {
			t.Fatalf("got %d P008 findings, want 1: %v", len(got), got)
		}
	})

	t.Run("guard literal differs from policy", func(t *testing.T) {
		p := testPipeline(t)
		policy := testPolicy()
		policy.CoverageCommand = "test --coverage"
		findings := NewLintService(policy, nil).LintPipeline(p, expandJobs(t, p))
		got := findRules(findings, "P008")
		if len(got) != 1 || got[0].Severity != SeverityWarning {
			t.Fatalf("want one P008 warning, got %v", got)
		}
	})
}

func TestLintPipeline_BadPin(t *testing.T) {
	p := testPipeline(t)
	p.Matrix.Include[1].Env = env(t, "NUMPY_VERSION=latest")
	findings := NewLintService(testPolicy(), nil).LintPipeline(p, expandJobs(t, p))
	if got := findRules(findings, "P009"); len(got) != 1 {
		t.Fatalf("got %d P009 findings, want 1", len(got))
	}

	// Channel keywords are legitimate pins.
	p.Matrix.Include[1].Env = env(t, "NUMPY_VERSION=dev ASTROPY_VERSION=prerelease")
	findings = NewLintService(testPolicy(), nil).LintPipeline(p, expandJobs(t, p))
	if got := findRules(findings, "P009"); len(got) != 0 {
		t.Errorf("channel keywords flagged: %v", got)
	}
}

func TestLintRecipe(t *testing.T) {
	svc := NewLintService(testPolicy(), nil)

	t.Run("run dependency missing from host", func(t *testing.T) {
		r := testRecipe(t)
		r.Requirements.Run = append(r.Requirements.Run, dep(t, "astroquery >=0.4"))
		if got := findRules(svc.LintRecipe(r), "R001"); len(got) != 1 {
			t.Fatalf("got %d R001 findings, want 1", len(got))
		}
	})

	t.Run("package metadata", func(t *testing.T) {
		r := testRecipe(t)
		r.Package.Name = "SBpy"
		if got := findRules(svc.LintRecipe(r), "R002"); len(got) == 0 {
			t.Error("mixed-case name should be flagged")
		}
		r.Package.Name = ""
		if got := findRules(svc.LintRecipe(r), "R002"); len(got) == 0 {
			t.Error("empty name should be flagged")
		}
	})

	t.Run("malformed sha256", func(t *testing.T) {
		r := testRecipe(t)
		r.Source.SHA256 = "DEADBEEF"
		if got := findRules(svc.LintRecipe(r), "R003"); len(got) != 1 {
			t.Fatalf("got %d R003 findings, want 1", len(got))
		}
	})

	t.Run("about and maintainers", func(t *testing.T) {
		r := testRecipe(t)
		r.About.License = ""
		r.Extra.RecipeMaintainers = nil
		got := findRules(svc.LintRecipe(r), "R004")
		if len(got) != 2 {
			t.Fatalf("got %d R004 findings, want 2: %v", len(got), got)
		}
	})

	t.Run("test imports must include the package", func(t *testing.T) {
		r := testRecipe(t)
		r.Test.Imports = []string{"sbpy.data"}
		if got := findRules(svc.LintRecipe(r), "R005"); len(got) != 1 {
			t.Fatalf("got %d R005 findings, want 1", len(got))
		}
	})

	t.Run("run floor below host floor", func(t *testing.T) {
		r := testRecipe(t)
		r.Requirements.Run[1] = dep(t, "numpy >=1.10")
		got := findRules(svc.LintRecipe(r), "R006")
		if len(got) != 1 || got[0].Severity != SeverityWarning {
			t.Fatalf("want one R006 warning, got %v", got)
		}
	})

	t.Run("python must be declared and pinned", func(t *testing.T) {
		r := testRecipe(t)
		r.Requirements.Run[0] = dep(t, "python")
		got := findRules(svc.LintRecipe(r), "R007")
		if len(got) != 1 || got[0].Severity != SeverityWarning {
			t.Fatalf("unpinned python: want one R007 warning, got %v", got)
		}

		r.Requirements.Run = r.Requirements.Run[1:]
		got = findRules(svc.LintRecipe(r), "R007")
		if len(got) != 1 || got[0].Severity != SeverityError {
			t.Fatalf("undeclared python: want one R007 error, got %v", got)
		}
	})
}

func TestCrossCheck(t *testing.T) {
	svc := NewLintService(testPolicy(), nil)

	t.Run("recipe python not exercised", func(t *testing.T) {
		p := testPipeline(t)
		r := testRecipe(t)
		r.Requirements.Run[0] = dep(t, "python 3.8.*")
		r.Requirements.Host[0] = dep(t, "python 3.8.*")
		got := findRules(svc.CrossCheck(expandJobs(t, p), r), "X001")
		if len(got) != 1 {
			t.Fatalf("got %d X001 findings, want 1", len(got))
		}
	})

	t.Run("CI floor below recipe constraint", func(t *testing.T) {
		p := testPipeline(t)
		r := testRecipe(t)
		r.Requirements.Run[1] = dep(t, "numpy >=1.14")
		r.Requirements.Host[2] = dep(t, "numpy >=1.14")
		got := findRules(svc.CrossCheck(expandJobs(t, p), r), "X002")
		if len(got) != 1 {
			t.Fatalf("got %d X002 findings, want 1: lowest CI numpy is 1.13", len(got))
		}
	})

	t.Run("clean cross check", func(t *testing.T) {
		p := testPipeline(t)
		findings := svc.CrossCheck(expandJobs(t, p), testRecipe(t))
		if len(findings) != 0 {
			t.Fatalf("unexpected findings: %v", findings)
		}
	})
}

func TestHasErrors(t *testing.T) {
	if HasErrors(nil) {
		t.Error("empty findings should have no errors")
	}
	if HasErrors([]Finding{{Severity: SeverityWarning}}) {
		t.Error("warnings alone are not errors")
	}
	if !HasErrors([]Finding{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Error("error finding not detected")
	}
}
