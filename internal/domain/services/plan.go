package services

import (
	"fmt"
	"strings"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
)

// PackageSource says where a planned package comes from.
type PackageSource string

// Provisioning sources.
const (
	SourceConda PackageSource = "conda"
	SourcePip   PackageSource = "pip"
	SourceGit   PackageSource = "git"
)

// PlanPackage is one entry of a provisioning plan.
type PlanPackage struct {
	Name       string        `json:"name"`
	Pin        string        `json:"pin,omitempty"`
	Source     PackageSource `json:"source"`
	URL        string        `json:"url,omitempty"`
	PreRelease bool          `json:"pre_release,omitempty"`
}

// ProvisionPlan is the environment a job needs before its command can run:
// the interpreter, the conda packages, and the pip installs, in that order.
type ProvisionPlan struct {
	Python   string        `json:"python"`
	Channels []string      `json:"channels"`
	Conda    []PlanPackage `json:"conda"`
	Pip      []PlanPackage `json:"pip,omitempty"`
	Verbose  bool          `json:"verbose,omitempty"`
}

// PlanService derives provisioning plans from job environments,
// reproducing the contract of the provisioning helper the CI matrix
// delegated to.
type PlanService struct{}

// NewPlanService creates a new plan service.
func NewPlanService() *PlanService {
	return &PlanService{}
}

// Development install sources for pins set to a dev channel keyword.
var devSources = map[string]string{
	"numpy":   "git+https://github.com/numpy/numpy.git",
	"astropy": "git+https://github.com/astropy/astropy.git",
	"synphot": "git+https://github.com/spacetelescope/synphot_refactor.git",
}

var plannedPins = []struct {
	pkg    string
	pinVar string
}{
	{"numpy", entities.EnvNumpyVersion},
	{"astropy", entities.EnvAstropyVersion},
	{"synphot", entities.EnvSynphotVersion},
}

// Build computes the provisioning plan for one job. Pin variables accept a
// concrete version, or a channel keyword: "stable" installs the latest
// conda package unpinned, "dev"/"development" installs from the upstream
// git head, and "prerelease"/"pre" takes the newest pip pre-release.
func (s *PlanService) Build(job entities.Job) (*ProvisionPlan, error) {
	python := job.PythonVersion()
	if python == "" {
		return nil, fmt.Errorf("job %s: PYTHON_VERSION is not set", job.Name)
	}

	plan := &ProvisionPlan{
		Python:   python,
		Channels: []string{"defaults", "astropy"},
		Verbose:  strings.EqualFold(job.Env.Value(entities.EnvDebug), "true"),
	}
	plan.Conda = append(plan.Conda, PlanPackage{Name: "python", Pin: python, Source: SourceConda})

	for _, entry := range plannedPins {
		pin, ok := job.Env.Get(entry.pinVar)
		if !ok || pin == "" {
			continue
		}
		pkg, err := s.resolvePin(entry.pkg, pin)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", job.Name, err)
		}
		if pkg.Source == SourceConda {
			plan.Conda = append(plan.Conda, pkg)
		} else {
			plan.Pip = append(plan.Pip, pkg)
		}
	}

	for _, extra := range strings.Fields(job.Env.Value(entities.EnvPipDeps)) {
		plan.Pip = append(plan.Pip, PlanPackage{Name: extra, Source: SourcePip})
	}

	return plan, nil
}

func (s *PlanService) resolvePin(pkg, pin string) (PlanPackage, error) {
	switch strings.ToLower(pin) {
	case "stable":
		return PlanPackage{Name: pkg, Source: SourceConda}, nil
	case "dev", "development":
		url, ok := devSources[pkg]
		if !ok {
			return PlanPackage{}, fmt.Errorf("no development source known for %s", pkg)
		}
		return PlanPackage{Name: pkg, Source: SourceGit, URL: url}, nil
	case "prerelease", "pre":
		return PlanPackage{Name: pkg, Source: SourcePip, PreRelease: true}, nil
	}

	if _, err := entities.ParseVersion(pin); err != nil {
		return PlanPackage{}, fmt.Errorf("%s pin %q: %w", pkg, pin, err)
	}
	return PlanPackage{Name: pkg, Pin: pin, Source: SourceConda}, nil
}

// Render writes the plan as the shell commands a provisioning step would
// run, one per line.
func (p *ProvisionPlan) Render() string {
	var b strings.Builder

	quiet := " -q"
	if p.Verbose {
		quiet = " -v"
	}

	conda := make([]string, 0, len(p.Conda))
	for _, pkg := range p.Conda {
		if pkg.Pin != "" {
			conda = append(conda, pkg.Name+"="+pkg.Pin)
		} else {
			conda = append(conda, pkg.Name)
		}
	}
	fmt.Fprintf(&b, "conda install%s -c %s %s\n",
		quiet, strings.Join(p.Channels, " -c "), strings.Join(conda, " "))

	for _, pkg := range p.Pip {
		switch {
		case pkg.Source == SourceGit:
			fmt.Fprintf(&b, "pip install%s %s\n", quiet, pkg.URL)
		case pkg.PreRelease:
			fmt.Fprintf(&b, "pip install%s --pre %s\n", quiet, pkg.Name)
		default:
			fmt.Fprintf(&b, "pip install%s %s\n", quiet, pkg.Name)
		}
	}

	return b.String()
}
