package services

import (
	"regexp"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
)

// CoverageGuard is a parsed after_success step of the form
//
//	if [[ $SETUP_CMD == 'test --coverage --remote-data' ]]; then coveralls; fi
//
// The guard fires for a job if and only if the job's merged value for Var
// equals Literal exactly. No pattern or substring matching.
type CoverageGuard struct {
	Var     string
	Literal string
	Command string
}

var guardPattern = regexp.MustCompile(
	`^\s*if\s+\[\[?\s*"?\$\{?(\w+)\}?"?\s*==?\s*'([^']*)'\s*\]?\]\s*;\s*then\s+(.+?)\s*;\s*fi\s*;?\s*$`)

// ParseCoverageGuards extracts the guarded steps from a pipeline's
// after_success list. Steps that do not match the guard shape are ignored;
// they are plain commands the provider runs unconditionally.
func ParseCoverageGuards(afterSuccess []string) []CoverageGuard {
	var guards []CoverageGuard
	for _, step := range afterSuccess {
		m := guardPattern.FindStringSubmatch(step)
		if m == nil {
			continue
		}
		guards = append(guards, CoverageGuard{Var: m[1], Literal: m[2], Command: m[3]})
	}
	return guards
}

// Fires reports whether the guard's command runs after the given job.
func (g CoverageGuard) Fires(job entities.Job) bool {
	v, ok := job.Env.Get(g.Var)
	return ok && v == g.Literal
}

// MatchingJobs returns the jobs for which the guard fires.
func (g CoverageGuard) MatchingJobs(jobs []entities.Job) []entities.Job {
	var out []entities.Job
	for _, job := range jobs {
		if g.Fires(job) {
			out = append(out, job)
		}
	}
	return out
}
