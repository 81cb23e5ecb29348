// Package services implements the domain logic operating on pipelines,
// jobs, and recipes.
package services

import (
	"fmt"
	"strings"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
)

// MatrixService expands a pipeline's matrix into concrete jobs and answers
// set questions about them.
type MatrixService struct{}

// NewMatrixService creates a new matrix service.
func NewMatrixService() *MatrixService {
	return &MatrixService{}
}

// Expand produces one job per matrix include entry, in declaration order.
// Each job's environment is the global environment with the entry's
// overrides applied on top. Unset fields inherit pipeline defaults.
func (s *MatrixService) Expand(p *entities.Pipeline) ([]entities.Job, error) {
	if p == nil {
		return nil, fmt.Errorf("nil pipeline")
	}

	jobs := make([]entities.Job, 0, len(p.Matrix.Include))
	for i, entry := range p.Matrix.Include {
		job := entities.Job{
			Name:    entry.Name,
			Stage:   entry.Stage,
			OS:      entry.OS,
			Env:     p.GlobalEnv.Merge(entry.Env),
			OnEvent: entry.OnEvent,
		}
		if job.OS == "" {
			job.OS = p.DefaultOS()
		}
		if job.Name == "" {
			job.Name = defaultJobName(i, job)
		}
		job.AllowFailure = matchesAnySelector(job, p.Matrix.AllowFailures)
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// defaultJobName renders a stable name for unnamed entries from the fields
// a reader would use to tell jobs apart.
func defaultJobName(index int, job entities.Job) string {
	parts := []string{fmt.Sprintf("job%02d", index+1)}
	if job.Stage != "" {
		parts = append(parts, job.Stage)
	}
	if py := job.PythonVersion(); py != "" {
		parts = append(parts, "py"+py)
	}
	parts = append(parts, job.OS)
	return strings.Join(parts, "/")
}

func matchesAnySelector(job entities.Job, selectors []entities.EnvSelector) bool {
	for _, sel := range selectors {
		if job.Env.ContainsAll(sel.Env) {
			return true
		}
	}
	return false
}

// JobFilter restricts a job listing. Zero values match everything; Event
// keeps jobs that run for the given trigger (unconditional jobs always
// match).
type JobFilter struct {
	Stage string
	OS    string
	Event string
}

// Filter returns the jobs matching f, preserving order.
func (s *MatrixService) Filter(jobs []entities.Job, f JobFilter) []entities.Job {
	out := make([]entities.Job, 0, len(jobs))
	for _, job := range jobs {
		if f.Stage != "" && job.Stage != f.Stage {
			continue
		}
		if f.OS != "" && job.OS != f.OS {
			continue
		}
		if f.Event != "" && job.OnEvent != "" && job.OnEvent != f.Event {
			continue
		}
		out = append(out, job)
	}
	return out
}

// Duplicates returns the indices of jobs that repeat an earlier job's
// (os, merged env) combination.
func (s *MatrixService) Duplicates(jobs []entities.Job) []int {
	var dups []int
	for i := range jobs {
		for j := 0; j < i; j++ {
			if jobs[i].OS == jobs[j].OS && jobs[i].Env.Equal(jobs[j].Env) {
				dups = append(dups, i)
				break
			}
		}
	}
	return dups
}

// UnmatchedSelectors returns the indices of allow_failures selectors that
// match no expanded job.
func (s *MatrixService) UnmatchedSelectors(p *entities.Pipeline, jobs []entities.Job) []int {
	var unmatched []int
	for i, sel := range p.Matrix.AllowFailures {
		found := false
		for _, job := range jobs {
			if job.Env.ContainsAll(sel.Env) {
				found = true
				break
			}
		}
		if !found {
			unmatched = append(unmatched, i)
		}
	}
	return unmatched
}
