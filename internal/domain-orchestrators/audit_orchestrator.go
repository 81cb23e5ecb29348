// Package orchestrators coordinates workflows across the domain services.
package orchestrators

import (
	"context"
	"fmt"
	"time"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
	"github.com/sbpy-tools/sbforge/internal/domain/interfaces"
	"github.com/sbpy-tools/sbforge/internal/domain/interfaces/repositories"
	"github.com/sbpy-tools/sbforge/internal/domain/services"
)

// AuditOrchestrator runs the full metadata audit: load the project files,
// expand the matrix, and lint everything against the policy.
type AuditOrchestrator struct {
	projects repositories.ProjectRepository
	matrix   *services.MatrixService
	logger   interfaces.Logger
}

// NewAuditOrchestrator creates a new audit orchestrator.
func NewAuditOrchestrator(projects repositories.ProjectRepository,
	matrix *services.MatrixService, logger interfaces.Logger) *AuditOrchestrator {

	if matrix == nil {
		matrix = services.NewMatrixService()
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &AuditOrchestrator{projects: projects, matrix: matrix, logger: logger}
}

// AuditResult contains everything the audit produced.
type AuditResult struct {
	Config   *entities.ToolConfig
	Pipeline *entities.Pipeline
	Recipe   *entities.Recipe
	Jobs     []entities.Job
	Findings []services.Finding
	Duration time.Duration
}

// HasErrors reports whether the audit produced error-level findings.
func (r *AuditResult) HasErrors() bool {
	return services.HasErrors(r.Findings)
}

// Run executes the audit workflow.
func (o *AuditOrchestrator) Run(ctx context.Context) (*AuditResult, error) {
	start := time.Now()

	cfg, err := o.projects.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pipeline, err := o.projects.LoadPipeline(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pipeline: %w", err)
	}

	recipe, err := o.projects.LoadRecipe(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recipe: %w", err)
	}

	jobs, err := o.matrix.Expand(pipeline)
	if err != nil {
		return nil, fmt.Errorf("expand matrix: %w", err)
	}
	o.logger.Debug("matrix expanded", interfaces.F("jobs", len(jobs)))

	linter := services.NewLintService(cfg.Policy, o.matrix)
	findings := linter.LintAll(pipeline, jobs, recipe)
	o.logger.Info("audit complete",
		interfaces.F("jobs", len(jobs)),
		interfaces.F("findings", len(findings)))

	return &AuditResult{
		Config:   cfg,
		Pipeline: pipeline,
		Recipe:   recipe,
		Jobs:     jobs,
		Findings: findings,
		Duration: time.Since(start),
	}, nil
}

// ExpandJobs loads the pipeline and expands its matrix without linting.
func (o *AuditOrchestrator) ExpandJobs(ctx context.Context) (*entities.ToolConfig, []entities.Job, error) {
	cfg, err := o.projects.LoadConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	pipeline, err := o.projects.LoadPipeline(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load pipeline: %w", err)
	}

	jobs, err := o.matrix.Expand(pipeline)
	if err != nil {
		return nil, nil, fmt.Errorf("expand matrix: %w", err)
	}
	return cfg, jobs, nil
}
