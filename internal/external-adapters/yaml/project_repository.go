package yaml

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the tool configuration file looked up in the project
// directory.
const ConfigFileName = "sbforge.yml"

// Sentinel errors callers branch on with errors.Is.
var (
	ErrRecipeNotFound  = errors.New("recipe file not found")
	ErrSnapshotMissing = errors.New("snapshot file not found")
)

// Built-in defaults matching the distribution's current layout and the
// interpreter versions it supports.
var defaultConfig = entities.ToolConfig{
	PipelinePath: ".travis.yml",
	RecipePath:   "meta.yaml",
	SnapshotPath: "ci-jobs.lock.yml",
	Policy: entities.Policy{
		SupportedPythons: []string{"3.6", "3.7"},
	},
}

type yamlToolConfig struct {
	Pipeline  string         `yaml:"pipeline"`
	Recipe    string         `yaml:"recipe"`
	Snapshot  string         `yaml:"snapshot"`
	Policy    yamlPolicy     `yaml:"policy"`
	Upstreams []yamlUpstream `yaml:"upstreams"`
}

type yamlPolicy struct {
	SupportedPythons []string `yaml:"supported_pythons"`
	RequiredStages   []string `yaml:"required_stages"`
	CoverageCommand  string   `yaml:"coverage_command"`
}

type yamlUpstream struct {
	Name           string `yaml:"name"`
	Repo           string `yaml:"repo"`
	PinVar         string `yaml:"pin_var"`
	ExcludePattern string `yaml:"exclude_pattern"`
}

// ProjectRepository implements repositories.ProjectRepository over a
// project directory holding sbforge.yml, the pipeline file, and the
// recipe file.
type ProjectRepository struct {
	projectDir     string
	pipelineParser *PipelineParser
	recipeParser   *RecipeParser
}

// NewProjectRepository creates a repository rooted at projectDir.
func NewProjectRepository(projectDir string) *ProjectRepository {
	return &ProjectRepository{
		projectDir:     projectDir,
		pipelineParser: NewPipelineParser(),
		recipeParser:   NewRecipeParser(),
	}
}

// LoadConfig reads sbforge.yml, filling unset fields with defaults. When
// the file is absent the defaults are returned unchanged.
func (r *ProjectRepository) LoadConfig(_ context.Context) (*entities.ToolConfig, error) {
	cfg := defaultConfig

	data, err := os.ReadFile(filepath.Join(r.projectDir, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFileName, err)
	}

	var raw yamlToolConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}

	if raw.Pipeline != "" {
		cfg.PipelinePath = raw.Pipeline
	}
	if raw.Recipe != "" {
		cfg.RecipePath = raw.Recipe
	}
	if raw.Snapshot != "" {
		cfg.SnapshotPath = raw.Snapshot
	}
	if len(raw.Policy.SupportedPythons) > 0 {
		cfg.Policy.SupportedPythons = raw.Policy.SupportedPythons
	}
	cfg.Policy.RequiredStages = raw.Policy.RequiredStages
	cfg.Policy.CoverageCommand = raw.Policy.CoverageCommand

	for i, up := range raw.Upstreams {
		if up.Name == "" || up.Repo == "" {
			return nil, fmt.Errorf("upstreams[%d]: name and repo are required", i)
		}
		cfg.Upstreams = append(cfg.Upstreams, entities.Upstream{
			Name:           up.Name,
			Repo:           up.Repo,
			PinVar:         up.PinVar,
			ExcludePattern: up.ExcludePattern,
		})
	}

	return &cfg, nil
}

// LoadPipeline parses the configured pipeline file.
func (r *ProjectRepository) LoadPipeline(ctx context.Context) (*entities.Pipeline, error) {
	cfg, err := r.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return r.pipelineParser.ParseFile(filepath.Join(r.projectDir, cfg.PipelinePath))
}

// LoadRecipe parses the configured recipe file.
func (r *ProjectRepository) LoadRecipe(ctx context.Context) (*entities.Recipe, error) {
	cfg, err := r.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	recipe, err := r.recipeParser.ParseFile(filepath.Join(r.projectDir, cfg.RecipePath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, cfg.RecipePath)
		}
		return nil, err
	}
	return recipe, nil
}

// SnapshotPath resolves the configured snapshot file inside the project
// directory.
func (r *ProjectRepository) SnapshotPath(ctx context.Context) (string, error) {
	cfg, err := r.LoadConfig(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.projectDir, cfg.SnapshotPath), nil
}

// ReadSnapshot returns the committed snapshot bytes, or ErrSnapshotMissing
// when no snapshot has been recorded yet.
func (r *ProjectRepository) ReadSnapshot(ctx context.Context) ([]byte, error) {
	path, err := r.SnapshotPath(ctx)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotMissing, path)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}
