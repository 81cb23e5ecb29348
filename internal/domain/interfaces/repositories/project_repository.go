// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
)

// ProjectRepository loads the distribution's release-engineering metadata:
// the tool configuration, the CI pipeline, and the packaging recipe.
type ProjectRepository interface {
	// LoadConfig reads the tool configuration, with defaults applied.
	LoadConfig(ctx context.Context) (*entities.ToolConfig, error)

	// LoadPipeline reads and parses the CI pipeline definition.
	LoadPipeline(ctx context.Context) (*entities.Pipeline, error)

	// LoadRecipe reads and parses the conda packaging recipe.
	LoadRecipe(ctx context.Context) (*entities.Recipe, error)
}
