package yaml

import (
	"fmt"
	"os"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlRecipe represents the raw conda meta.yaml structure.
type yamlRecipe struct {
	Package      yamlRecipePackage `yaml:"package"`
	Source       yamlRecipeSource  `yaml:"source"`
	Build        yamlRecipeBuild   `yaml:"build"`
	Requirements yamlRequirements  `yaml:"requirements"`
	Test         yamlRecipeTest    `yaml:"test"`
	About        yamlRecipeAbout   `yaml:"about"`
	Extra        yamlRecipeExtra   `yaml:"extra"`
}

type yamlRecipePackage struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type yamlRecipeSource struct {
	URL        string `yaml:"url"`
	SHA256     string `yaml:"sha256"`
	Signature  string `yaml:"signature"`
	KeyringURL string `yaml:"keyring_url"`
}

type yamlRecipeBuild struct {
	Number int    `yaml:"number"`
	Script string `yaml:"script"`
	Noarch string `yaml:"noarch"`
}

type yamlRequirements struct {
	Host []string `yaml:"host"`
	Run  []string `yaml:"run"`
}

type yamlRecipeTest struct {
	Imports  []string `yaml:"imports"`
	Requires []string `yaml:"requires"`
	Commands []string `yaml:"commands"`
}

type yamlRecipeAbout struct {
	Home          string `yaml:"home"`
	License       string `yaml:"license"`
	LicenseFamily string `yaml:"license_family"`
	Summary       string `yaml:"summary"`
	DocURL        string `yaml:"doc_url"`
	DevURL        string `yaml:"dev_url"`
}

type yamlRecipeExtra struct {
	RecipeMaintainers []string `yaml:"recipe-maintainers"`
}

// RecipeParser parses conda meta.yaml recipe files.
type RecipeParser struct{}

// NewRecipeParser creates a new recipe parser.
func NewRecipeParser() *RecipeParser {
	return &RecipeParser{}
}

// ParseFile parses a recipe file into a Recipe entity.
func (p *RecipeParser) ParseFile(filePath string) (*entities.Recipe, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return p.Parse(data)
}

// Parse parses recipe YAML bytes into a Recipe entity.
func (p *RecipeParser) Parse(data []byte) (*entities.Recipe, error) {
	var raw yamlRecipe
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if raw.Package.Name == "" {
		return nil, fmt.Errorf("recipe must have a package name")
	}

	host, err := convertDependencies("requirements.host", raw.Requirements.Host)
	if err != nil {
		return nil, err
	}
	run, err := convertDependencies("requirements.run", raw.Requirements.Run)
	if err != nil {
		return nil, err
	}
	testRequires, err := convertDependencies("test.requires", raw.Test.Requires)
	if err != nil {
		return nil, err
	}

	return &entities.Recipe{
		Package: entities.RecipePackage{
			Name:    raw.Package.Name,
			Version: raw.Package.Version,
		},
		Source: entities.RecipeSource{
			URL:        raw.Source.URL,
			SHA256:     raw.Source.SHA256,
			Signature:  raw.Source.Signature,
			KeyringURL: raw.Source.KeyringURL,
		},
		Build: entities.RecipeBuild{
			Number: raw.Build.Number,
			Script: raw.Build.Script,
			Noarch: raw.Build.Noarch,
		},
		Requirements: entities.RecipeRequirements{
			Host: host,
			Run:  run,
		},
		Test: entities.RecipeTest{
			Imports:  raw.Test.Imports,
			Requires: testRequires,
			Commands: raw.Test.Commands,
		},
		About: entities.RecipeAbout{
			Home:          raw.About.Home,
			License:       raw.About.License,
			LicenseFamily: raw.About.LicenseFamily,
			Summary:       raw.About.Summary,
			DocURL:        raw.About.DocURL,
			DevURL:        raw.About.DevURL,
		},
		Extra: entities.RecipeExtra{
			RecipeMaintainers: raw.Extra.RecipeMaintainers,
		},
	}, nil
}

func convertDependencies(section string, lines []string) ([]entities.Dependency, error) {
	deps := make([]entities.Dependency, 0, len(lines))
	for i, line := range lines {
		dep, err := entities.ParseDependency(line)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", section, i, err)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}
