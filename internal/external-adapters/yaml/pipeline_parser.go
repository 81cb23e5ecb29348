// Package yaml provides YAML-based parsing and repository implementations
// for the CI pipeline, the packaging recipe, and the tool configuration.
package yaml

import (
	"fmt"
	"os"
	"regexp"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlPipeline represents the raw travis-style YAML structure.
type yamlPipeline struct {
	Language     string       `yaml:"language"`
	OS           stringOrList `yaml:"os"`
	Env          yamlEnv      `yaml:"env"`
	Matrix       yamlMatrix   `yaml:"matrix"`
	AfterSuccess []string     `yaml:"after_success"`
}

type yamlEnv struct {
	Global []yaml.Node `yaml:"global"`
}

type yamlMatrix struct {
	FastFinish    bool              `yaml:"fast_finish"`
	Include       []yamlInclude     `yaml:"include"`
	AllowFailures []yamlEnvSelector `yaml:"allow_failures"`
}

type yamlInclude struct {
	Name  string `yaml:"name"`
	Stage string `yaml:"stage"`
	OS    string `yaml:"os"`
	Env   string `yaml:"env"`
	If    string `yaml:"if"`
}

type yamlEnvSelector struct {
	Env string `yaml:"env"`
}

// stringOrList accepts a YAML scalar or sequence of scalars.
type stringOrList []string

func (s *stringOrList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	return fmt.Errorf("expected scalar or sequence, got yaml kind %d", node.Kind)
}

// eventCondition matches travis job conditions like "type = cron".
var eventCondition = regexp.MustCompile(`^\s*type\s*=?=\s*(\w+)\s*$`)

// PipelineParser parses travis-style pipeline YAML files.
type PipelineParser struct{}

// NewPipelineParser creates a new pipeline parser.
func NewPipelineParser() *PipelineParser {
	return &PipelineParser{}
}

// ParseFile parses a pipeline YAML file into a Pipeline entity.
func (p *PipelineParser) ParseFile(filePath string) (*entities.Pipeline, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return p.Parse(data)
}

// Parse parses pipeline YAML bytes into a Pipeline entity.
func (p *PipelineParser) Parse(data []byte) (*entities.Pipeline, error) {
	var raw yamlPipeline
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	pipeline := &entities.Pipeline{
		Language:     raw.Language,
		OS:           raw.OS,
		AfterSuccess: raw.AfterSuccess,
		Matrix: entities.MatrixConfig{
			FastFinish: raw.Matrix.FastFinish,
		},
	}

	globalEnv, secure, err := convertGlobalEnv(raw.Env.Global)
	if err != nil {
		return nil, err
	}
	pipeline.GlobalEnv = globalEnv
	pipeline.SecureVars = secure

	for i, inc := range raw.Matrix.Include {
		entry := entities.IncludeEntry{
			Name:  inc.Name,
			Stage: inc.Stage,
			OS:    inc.OS,
		}
		if inc.Env != "" {
			env, err := entities.ParseEnvString(inc.Env)
			if err != nil {
				return nil, fmt.Errorf("matrix.include[%d]: %w", i, err)
			}
			entry.Env = env
		}
		if inc.If != "" {
			m := eventCondition.FindStringSubmatch(inc.If)
			if m == nil {
				return nil, fmt.Errorf("matrix.include[%d]: unsupported condition %q", i, inc.If)
			}
			entry.OnEvent = m[1]
		}
		pipeline.Matrix.Include = append(pipeline.Matrix.Include, entry)
	}

	for i, sel := range raw.Matrix.AllowFailures {
		env, err := entities.ParseEnvString(sel.Env)
		if err != nil {
			return nil, fmt.Errorf("matrix.allow_failures[%d]: %w", i, err)
		}
		pipeline.Matrix.AllowFailures = append(pipeline.Matrix.AllowFailures,
			entities.EnvSelector{Env: env})
	}

	return pipeline, nil
}

// convertGlobalEnv handles env.global entries that are either plain env
// strings or {secure: ...} maps. Secure values stay opaque; only their
// presence is recorded.
func convertGlobalEnv(nodes []yaml.Node) (entities.EnvSet, int, error) {
	env := entities.EnvSet{}
	secure := 0

	for i := range nodes {
		node := &nodes[i]
		switch node.Kind {
		case yaml.ScalarNode:
			parsed, err := entities.ParseEnvString(node.Value)
			if err != nil {
				return entities.EnvSet{}, 0, fmt.Errorf("env.global[%d]: %w", i, err)
			}
			env = env.Merge(parsed)
		case yaml.MappingNode:
			var m map[string]string
			if err := node.Decode(&m); err != nil {
				return entities.EnvSet{}, 0, fmt.Errorf("env.global[%d]: %w", i, err)
			}
			if _, ok := m["secure"]; !ok {
				return entities.EnvSet{}, 0, fmt.Errorf("env.global[%d]: mapping entries must be secure vars", i)
			}
			secure++
		default:
			return entities.EnvSet{}, 0, fmt.Errorf("env.global[%d]: unexpected yaml kind %d", i, node.Kind)
		}
	}

	return env, secure, nil
}
