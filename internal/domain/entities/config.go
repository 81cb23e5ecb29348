package entities

// ToolConfig is the project-level sbforge configuration (sbforge.yml):
// where the CI pipeline, packaging recipe, and matrix snapshot live, the
// lint policy, and the upstream projects to watch.
type ToolConfig struct {
	PipelinePath string
	RecipePath   string
	SnapshotPath string
	Policy       Policy
	Upstreams    []Upstream
}

// Policy drives the lint rules that are distribution-specific rather than
// structural.
type Policy struct {
	SupportedPythons []string
	RequiredStages   []string
	CoverageCommand  string
}

// Upstream maps a pinned dependency to the repository whose releases are
// watched for staleness.
type Upstream struct {
	Name           string
	Repo           string // "owner/name"
	PinVar         string // pipeline env var carrying the pin, e.g. NUMPY_VERSION
	ExcludePattern string // regex for tags to ignore (nightlies, betas)
}
