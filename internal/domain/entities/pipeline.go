package entities

// Pipeline represents a parsed CI pipeline definition: the global
// environment, the job matrix, and the post-success steps.
type Pipeline struct {
	Language     string
	OS           []string
	GlobalEnv    EnvSet
	SecureVars   int // opaque encrypted global env entries, values unknown
	Matrix       MatrixConfig
	AfterSuccess []string
}

// MatrixConfig holds the job matrix: explicit include entries plus the
// provider-level failure policy knobs.
type MatrixConfig struct {
	FastFinish    bool
	Include       []IncludeEntry
	AllowFailures []EnvSelector
}

// IncludeEntry is one declared job before expansion. Env overrides the
// pipeline's global environment; empty fields inherit pipeline defaults.
type IncludeEntry struct {
	Name    string
	Stage   string
	OS      string
	Env     EnvSet
	OnEvent string // restricts the job to one trigger event, e.g. "cron"
}

// EnvSelector matches jobs by a subset of their merged environment.
// Used by matrix.allow_failures.
type EnvSelector struct {
	Env EnvSet
}

// DefaultOS returns the pipeline's first declared operating system, or
// "linux" when none is declared.
func (p *Pipeline) DefaultOS() string {
	if len(p.OS) > 0 {
		return p.OS[0]
	}
	return "linux"
}
