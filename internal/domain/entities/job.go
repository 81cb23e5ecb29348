package entities

import "strings"

// Environment variable names that carry the CI contract. The pipeline's
// jobs are driven entirely by these; everything else is free-form.
const (
	EnvPythonVersion  = "PYTHON_VERSION"
	EnvNumpyVersion   = "NUMPY_VERSION"
	EnvAstropyVersion = "ASTROPY_VERSION"
	EnvSynphotVersion = "SYNPHOT_VERSION"
	EnvMainCmd        = "MAIN_CMD"
	EnvSetupCmd       = "SETUP_CMD"
	EnvEventType      = "EVENT_TYPE"
	EnvPipDeps        = "PIP_DEPENDENCIES"
	EnvADSDevKey      = "ADS_DEV_KEY"
	EnvDebug          = "DEBUG"
)

// Job is one concrete, fully merged entry of the expanded matrix.
type Job struct {
	Name         string
	Stage        string
	OS           string
	Env          EnvSet
	OnEvent      string
	AllowFailure bool
}

// Command renders the job's test invocation, `$MAIN_CMD $SETUP_CMD` after
// environment resolution, e.g. "python setup.py test".
func (j Job) Command() string {
	main := j.Env.Value(EnvMainCmd)
	setup := j.Env.Value(EnvSetupCmd)
	switch {
	case main == "":
		return setup
	case setup == "":
		return main
	default:
		return main + " " + setup
	}
}

// PythonVersion returns the interpreter version the job runs under.
func (j Job) PythonVersion() string {
	return j.Env.Value(EnvPythonVersion)
}

// RemoteData reports whether the job's test run is allowed to hit live
// data services (`--remote-data` in SETUP_CMD).
func (j Job) RemoteData() bool {
	return strings.Contains(j.Env.Value(EnvSetupCmd), "--remote-data")
}
