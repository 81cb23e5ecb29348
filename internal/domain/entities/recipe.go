package entities

// Recipe represents a conda-style packaging recipe (meta.yaml).
type Recipe struct {
	Package      RecipePackage
	Source       RecipeSource
	Build        RecipeBuild
	Requirements RecipeRequirements
	Test         RecipeTest
	About        RecipeAbout
	Extra        RecipeExtra
}

// RecipePackage identifies the distributable package.
type RecipePackage struct {
	Name    string
	Version string
}

// RecipeSource declares where the source tarball comes from and how it is
// authenticated. Signature and KeyringURL are optional; SHA256 is the
// primary integrity check.
type RecipeSource struct {
	URL        string
	SHA256     string
	Signature  string // URL or path of a detached GPG signature
	KeyringURL string // URL of the upstream KEYS file
}

// RecipeBuild declares how the package is built.
type RecipeBuild struct {
	Number int
	Script string
	Noarch string
}

// RecipeRequirements holds the build-time (host) and run-time dependency
// lists.
type RecipeRequirements struct {
	Host []Dependency
	Run  []Dependency
}

// RecipeTest declares the recipe's post-build smoke test.
type RecipeTest struct {
	Imports  []string
	Requires []Dependency
	Commands []string
}

// RecipeAbout carries distribution metadata.
type RecipeAbout struct {
	Home          string
	License       string
	LicenseFamily string
	Summary       string
	DocURL        string
	DevURL        string
}

// RecipeExtra carries the maintainer list.
type RecipeExtra struct {
	RecipeMaintainers []string
}

// Dependency is one entry of a requirements list: a package name plus an
// optional version spec, parsed from lines like "numpy >=1.13.0".
type Dependency struct {
	Name string
	Spec VersionSpec
}

// HostNames returns the set of host dependency names.
func (r RecipeRequirements) HostNames() map[string]bool {
	names := make(map[string]bool, len(r.Host))
	for _, d := range r.Host {
		names[d.Name] = true
	}
	return names
}

// FindRun returns the run dependency with the given name, if declared.
func (r RecipeRequirements) FindRun(name string) (Dependency, bool) {
	for _, d := range r.Run {
		if d.Name == name {
			return d, true
		}
	}
	return Dependency{}, false
}

// FindHost returns the host dependency with the given name, if declared.
func (r RecipeRequirements) FindHost(name string) (Dependency, bool) {
	for _, d := range r.Host {
		if d.Name == name {
			return d, true
		}
	}
	return Dependency{}, false
}
