package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a conda-style version: dot/dash separated segments, with
// digit/letter boundaries split into their own parts ("1.0rc2" -> 1, 0,
// "rc", 2).
type Version struct {
	raw   string
	parts []versionPart
}

type versionPart struct {
	num     int
	str     string
	numeric bool
}

// Pre-release tags sort before the release they qualify, and among each
// other in the usual dev < alpha < beta < rc order.
var preReleaseRank = map[string]int{
	"dev":   0,
	"a":     1,
	"alpha": 1,
	"b":     2,
	"beta":  2,
	"c":     3,
	"rc":    3,
	"pre":   3,
}

// ParseVersion parses a version string such as "1.13.0" or "4.0rc1".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Version{}, fmt.Errorf("empty version string")
	}

	v := Version{raw: s}
	for _, segment := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == '+'
	}) {
		for _, piece := range splitAlphaNum(segment) {
			if n, err := strconv.Atoi(piece); err == nil {
				v.parts = append(v.parts, versionPart{num: n, numeric: true})
			} else {
				v.parts = append(v.parts, versionPart{str: piece})
			}
		}
	}
	if len(v.parts) == 0 {
		return Version{}, fmt.Errorf("unparseable version %q", s)
	}
	return v, nil
}

// MustParseVersion is ParseVersion for statically known inputs.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the original version string.
func (v Version) String() string { return v.raw }

// IsZero reports whether v is the zero Version (never parsed).
func (v Version) IsZero() bool { return len(v.parts) == 0 }

// Compare returns -1, 0, or 1 as v sorts before, equal to, or after other.
// Missing trailing parts count as zero, so "1.0" == "1.0.0" and
// "1.0rc1" < "1.0".
func (v Version) Compare(other Version) int {
	n := len(v.parts)
	if len(other.parts) > n {
		n = len(other.parts)
	}
	zero := versionPart{numeric: true}
	for i := 0; i < n; i++ {
		a, b := zero, zero
		if i < len(v.parts) {
			a = v.parts[i]
		}
		if i < len(other.parts) {
			b = other.parts[i]
		}
		if c := compareParts(a, b); c != 0 {
			return c
		}
	}
	return 0
}

// Less reports whether v sorts strictly before other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

func compareParts(a, b versionPart) int {
	switch {
	case a.numeric && b.numeric:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case a.numeric != b.numeric:
		// Tag parts sort before numeric parts (1.0rc1 < 1.0.0), except
		// "post", which marks a post-release (1.0 < 1.0.post1).
		if a.numeric {
			if b.str == "post" {
				return -1
			}
			return 1
		}
		if a.str == "post" {
			return 1
		}
		return -1
	}

	ra, oka := preReleaseRank[a.str]
	rb, okb := preReleaseRank[b.str]
	switch {
	case oka && okb:
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		}
		return 0
	case oka:
		return -1
	case okb:
		return 1
	}
	return strings.Compare(a.str, b.str)
}

// splitAlphaNum splits a segment at digit/letter boundaries.
func splitAlphaNum(s string) []string {
	var out []string
	start := 0
	for i := 1; i < len(s); i++ {
		if isDigit(s[i]) != isDigit(s[i-1]) {
			out = append(out, s[start:i])
			start = i
		}
	}
	return append(out, s[start:])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Constraint is a single comparison against a version, or a wildcard
// pattern such as "3.7.*".
type constraint struct {
	op       string
	version  Version
	wildcard Version // prefix for "x.y.*" patterns
}

// VersionSpec is a conda version specification: a comma-separated
// conjunction of constraints, e.g. ">=0.4,<1.0". The empty spec matches
// every version.
type VersionSpec struct {
	raw         string
	constraints []constraint
}

var specOperators = []string{">=", "<=", "==", "!=", ">", "<"}

// ParseSpec parses a version specification. Supported forms: comparison
// operators (>=, <=, ==, !=, >, <), bare pins ("1.2.3", treated as
// equality), and terminal wildcards ("3.7.*").
func ParseSpec(s string) (VersionSpec, error) {
	spec := VersionSpec{raw: strings.TrimSpace(s)}
	if spec.raw == "" {
		return spec, nil
	}

	for _, clause := range strings.Split(spec.raw, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return VersionSpec{}, fmt.Errorf("empty clause in version spec %q", s)
		}
		c, err := parseConstraint(clause)
		if err != nil {
			return VersionSpec{}, err
		}
		spec.constraints = append(spec.constraints, c)
	}
	return spec, nil
}

func parseConstraint(clause string) (constraint, error) {
	for _, op := range specOperators {
		if strings.HasPrefix(clause, op) {
			rest := strings.TrimSpace(clause[len(op):])
			if strings.Contains(rest, "*") {
				return constraint{}, fmt.Errorf("wildcard not allowed with operator %q in %q", op, clause)
			}
			v, err := ParseVersion(rest)
			if err != nil {
				return constraint{}, fmt.Errorf("invalid version in %q: %w", clause, err)
			}
			return constraint{op: op, version: v}, nil
		}
	}
	if strings.HasPrefix(clause, "=") || strings.HasPrefix(clause, "!") ||
		strings.HasPrefix(clause, "~") {
		return constraint{}, fmt.Errorf("unsupported operator in version spec %q", clause)
	}

	if strings.Contains(clause, "*") {
		if !strings.HasSuffix(clause, ".*") || strings.Count(clause, "*") != 1 {
			return constraint{}, fmt.Errorf("wildcard must be terminal in version spec %q", clause)
		}
		prefix, err := ParseVersion(strings.TrimSuffix(clause, ".*"))
		if err != nil {
			return constraint{}, fmt.Errorf("invalid wildcard spec %q: %w", clause, err)
		}
		return constraint{op: "=*", wildcard: prefix}, nil
	}

	v, err := ParseVersion(clause)
	if err != nil {
		return constraint{}, fmt.Errorf("invalid version pin %q: %w", clause, err)
	}
	return constraint{op: "==", version: v}, nil
}

// String returns the original spec string.
func (s VersionSpec) String() string { return s.raw }

// IsEmpty reports whether the spec places no restriction.
func (s VersionSpec) IsEmpty() bool { return len(s.constraints) == 0 }

// Matches reports whether v satisfies every constraint in the spec.
func (s VersionSpec) Matches(v Version) bool {
	for _, c := range s.constraints {
		if !c.matches(v) {
			return false
		}
	}
	return true
}

func (c constraint) matches(v Version) bool {
	if c.op == "=*" {
		return hasPrefix(v, c.wildcard)
	}
	cmp := v.Compare(c.version)
	switch c.op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	}
	return false
}

// hasPrefix reports whether every part of prefix equals the corresponding
// part of v, so "3.7.*" matches "3.7" and "3.7.4" but not "3.17".
func hasPrefix(v, prefix Version) bool {
	zero := versionPart{numeric: true}
	for i, p := range prefix.parts {
		got := zero
		if i < len(v.parts) {
			got = v.parts[i]
		}
		if compareParts(got, p) != 0 {
			return false
		}
	}
	return true
}

// MinBound returns the lowest version that could satisfy the spec's >= or
// == constraints, when one exists. Wildcards contribute their prefix.
func (s VersionSpec) MinBound() (Version, bool) {
	var best Version
	found := false
	for _, c := range s.constraints {
		var candidate Version
		switch c.op {
		case ">=", "==", ">":
			candidate = c.version
		case "=*":
			candidate = c.wildcard
		default:
			continue
		}
		if !found || best.Less(candidate) {
			best = candidate
			found = true
		}
	}
	return best, found
}

// ParseDependency parses a requirements line such as "numpy >=1.13.0" or
// "python 3.7.*" into a Dependency. A bare name carries the empty spec;
// multiple constraints may be separated by commas, spaces, or both
// ("numpy >=1.13.0, <2.0").
func ParseDependency(line string) (Dependency, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Dependency{}, fmt.Errorf("empty dependency line")
	}
	dep := Dependency{Name: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		clauses := make([]string, 0, len(fields)-1)
		for _, field := range fields[1:] {
			for _, clause := range strings.Split(field, ",") {
				if clause != "" {
					clauses = append(clauses, clause)
				}
			}
		}
		spec, err := ParseSpec(strings.Join(clauses, ","))
		if err != nil {
			return Dependency{}, fmt.Errorf("dependency %q: %w", dep.Name, err)
		}
		dep.Spec = spec
	}
	return dep, nil
}
