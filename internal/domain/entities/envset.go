package entities

import (
	"fmt"
	"strings"
)

// EnvVar is a single KEY=VALUE pair.
type EnvVar struct {
	Key   string
	Value string
}

// EnvSet is an ordered collection of environment variables. Order matters
// because job names and snapshots are rendered from it deterministically.
type EnvSet struct {
	vars []EnvVar
}

// NewEnvSet creates an EnvSet from the given pairs, keeping their order.
func NewEnvSet(vars ...EnvVar) EnvSet {
	s := EnvSet{}
	for _, v := range vars {
		s.Set(v.Key, v.Value)
	}
	return s
}

// Get returns the value for key and whether it is present.
func (s EnvSet) Get(key string) (string, bool) {
	for _, v := range s.vars {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Value returns the value for key, or the empty string when unset.
func (s EnvSet) Value(key string) string {
	v, _ := s.Get(key)
	return v
}

// Has reports whether key is present.
func (s EnvSet) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set assigns key to value, preserving the position of an existing key.
func (s *EnvSet) Set(key, value string) {
	for i, v := range s.vars {
		if v.Key == key {
			s.vars[i].Value = value
			return
		}
	}
	s.vars = append(s.vars, EnvVar{Key: key, Value: value})
}

// Len returns the number of variables in the set.
func (s EnvSet) Len() int {
	return len(s.vars)
}

// Vars returns a copy of the variables in declaration order.
func (s EnvSet) Vars() []EnvVar {
	out := make([]EnvVar, len(s.vars))
	copy(out, s.vars)
	return out
}

// Clone returns an independent copy of the set.
func (s EnvSet) Clone() EnvSet {
	return EnvSet{vars: s.Vars()}
}

// Merge returns a new set with other's variables applied on top of s.
// Keys already in s keep their position; new keys append in other's order.
func (s EnvSet) Merge(other EnvSet) EnvSet {
	merged := s.Clone()
	for _, v := range other.vars {
		merged.Set(v.Key, v.Value)
	}
	return merged
}

// ContainsAll reports whether every pair in sel is present in s with an
// identical value. Used for allow_failures selector matching.
func (s EnvSet) ContainsAll(sel EnvSet) bool {
	for _, v := range sel.vars {
		got, ok := s.Get(v.Key)
		if !ok || got != v.Value {
			return false
		}
	}
	return true
}

// Equal reports whether two sets hold the same pairs in the same order.
func (s EnvSet) Equal(other EnvSet) bool {
	if len(s.vars) != len(other.vars) {
		return false
	}
	for i, v := range s.vars {
		if other.vars[i] != v {
			return false
		}
	}
	return true
}

// String renders the set in travis env-string form, quoting values that
// contain whitespace.
func (s EnvSet) String() string {
	parts := make([]string, 0, len(s.vars))
	for _, v := range s.vars {
		val := v.Value
		if strings.ContainsAny(val, " \t") {
			val = "'" + val + "'"
		}
		parts = append(parts, v.Key+"="+val)
	}
	return strings.Join(parts, " ")
}

// ParseEnvString tokenizes a travis-style env declaration such as
//
//	PYTHON_VERSION=3.7 SETUP_CMD='test --coverage --remote-data'
//
// into an ordered EnvSet. Single and double quotes group whitespace into a
// single value; quotes must be terminated and every token must contain '='.
func ParseEnvString(raw string) (EnvSet, error) {
	set := EnvSet{}
	tokens, err := splitEnvTokens(raw)
	if err != nil {
		return set, err
	}
	for _, tok := range tokens {
		idx := strings.Index(tok, "=")
		if idx <= 0 {
			return EnvSet{}, fmt.Errorf("invalid env token %q: expected KEY=VALUE", tok)
		}
		set.Set(tok[:idx], tok[idx+1:])
	}
	return set, nil
}

// splitEnvTokens splits raw on whitespace outside quotes and strips the
// quotes from the resulting tokens.
func splitEnvTokens(raw string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		started bool
	)

	flush := func() {
		if started {
			tokens = append(tokens, current.String())
			current.Reset()
			started = false
		}
	}

	for _, r := range raw {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			started = true
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %q quote in env string %q", quote, raw)
	}
	flush()

	return tokens, nil
}
