package entities

import (
	"testing"
)

func TestParseEnvString_Valid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []EnvVar
	}{
		{
			name: "simple pairs",
			raw:  "PYTHON_VERSION=3.7 NUMPY_VERSION=1.16",
			want: []EnvVar{
				{"PYTHON_VERSION", "3.7"},
				{"NUMPY_VERSION", "1.16"},
			},
		},
		{
			name: "single quoted value with spaces",
			raw:  "SETUP_CMD='test --coverage --remote-data'",
			want: []EnvVar{{"SETUP_CMD", "test --coverage --remote-data"}},
		},
		{
			name: "double quoted value",
			raw:  `MAIN_CMD="python setup.py" DEBUG=True`,
			want: []EnvVar{
				{"MAIN_CMD", "python setup.py"},
				{"DEBUG", "True"},
			},
		},
		{
			name: "empty value",
			raw:  "PIP_DEPENDENCIES=''",
			want: []EnvVar{{"PIP_DEPENDENCIES", ""}},
		},
		{
			name: "extra whitespace",
			raw:  "  A=1\t B=2  ",
			want: []EnvVar{{"A", "1"}, {"B", "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseEnvString(tt.raw)
			if err != nil {
				t.Fatalf("ParseEnvString(%q) error = %v", tt.raw, err)
			}
			got := set.Vars()
			if len(got) != len(tt.want) {
				t.Fatalf("got %d vars, want %d (%v)", len(got), len(tt.want), got)
			}
			for i, want := range tt.want {
				if got[i] != want {
					t.Errorf("var[%d] = %+v, want %+v", i, got[i], want)
				}
			}
		})
	}
}

func TestParseEnvString_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unterminated single quote", "SETUP_CMD='test"},
		{"unterminated double quote", `MAIN_CMD="python`},
		{"token without equals", "PYTHON_VERSION=3.7 standalone"},
		{"leading equals", "=value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEnvString(tt.raw); err == nil {
				t.Errorf("ParseEnvString(%q) should return error", tt.raw)
			}
		})
	}
}

func TestEnvSet_MergePrecedence(t *testing.T) {
	global, err := ParseEnvString("PYTHON_VERSION=3.7 MAIN_CMD='python setup.py' SETUP_CMD=test")
	if err != nil {
		t.Fatalf("ParseEnvString() error = %v", err)
	}
	override, err := ParseEnvString("PYTHON_VERSION=3.6 NUMPY_VERSION=1.13")
	if err != nil {
		t.Fatalf("ParseEnvString() error = %v", err)
	}

	merged := global.Merge(override)

	if got := merged.Value("PYTHON_VERSION"); got != "3.6" {
		t.Errorf("override should win: PYTHON_VERSION = %q, want 3.6", got)
	}
	if got := merged.Value("SETUP_CMD"); got != "test" {
		t.Errorf("global survives: SETUP_CMD = %q, want test", got)
	}
	if got := merged.Value("NUMPY_VERSION"); got != "1.13" {
		t.Errorf("new key appended: NUMPY_VERSION = %q, want 1.13", got)
	}

	// Overridden keys keep their original position.
	vars := merged.Vars()
	if vars[0].Key != "PYTHON_VERSION" {
		t.Errorf("first var = %s, want PYTHON_VERSION", vars[0].Key)
	}
	if vars[len(vars)-1].Key != "NUMPY_VERSION" {
		t.Errorf("last var = %s, want NUMPY_VERSION", vars[len(vars)-1].Key)
	}

	// Merge must not mutate the receiver.
	if got := global.Value("PYTHON_VERSION"); got != "3.7" {
		t.Errorf("Merge mutated the receiver: PYTHON_VERSION = %q", got)
	}
}

func TestEnvSet_ContainsAll(t *testing.T) {
	env, _ := ParseEnvString("A=1 B=2 C=3")
	sub, _ := ParseEnvString("A=1 C=3")
	other, _ := ParseEnvString("A=2")

	if !env.ContainsAll(sub) {
		t.Error("env should contain the subset")
	}
	if env.ContainsAll(other) {
		t.Error("value mismatch should not match")
	}
	if !env.ContainsAll(EnvSet{}) {
		t.Error("every set contains the empty selector")
	}
}

func TestEnvSet_String(t *testing.T) {
	env, _ := ParseEnvString("A=1 SETUP_CMD='test --remote-data'")
	got := env.String()
	want := "A=1 SETUP_CMD='test --remote-data'"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
