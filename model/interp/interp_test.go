package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_Expand(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "no references",
			values:   nil,
			input:    "just a plain string",
			expected: "just a plain string",
		},
		{
			name:     "single reference",
			values:   map[string]string{"NAME": "foo"},
			input:    "value is ${NAME}",
			expected: "value is foo",
		},
		{
			name:     "repeated references",
			values:   map[string]string{"A": "1", "B": "2"},
			input:    "${A}-${B}-${A}",
			expected: "1-2-1",
		},
		{
			name:    "missing variable is an error",
			values:  nil,
			input:   "oops ${MISSING} end",
			wantErr: true,
		},
		{
			name:     "missing closing brace stays literal",
			values:   map[string]string{"X": "x"},
			input:    "start ${X and more",
			expected: "start ${X and more",
		},
		{
			name:     "empty name stays literal",
			values:   nil,
			input:    "oops ${} done",
			expected: "oops ${} done",
		},
		{
			name:     "name must not start with a digit",
			values:   map[string]string{"1X": "one"},
			input:    "${1X}",
			expected: "${1X}",
		},
		{
			name:     "lone dollar stays literal",
			values:   nil,
			input:    "cost $5 and ${",
			expected: "cost $5 and ${",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snapshot := New(tc.values)
			got, err := snapshot.Expand(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnresolved)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestSnapshot_Validate(t *testing.T) {
	snapshot := New(map[string]string{"NAME": "foo"})
	assert.NoError(t, snapshot.Validate("hello ${NAME}"))

	err := snapshot.Validate("hello ${MISSING}")
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.Contains(t, err.Error(), "${MISSING}")
}

func TestSnapshot_LateEntriesHonored(t *testing.T) {
	// Values added after the snapshot was taken (parse time) must be used by
	// Expand (execution time).
	snapshot := New(map[string]string{"NAME": "old"})
	snapshot.Set("NAME", "new")
	got, err := snapshot.Expand("${NAME}")
	assert.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestNewFromEnviron(t *testing.T) {
	snapshot := NewFromEnviron([]string{"A=1", "B=x=y", "MALFORMED", "=empty"})
	value, ok := snapshot.Lookup("A")
	assert.True(t, ok)
	assert.Equal(t, "1", value)

	// Values may themselves contain '='.
	value, ok = snapshot.Lookup("B")
	assert.True(t, ok)
	assert.Equal(t, "x=y", value)

	_, ok = snapshot.Lookup("MALFORMED")
	assert.False(t, ok)
}

func TestReferences(t *testing.T) {
	names := References("${A} ${B} ${A} $X ${} ${C_1}")
	assert.Equal(t, []string{"A", "B", "C_1"}, names)
}
