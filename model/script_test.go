package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCommand(t *testing.T) {
	testCases := []struct {
		name      string
		cmd       string
		expect    []string
		expectErr bool
	}{
		{
			name:   "plain fields",
			cmd:    "sqlite3 test.db",
			expect: []string{"sqlite3", "test.db"},
		},
		{
			name:   "collapsed whitespace",
			cmd:    "ls   -la\t/tmp",
			expect: []string{"ls", "-la", "/tmp"},
		},
		{
			name:   "single quotes",
			cmd:    "sh -c 'echo hi there'",
			expect: []string{"sh", "-c", "echo hi there"},
		},
		{
			name:   "double quotes with escape",
			cmd:    `printf "a \"b\" c"`,
			expect: []string{"printf", `a "b" c`},
		},
		{
			name:   "adjacent quoted and bare",
			cmd:    `echo pre'fix'post`,
			expect: []string{"echo", "prefixpost"},
		},
		{
			name:   "escaped space outside quotes",
			cmd:    `cat one\ file`,
			expect: []string{"cat", "one file"},
		},
		{
			name:   "empty quoted argument",
			cmd:    `env ''`,
			expect: []string{"env", ""},
		},
		{
			name:      "unterminated single quote",
			cmd:       "sh -c 'oops",
			expectErr: true,
		},
		{
			name:      "unterminated double quote",
			cmd:       `sh -c "oops`,
			expectErr: true,
		},
		{
			name:      "trailing escape",
			cmd:       `ls \`,
			expectErr: true,
		},
		{
			name:      "empty command",
			cmd:       "   ",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := SplitCommand(tc.cmd)
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrBadCommand, tc.name)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, actual, tc.name)
		})
	}
}

func TestScript_ProgramArgs(t *testing.T) {
	testCases := []struct {
		name     string
		script   Script
		fallback string
		expect   []string
	}{
		{
			name: "pragma wins over fallback",
			script: Script{
				Directives: []Directive{{Kind: KindPragma, Text: "sqlite3 test.db"}},
			},
			fallback: "sh",
			expect:   []string{"sqlite3", "test.db"},
		},
		{
			name:     "fallback without pragma",
			script:   Script{},
			fallback: "sh -noprofile",
			expect:   []string{"sh", "-noprofile"},
		},
		{
			name: "relative program resolves against script directory",
			script: Script{
				BaseURL:    "file:///opt/suite",
				Directives: []Directive{{Kind: KindPragma, Text: "./repl.sh --fast"}},
			},
			fallback: "sh",
			expect:   []string{"/opt/suite/repl.sh", "--fast"},
		},
		{
			name: "bare program stays a lookup",
			script: Script{
				BaseURL:    "file:///opt/suite",
				Directives: []Directive{{Kind: KindPragma, Text: "python3 -i"}},
			},
			fallback: "sh",
			expect:   []string{"python3", "-i"},
		},
		{
			name: "absolute program untouched",
			script: Script{
				BaseURL:    "file:///opt/suite",
				Directives: []Directive{{Kind: KindPragma, Text: "/bin/sh -i"}},
			},
			fallback: "sh",
			expect:   []string{"/bin/sh", "-i"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := tc.script.ProgramArgs(tc.fallback)
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, actual, tc.name)
		})
	}
}

func TestScript_Command(t *testing.T) {
	testCases := []struct {
		name     string
		script   Script
		fallback string
		expect   string
	}{
		{
			name:     "fallback without pragma",
			script:   Script{},
			fallback: "sh -noprofile -norc",
			expect:   "sh -noprofile -norc",
		},
		{
			name: "relative program resolves, arguments preserved",
			script: Script{
				BaseURL:    "file:///opt/suite",
				Directives: []Directive{{Kind: KindPragma, Text: "./repl.sh --db 'my data.db'"}},
			},
			fallback: "sh",
			expect:   "/opt/suite/repl.sh --db 'my data.db'",
		},
		{
			name: "bare program stays a lookup",
			script: Script{
				BaseURL:    "file:///opt/suite",
				Directives: []Directive{{Kind: KindPragma, Text: "python3 -i"}},
			},
			fallback: "sh",
			expect:   "python3 -i",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.script.Command(tc.fallback), tc.name)
		})
	}
}

func TestDirective_String(t *testing.T) {
	testCases := []struct {
		directive Directive
		expect    string
	}{
		{Directive{Kind: KindPragma, Text: "sh"}, "#!sh"},
		{Directive{Kind: KindSendLine, Text: "ls -la"}, "#$ sendline ls -la"},
		{Directive{Kind: KindSendControl, Text: "c"}, "#$ sendcontrol c"},
		{Directive{Kind: KindSleep, Millis: 138}, "#$ sleep 138"},
		{Directive{Kind: KindReadLine}, "#$ readline"},
		{Directive{Kind: KindWait}, "#$ wait"},
		{Directive{Kind: KindClear}, "#$ clear"},
		{Directive{Kind: KindRegex, Text: "[0-9]+"}, "#$ regex [0-9]+"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, tc.directive.String())
	}
}

func TestScript_Validate(t *testing.T) {
	script := Script{
		Directives: []Directive{
			{Kind: KindSendLine, Text: "ls", File: "a.sh", Line: 1},
			{Kind: KindPragma, Text: "sh", File: "a.sh", Line: 2},
			{Kind: KindSleep, Millis: -5, File: "a.sh", Line: 3},
		},
	}
	issues := script.Validate()
	assert.Len(t, issues, 2)

	sound := Script{
		Directives: []Directive{
			{Kind: KindPragma, Text: "sh"},
			{Kind: KindSendLine, Text: "ls"},
		},
	}
	assert.Empty(t, sound.Validate())
}
