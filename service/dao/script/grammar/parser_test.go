package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/termscript/termscript/model"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		description string
		source      string
		expected    []Statement
		shouldError bool
		errorIs     error
	}{
		{
			description: "pragma with every instruction",
			source: `#!sh
#$ sendline echo hi
#$ send partial
#$ sendcontrol c
#$ expect hi
#$ regex h.
#$ readline
#$ sleep 250
#$ flush
#$ wait
#$ clear
`,
			expected: []Statement{
				{Directive: &model.Directive{Kind: model.KindPragma, Text: "sh", File: "demo.sh", Line: 1}, File: "demo.sh", Line: 1},
				{Directive: &model.Directive{Kind: model.KindSendLine, Text: "echo hi", File: "demo.sh", Line: 2}, File: "demo.sh", Line: 2},
				{Directive: &model.Directive{Kind: model.KindSend, Text: "partial", File: "demo.sh", Line: 3}, File: "demo.sh", Line: 3},
				{Directive: &model.Directive{Kind: model.KindSendControl, Text: "c", File: "demo.sh", Line: 4}, File: "demo.sh", Line: 4},
				{Directive: &model.Directive{Kind: model.KindExpect, Text: "hi", File: "demo.sh", Line: 5}, File: "demo.sh", Line: 5},
				{Directive: &model.Directive{Kind: model.KindRegex, Text: "h.", File: "demo.sh", Line: 6}, File: "demo.sh", Line: 6},
				{Directive: &model.Directive{Kind: model.KindReadLine, File: "demo.sh", Line: 7}, File: "demo.sh", Line: 7},
				{Directive: &model.Directive{Kind: model.KindSleep, Millis: 250, File: "demo.sh", Line: 8}, File: "demo.sh", Line: 8},
				{Directive: &model.Directive{Kind: model.KindFlush, File: "demo.sh", Line: 9}, File: "demo.sh", Line: 9},
				{Directive: &model.Directive{Kind: model.KindWait, File: "demo.sh", Line: 10}, File: "demo.sh", Line: 10},
				{Directive: &model.Directive{Kind: model.KindClear, File: "demo.sh", Line: 11}, File: "demo.sh", Line: 11},
			},
		},
		{
			description: "bare line is an implicit sendline",
			source:      "echo plain\n",
			expected: []Statement{
				{Directive: &model.Directive{Kind: model.KindSendLine, Text: "echo plain", File: "demo.sh", Line: 1}, File: "demo.sh", Line: 1},
			},
		},
		{
			description: "comments and blank lines are discarded",
			source:      "# a comment\n\n   \n#$ readline\n",
			expected: []Statement{
				{Directive: &model.Directive{Kind: model.KindReadLine, File: "demo.sh", Line: 4}, File: "demo.sh", Line: 4},
			},
		},
		{
			description: "include reference",
			source:      "#$ include ../shared/setup.sh\n",
			expected: []Statement{
				{IncludePath: "../shared/setup.sh", File: "demo.sh", Line: 1},
			},
		},
		{
			description: "second pragma marker is ordinary text",
			source:      "#!sh\n#!not-a-pragma\n",
			expected: []Statement{
				{Directive: &model.Directive{Kind: model.KindPragma, Text: "sh", File: "demo.sh", Line: 1}, File: "demo.sh", Line: 1},
				{Directive: &model.Directive{Kind: model.KindSendLine, Text: "#!not-a-pragma", File: "demo.sh", Line: 2}, File: "demo.sh", Line: 2},
			},
		},
		{
			description: "crlf line endings",
			source:      "#$ expect done\r\n",
			expected: []Statement{
				{Directive: &model.Directive{Kind: model.KindExpect, Text: "done", File: "demo.sh", Line: 1}, File: "demo.sh", Line: 1},
			},
		},
		{
			description: "payload keeps interior spacing",
			source:      "#$ sendline echo 'a  b'\n",
			expected: []Statement{
				{Directive: &model.Directive{Kind: model.KindSendLine, Text: "echo 'a  b'", File: "demo.sh", Line: 1}, File: "demo.sh", Line: 1},
			},
		},
		{
			description: "unknown keyword",
			source:      "#$ frobnicate now\n",
			shouldError: true,
			errorIs:     ErrUnknownInstruction,
		},
		{
			description: "marker glued to keyword",
			source:      "#$sendline hi\n",
			shouldError: true,
			errorIs:     ErrUnknownInstruction,
		},
		{
			description: "sleep without duration",
			source:      "#$ sleep soon\n",
			shouldError: true,
			errorIs:     ErrInvalidDuration,
		},
		{
			description: "sleep with trailing junk",
			source:      "#$ sleep 100 200\n",
			shouldError: true,
			errorIs:     ErrInvalidDuration,
		},
		{
			description: "expect without text",
			source:      "#$ expect\n",
			shouldError: true,
			errorIs:     ErrMissingPayload,
		},
		{
			description: "readline with payload",
			source:      "#$ readline now\n",
			shouldError: true,
			errorIs:     ErrUnexpectedPayload,
		},
		{
			description: "pragma without program",
			source:      "#!\n",
			shouldError: true,
			errorIs:     ErrMissingPayload,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			statements, err := Parse("demo.sh", tc.source)
			if tc.shouldError {
				assert.Error(t, err)
				if tc.errorIs != nil {
					assert.ErrorIs(t, err, tc.errorIs)
				}
				return
			}
			assert.NoError(t, err)
			assert.EqualValues(t, tc.expected, statements)
		})
	}
}

func TestParse_ErrorLocation(t *testing.T) {
	_, err := Parse("suite/login.sh", "#!sh\n#$ expect ok\n#$ bogus\n")
	assert.Error(t, err)
	var parseErr *Error
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "suite/login.sh", parseErr.File)
	assert.Equal(t, 3, parseErr.Line)
	assert.Contains(t, err.Error(), "suite/login.sh:3")
}
