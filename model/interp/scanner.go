package interp

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes (start at 1 to avoid clash with parsly.EOF)
const (
	refCode = iota + 1
	dollarCode
	literalCode
)

// Token definitions
var (
	refToken     = parsly.NewToken(refCode, "Reference", newRefMatcher())
	dollarToken  = parsly.NewToken(dollarCode, "$", matcher.NewByte('$'))
	literalToken = parsly.NewToken(literalCode, "Literal", newLiteralMatcher())
)

// segment is one slice of a payload: either literal text or a `${NAME}`
// reference (name non-empty).
type segment struct {
	literal string
	name    string
}

// split tokenizes text into literal runs and `${NAME}` references. Malformed
// references (missing brace, invalid name) stay literal.
func split(text string) []segment {
	cursor := parsly.NewCursor("", []byte(text), 0)
	var segments []segment
	for {
		matched := cursor.MatchAny(refToken, dollarToken, literalToken)
		switch matched.Code {
		case refCode:
			ref := matched.Text(cursor)
			segments = append(segments, segment{name: ref[2 : len(ref)-1]})
		case dollarCode:
			segments = append(segments, segment{literal: "$"})
		case literalCode:
			segments = append(segments, segment{literal: matched.Text(cursor)})
		default:
			return segments
		}
	}
}

func newRefMatcher() parsly.Matcher {
	return &refMatcher{}
}

func newLiteralMatcher() parsly.Matcher {
	return &literalMatcher{}
}

// refMatcher matches a complete `${NAME}` reference where NAME starts with a
// letter or underscore followed by letters, digits or underscores.
type refMatcher struct{}

func (m *refMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos+2 >= size || input[pos] != '$' || input[pos+1] != '{' {
		return 0
	}
	i := pos + 2
	if !isLetter(input[i]) && input[i] != '_' {
		return 0
	}
	i++
	for i < size && (isLetter(input[i]) || isDigit(input[i]) || input[i] == '_') {
		i++
	}
	if i >= size || input[i] != '}' {
		return 0
	}
	return i + 1 - pos
}

// literalMatcher matches a run of bytes up to the next '$'.
type literalMatcher struct{}

func (m *literalMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	matched := 0
	for i := pos; i < size; i++ {
		if input[i] == '$' {
			break
		}
		matched++
	}
	return matched
}

// Helper functions
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
