package grammar

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes (unique; start at 1 to avoid clash with parsly.EOF).
const (
	pragmaCode = iota + 1
	markerCode
	commentCode
	keywordCode
	numberCode
	payloadCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(0, "Whitespace", matcher.NewWhiteSpace())

	pragmaToken  = parsly.NewToken(pragmaCode, "#!", matcher.NewFragment("#!"))
	markerToken  = parsly.NewToken(markerCode, "#$", matcher.NewFragment("#$"))
	commentToken = parsly.NewToken(commentCode, "#", matcher.NewByte('#'))
	keywordToken = parsly.NewToken(keywordCode, "Keyword", newKeywordMatcher())
	numberToken  = parsly.NewToken(numberCode, "Number", newNumberMatcher())
	payloadToken = parsly.NewToken(payloadCode, "Payload", newPayloadMatcher())
)

// Custom matchers
func newKeywordMatcher() parsly.Matcher {
	return &keywordMatcher{}
}

func newNumberMatcher() parsly.Matcher {
	return &numberMatcher{}
}

func newPayloadMatcher() parsly.Matcher {
	return &payloadMatcher{}
}

// keywordMatcher matches an instruction keyword: a run of lowercase letters.
type keywordMatcher struct{}

func (m *keywordMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	matched := 0
	for i := pos; i < size; i++ {
		if input[i] < 'a' || input[i] > 'z' {
			break
		}
		matched++
	}
	return matched
}

// numberMatcher matches a run of decimal digits.
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	matched := 0
	for i := pos; i < size; i++ {
		if input[i] < '0' || input[i] > '9' {
			break
		}
		matched++
	}
	return matched
}

// payloadMatcher matches the remainder of the line.
type payloadMatcher struct{}

func (m *payloadMatcher) Match(cursor *parsly.Cursor) int {
	return cursor.InputSize - cursor.Pos
}
