// Package grammar parses the line-oriented script syntax into directives.
//
// Recognized line forms:
//
//	#!<program>          pragma (first such line of a file)
//	#$ <keyword> [args]  instruction
//	#<anything>          comment, discarded
//	<anything else>      implicit sendline
//
// Unknown instruction keywords are a parse error, so a typo in a script fails
// fast instead of being typed into the child process.
package grammar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/termscript/termscript/model"
	"github.com/viant/parsly"
)

// Sentinel parse errors, wrapped in *Error with file and line context.
var (
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrMissingPayload     = errors.New("missing payload")
	ErrUnexpectedPayload  = errors.New("unexpected payload")
	ErrInvalidDuration    = errors.New("invalid duration")
)

// Error locates a parse failure in its source script.
type Error struct {
	File string
	Line int
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

// Unwrap exposes the underlying sentinel for errors.Is.
func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with file and line context.
func NewError(file string, line int, err error) error {
	return &Error{File: file, Line: line, Err: err}
}

// Statement is one parsed, non-discarded script line: either an executable
// directive or an include reference.
type Statement struct {
	// Directive is set for executable lines, pragma included.
	Directive *model.Directive

	// IncludePath is set for include lines; the path is relative to the
	// including script's directory.
	IncludePath string

	// File and Line locate the statement; Line is 1-based.
	File string
	Line int
}

// Parse tokenizes source into ordered statements. Blank lines and comments
// are discarded. Only the first `#!` line of a file is a pragma; later ones
// are ordinary text. Include cycles and pragma placement are the loader's
// concern, not the grammar's.
func Parse(file, source string) ([]Statement, error) {
	var statements []Statement
	seenPragma := false
	for i, line := range strings.Split(source, "\n") {
		line = strings.TrimSuffix(line, "\r")
		lineNo := i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}
		statement, err := parseLine(file, lineNo, line, &seenPragma)
		if err != nil {
			return nil, err
		}
		if statement == nil {
			continue
		}
		statements = append(statements, *statement)
	}
	return statements, nil
}

func parseLine(file string, lineNo int, line string, seenPragma *bool) (*Statement, error) {
	cursor := parsly.NewCursor("", []byte(line), 0)

	matched := cursor.MatchAny(pragmaToken, markerToken, commentToken)
	switch matched.Code {
	case pragmaCode:
		if *seenPragma {
			// Later pragma markers are ordinary text.
			return sendLine(file, lineNo, line), nil
		}
		*seenPragma = true
		text := strings.TrimSpace(restOf(cursor))
		if text == "" {
			return nil, NewError(file, lineNo, fmt.Errorf("%w: pragma names no program", ErrMissingPayload))
		}
		return &Statement{
			Directive: &model.Directive{Kind: model.KindPragma, Text: text, File: file, Line: lineNo},
			File:      file,
			Line:      lineNo,
		}, nil
	case markerCode:
		return parseInstruction(file, lineNo, cursor)
	case commentCode:
		return nil, nil
	default:
		return sendLine(file, lineNo, line), nil
	}
}

func parseInstruction(file string, lineNo int, cursor *parsly.Cursor) (*Statement, error) {
	// The marker must be followed by whitespace; anything glued to it is not
	// an instruction.
	if cursor.Pos < cursor.InputSize {
		if next := cursor.Input[cursor.Pos]; next != ' ' && next != '\t' {
			return nil, NewError(file, lineNo, fmt.Errorf("%w: %q", ErrUnknownInstruction, "#$"+restOf(cursor)))
		}
	}
	matched := cursor.MatchAfterOptional(whitespaceToken, keywordToken)
	if matched.Code != keywordCode {
		return nil, NewError(file, lineNo, fmt.Errorf("%w: %q", ErrUnknownInstruction, strings.TrimSpace(restOf(cursor))))
	}
	keyword := matched.Text(cursor)

	directive := &model.Directive{File: file, Line: lineNo}
	statement := &Statement{Directive: directive, File: file, Line: lineNo}

	switch keyword {
	case "sendline":
		directive.Kind = model.KindSendLine
		directive.Text = payloadOf(cursor)
	case "send":
		directive.Kind = model.KindSend
		directive.Text = payloadOf(cursor)
	case "sendcontrol":
		directive.Kind = model.KindSendControl
		text := strings.TrimSpace(payloadOf(cursor))
		if text == "" {
			return nil, NewError(file, lineNo, fmt.Errorf("%w: sendcontrol needs a key", ErrMissingPayload))
		}
		directive.Text = text
	case "expect":
		directive.Kind = model.KindExpect
		text := payloadOf(cursor)
		if text == "" {
			return nil, NewError(file, lineNo, fmt.Errorf("%w: expect needs text", ErrMissingPayload))
		}
		directive.Text = text
	case "regex":
		directive.Kind = model.KindRegex
		text := payloadOf(cursor)
		if text == "" {
			return nil, NewError(file, lineNo, fmt.Errorf("%w: regex needs a pattern", ErrMissingPayload))
		}
		directive.Text = text
	case "sleep":
		directive.Kind = model.KindSleep
		millis, err := parseDuration(cursor)
		if err != nil {
			return nil, NewError(file, lineNo, err)
		}
		directive.Millis = millis
	case "readline":
		directive.Kind = model.KindReadLine
		if err := noPayload(cursor, keyword); err != nil {
			return nil, NewError(file, lineNo, err)
		}
	case "flush":
		directive.Kind = model.KindFlush
		if err := noPayload(cursor, keyword); err != nil {
			return nil, NewError(file, lineNo, err)
		}
	case "wait":
		directive.Kind = model.KindWait
		if err := noPayload(cursor, keyword); err != nil {
			return nil, NewError(file, lineNo, err)
		}
	case "clear":
		directive.Kind = model.KindClear
		if err := noPayload(cursor, keyword); err != nil {
			return nil, NewError(file, lineNo, err)
		}
	case "include":
		path := strings.TrimSpace(payloadOf(cursor))
		if path == "" {
			return nil, NewError(file, lineNo, fmt.Errorf("%w: include needs a path", ErrMissingPayload))
		}
		statement.Directive = nil
		statement.IncludePath = path
	default:
		return nil, NewError(file, lineNo, fmt.Errorf("%w: %q", ErrUnknownInstruction, keyword))
	}
	return statement, nil
}

// payloadOf returns the rest of the line with leading whitespace removed.
func payloadOf(cursor *parsly.Cursor) string {
	matched := cursor.MatchAfterOptional(whitespaceToken, payloadToken)
	if matched.Code != payloadCode {
		return ""
	}
	return matched.Text(cursor)
}

// restOf returns the unconsumed remainder of the line verbatim.
func restOf(cursor *parsly.Cursor) string {
	matched := cursor.MatchOne(payloadToken)
	if matched.Code != payloadCode {
		return ""
	}
	return matched.Text(cursor)
}

func parseDuration(cursor *parsly.Cursor) (int, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, numberToken)
	if matched.Code != numberCode {
		return 0, fmt.Errorf("%w: sleep needs milliseconds", ErrInvalidDuration)
	}
	text := matched.Text(cursor)
	if rest := strings.TrimSpace(restOf(cursor)); rest != "" {
		return 0, fmt.Errorf("%w: trailing %q after sleep duration", ErrInvalidDuration, rest)
	}
	millis, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, text)
	}
	return millis, nil
}

func noPayload(cursor *parsly.Cursor, keyword string) error {
	if rest := strings.TrimSpace(restOf(cursor)); rest != "" {
		return fmt.Errorf("%w: %s takes no payload, got %q", ErrUnexpectedPayload, keyword, rest)
	}
	return nil
}

func sendLine(file string, lineNo int, line string) *Statement {
	return &Statement{
		Directive: &model.Directive{Kind: model.KindSendLine, Text: line, File: file, Line: lineNo},
		File:      file,
		Line:      lineNo,
	}
}
