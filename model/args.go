package model

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs/url"
)

// ErrBadCommand is returned when a command line cannot be split into argv,
// e.g. an unterminated quote.
var ErrBadCommand = errors.New("model: malformed command line")

// SplitCommand splits a command line into argv the way a shell would: fields
// separated by whitespace, single quotes literal, double quotes honouring
// backslash escapes, backslash escaping the next character outside quotes.
func SplitCommand(cmd string) ([]string, error) {
	var args []string
	var field strings.Builder
	inField := false

	flush := func() {
		if inField {
			args = append(args, field.String())
			field.Reset()
			inField = false
		}
	}

	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		switch c {
		case ' ', '\t':
			flush()
		case '\\':
			if i+1 >= len(cmd) {
				return nil, fmt.Errorf("%w: trailing escape in %q", ErrBadCommand, cmd)
			}
			i++
			field.WriteByte(cmd[i])
			inField = true
		case '\'':
			end := strings.IndexByte(cmd[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated quote in %q", ErrBadCommand, cmd)
			}
			field.WriteString(cmd[i+1 : i+1+end])
			i += end + 1
			inField = true
		case '"':
			i++
			closed := false
			for ; i < len(cmd); i++ {
				if cmd[i] == '\\' && i+1 < len(cmd) && (cmd[i+1] == '"' || cmd[i+1] == '\\') {
					i++
					field.WriteByte(cmd[i])
					continue
				}
				if cmd[i] == '"' {
					closed = true
					break
				}
				field.WriteByte(cmd[i])
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated quote in %q", ErrBadCommand, cmd)
			}
			inField = true
		default:
			field.WriteByte(c)
			inField = true
		}
	}
	flush()

	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrBadCommand)
	}
	return args, nil
}

// ProgramArgs resolves the script's pragma into an argv vector, falling back
// to the supplied command line when the script has no pragma. A relative
// program containing a path separator resolves against the script directory.
func (s *Script) ProgramArgs(fallback string) ([]string, error) {
	cmd, ok := s.Pragma()
	if !ok {
		cmd = fallback
	}
	args, err := SplitCommand(cmd)
	if err != nil {
		return nil, err
	}
	program := args[0]
	if s.BaseURL != "" && strings.Contains(program, "/") && !path.IsAbs(program) {
		args[0] = path.Join(url.Path(s.BaseURL), program)
	}
	return args, nil
}

// Command returns the command line the script runs, as a single string with
// the program resolved the same way ProgramArgs resolves it. Quoting in the
// argument portion is preserved so the line can be typed into a shell.
func (s *Script) Command(fallback string) string {
	cmd, ok := s.Pragma()
	if !ok {
		return fallback
	}
	head, rest := cmd, ""
	if idx := strings.IndexAny(cmd, " \t"); idx >= 0 {
		head, rest = cmd[:idx], cmd[idx:]
	}
	if s.BaseURL != "" && strings.Contains(head, "/") && !path.IsAbs(head) {
		head = path.Join(url.Path(s.BaseURL), head)
	}
	return head + rest
}
