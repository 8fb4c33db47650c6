package session

import "strings"

// Named key aliases accepted by SendControl in addition to single character
// caret encodings.
var defaultControlKeys = map[string]byte{
	"null":      0x00,
	"enter":     0x0d,
	"tab":       0x09,
	"esc":       0x1b,
	"escape":    0x1b,
	"space":     0x20,
	"backspace": 0x7f,
	"delete":    0x7f,
	"eof":       0x04,
	"interrupt": 0x03,
}

// controlByte resolves a control key: alias names first, then the caret
// encoding of a single character ("c" -> 0x03, "[" -> 0x1b, "?" -> 0x7f).
func (s *Session) controlByte(key string) (byte, bool) {
	if b, ok := s.controls[strings.ToLower(key)]; ok {
		return b, true
	}
	if len(key) == 1 {
		return caretByte(key[0])
	}
	return 0, false
}

func caretByte(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return c - 'a' + 1, true
	case c >= 'A' && c <= 'Z':
		return c - 'A' + 1, true
	case c == '@':
		return 0x00, true
	case c >= '[' && c <= '_':
		return c - '@', true
	case c == '?':
		return 0x7f, true
	}
	return 0, false
}
