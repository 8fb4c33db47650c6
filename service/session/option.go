package session

import (
	"io"
	"time"
)

type Option func(*Session)

// WithSize sets the terminal geometry.
func WithSize(cols, rows int) Option {
	return func(s *Session) {
		s.cols = cols
		s.rows = rows
	}
}

// WithTimeout sets the default deadline for expectations.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		s.timeout = timeout
	}
}

// WithPrompt sets the pattern WaitPrompt blocks on.
func WithPrompt(expr string) Option {
	return func(s *Session) {
		s.promptExpr = expr
	}
}

// WithBufferLimit caps the retained output buffer.
func WithBufferLimit(limit int) Option {
	return func(s *Session) {
		s.bufferLimit = limit
	}
}

// WithEnv replaces the child environment.
func WithEnv(env []string) Option {
	return func(s *Session) {
		s.env = env
	}
}

// WithDir sets the child working directory.
func WithDir(dir string) Option {
	return func(s *Session) {
		s.dir = dir
	}
}

// WithOutput tees every byte read from the child to w.
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.output = appendWriter(s.output, w)
	}
}

// WithInputTap tees every byte written to the child to w.
func WithInputTap(w io.Writer) Option {
	return func(s *Session) {
		s.inputTap = appendWriter(s.inputTap, w)
	}
}

// WithControlKeys adds or overrides named control key aliases.
func WithControlKeys(keys map[string]byte) Option {
	return func(s *Session) {
		for name, b := range keys {
			s.controls[name] = b
		}
	}
}

func appendWriter(existing io.Writer, w io.Writer) io.Writer {
	if w == nil {
		return existing
	}
	if existing == nil {
		return w
	}
	return io.MultiWriter(existing, w)
}
