package session

import "errors"

var (
	// ErrSpawn is returned when the child process or its PTY cannot be
	// started.
	ErrSpawn = errors.New("session: failed to spawn")

	// ErrTimeout is returned when an expectation is not met before the
	// deadline. The unconsumed buffer is retained for diagnostics.
	ErrTimeout = errors.New("session: timed out waiting for match")

	// ErrBufferOverflow is returned when the retained buffer exceeds its cap
	// without a match.
	ErrBufferOverflow = errors.New("session: buffer limit exceeded without match")

	// ErrEOF is returned when the child exits or the master closes while an
	// operation still waits for output.
	ErrEOF = errors.New("session: child output closed")

	// ErrClosed is returned by operations invoked after Close.
	ErrClosed = errors.New("session: closed")

	// ErrUnknownKey is returned by SendControl for a key name outside the
	// caret range and the alias table.
	ErrUnknownKey = errors.New("session: unknown control key")
)
