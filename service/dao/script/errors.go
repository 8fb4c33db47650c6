package script

import "errors"

var (
	// ErrPragmaFirst is returned when a pragma directive appears anywhere but
	// the very first directive of the fully expanded script.
	ErrPragmaFirst = errors.New("script: pragma must be the first directive")

	// ErrCyclicInclude is returned when include expansion revisits a script
	// that is already being expanded.
	ErrCyclicInclude = errors.New("script: cyclic include")
)
