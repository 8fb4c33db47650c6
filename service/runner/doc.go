// Package runner executes expanded scripts against a live PTY session. It
// dispatches directives strictly sequentially, mirrors observed output into
// an optional recording and reports the outcome of each run as a Result
// rather than a Go error, so a failed script never aborts its siblings.
package runner
