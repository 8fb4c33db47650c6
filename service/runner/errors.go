package runner

import "errors"

// ErrDenied is returned when the run policy refuses a directive that writes
// to the child. The run fails rather than skipping the directive, since a
// swallowed keystroke would desynchronise every expect that follows.
var ErrDenied = errors.New("runner: directive denied by policy")
