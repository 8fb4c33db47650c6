package runner

import (
	"encoding/json"
	"fmt"

	"github.com/termscript/termscript/model"
)

// Listener is invoked once a directive has been dispatched (regardless of
// whether it succeeded). Implementations can log, collect metrics or render
// progress; payload carries the interpolated directive payload.
//
// For convenience the listener is defined as a function type rather than an
// interface; users can therefore pass a plain function literal when
// customising the runner.
type Listener func(directive *model.Directive, payload string, err error)

// StdoutListener serialises every dispatched directive to JSON and prints it
// to standard output, together with the failure when one occurred. Errors
// from json.Marshal are ignored on purpose; they indicate non-serialisable
// values the caller could not have inspected either way.
func StdoutListener(directive *model.Directive, payload string, err error) {
	if directive == nil {
		return
	}
	data, _ := json.Marshal(directive)
	fmt.Println(string(data))
	if err != nil {
		fmt.Println(err)
	}
}
