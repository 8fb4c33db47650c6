package model

import (
	"fmt"

	"github.com/termscript/termscript/model/interp"
)

// Script is a fully expanded directive sequence ready for execution: includes
// are resolved, the interpolation table is snapshotted, and every `${NAME}`
// reference has been validated against it.
type Script struct {
	// Name is the script's base file name, used for progress and recording
	// destinations.
	Name string `json:"name" yaml:"name"`

	// URL locates the script source.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// BaseURL is the script's directory; relative pragma programs and
	// include targets resolve against it.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`

	// Directives is the expanded, ordered instruction sequence.
	Directives []Directive `json:"directives" yaml:"directives"`

	// Env is the interpolation table snapshotted when the script was parsed.
	Env *interp.Snapshot `json:"-" yaml:"-"`
}

// Pragma returns the program command line named by the script's pragma
// directive, when present.
func (s *Script) Pragma() (string, bool) {
	if len(s.Directives) == 0 || s.Directives[0].Kind != KindPragma {
		return "", false
	}
	return s.Directives[0].Text, true
}

// Validate performs a best-effort structural validation of the expanded
// sequence. The returned slice is empty when the script is sound.
func (s *Script) Validate() []error {
	var issues []error
	for i, d := range s.Directives {
		if d.Kind == KindPragma && i != 0 {
			issues = append(issues, fmt.Errorf("%s:%d: pragma must be the first directive", d.File, d.Line))
		}
		if d.Kind == KindSleep && d.Millis < 0 {
			issues = append(issues, fmt.Errorf("%s:%d: negative sleep duration", d.File, d.Line))
		}
	}
	return issues
}
