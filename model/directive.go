package model

import (
	"fmt"
	"strconv"
)

// Kind identifies one directive variant. The set is closed: the executor
// dispatches on it with a single switch.
type Kind int

const (
	// KindPragma names the program the script drives; always directive 0.
	KindPragma Kind = iota
	// KindSendLine sends text followed by a line terminator.
	KindSendLine
	// KindSend sends text without a terminator or flush guarantee.
	KindSend
	// KindSendControl sends the control-character encoding of a named key.
	KindSendControl
	// KindExpect blocks until a literal appears in accumulated output.
	KindExpect
	// KindRegex blocks until a pattern matches accumulated output.
	KindRegex
	// KindReadLine consumes and returns the next full output line.
	KindReadLine
	// KindSleep suspends the script (not the child) for a duration.
	KindSleep
	// KindFlush forces buffered outbound bytes onto the PTY.
	KindFlush
	// KindWait blocks until the configured prompt pattern appears.
	KindWait
	// KindClear emits the clear/cursor-home sequence to observers.
	KindClear
)

var kindNames = map[Kind]string{
	KindPragma:      "pragma",
	KindSendLine:    "sendline",
	KindSend:        "send",
	KindSendControl: "sendcontrol",
	KindExpect:      "expect",
	KindRegex:       "regex",
	KindReadLine:    "readline",
	KindSleep:       "sleep",
	KindFlush:       "flush",
	KindWait:        "wait",
	KindClear:       "clear",
}

// String returns the script keyword for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Directive is one parsed script instruction. Include directives never appear
// here; inclusion is resolved before a sequence reaches the executor.
type Directive struct {
	// Kind selects the variant.
	Kind Kind `json:"kind" yaml:"kind"`

	// Text carries the payload: text to send, literal or pattern to match,
	// the control key name, or the pragma command line.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Millis is the sleep duration for KindSleep.
	Millis int `json:"millis,omitempty" yaml:"millis,omitempty"`

	// File and Line locate the directive in its source script for
	// diagnostics; Line is 1-based.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// String renders the directive the way it would appear in a script.
func (d Directive) String() string {
	switch d.Kind {
	case KindPragma:
		return "#!" + d.Text
	case KindSleep:
		return fmt.Sprintf("#$ sleep %s", strconv.Itoa(d.Millis))
	case KindReadLine, KindFlush, KindWait, KindClear:
		return "#$ " + d.Kind.String()
	default:
		return "#$ " + d.Kind.String() + " " + d.Text
	}
}

// HasPayload reports whether the kind carries a textual payload subject to
// environment interpolation.
func (d Directive) HasPayload() bool {
	switch d.Kind {
	case KindSendLine, KindSend, KindSendControl, KindExpect, KindRegex:
		return true
	}
	return false
}
