package runner

import (
	"io"
	"time"

	"github.com/termscript/termscript/service/session"
)

const (
	// DefaultShell is spawned when a script has no pragma, and hosts the
	// typed commands in recording mode.
	DefaultShell = "sh -noprofile -norc"
	// DefaultPace is the pause between consecutive directives.
	DefaultPace = 25 * time.Millisecond
	// DefaultTypingInterval is the base per-rune delay in recording mode.
	DefaultTypingInterval = 80 * time.Millisecond
	// DefaultTypingDeviation is the gaussian drift, in milliseconds, applied
	// to the typing interval.
	DefaultTypingDeviation = 15.0
	// DefaultTrimLines is the number of trailing recording events dropped at
	// finalisation, hiding the shutdown noise of the wrapper shell.
	DefaultTrimLines = 1
)

// Options carries the run configuration. Service level options act as
// defaults; per run options override them.
type Options struct {
	shell        string
	prompt       string
	timeout      time.Duration
	pace         time.Duration
	cols         int
	rows         int
	typing       time.Duration
	deviation    float64
	typePragma   bool
	trimLines    int
	captureInput bool
	overwrite    bool
	noExit       bool
	echo         io.Writer
	env          []string
	listener     Listener
}

// Option mutates run Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		shell:     DefaultShell,
		prompt:    session.DefaultPrompt,
		timeout:   session.DefaultTimeout,
		pace:      DefaultPace,
		cols:      session.DefaultCols,
		rows:      session.DefaultRows,
		typing:    DefaultTypingInterval,
		deviation: DefaultTypingDeviation,
		trimLines: DefaultTrimLines,
	}
}

// WithShell sets the fallback command line spawned when a script has no
// pragma; in recording mode it is the wrapper shell hosting the session.
func WithShell(shell string) Option {
	return func(o *Options) {
		o.shell = shell
	}
}

// WithPrompt sets the literal prompt exported as PS1 and matched by wait.
func WithPrompt(prompt string) Option {
	return func(o *Options) {
		o.prompt = prompt
	}
}

// WithTimeout sets the per directive match window.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.timeout = timeout
	}
}

// WithPace sets the pause inserted after every dispatched directive.
func WithPace(pace time.Duration) Option {
	return func(o *Options) {
		o.pace = pace
	}
}

// WithSize sets the PTY geometry, also stamped into recording headers.
func WithSize(cols, rows int) Option {
	return func(o *Options) {
		o.cols = cols
		o.rows = rows
	}
}

// WithTyping sets the typing cadence used in recording mode: base interval
// per rune plus a gaussian drift in milliseconds.
func WithTyping(interval time.Duration, deviation float64) Option {
	return func(o *Options) {
		o.typing = interval
		o.deviation = deviation
	}
}

// WithTypePragma types the pragma rune by rune instead of sending it whole.
func WithTypePragma() Option {
	return func(o *Options) {
		o.typePragma = true
	}
}

// WithTrimLines sets how many trailing events are dropped from a recording;
// zero keeps the shutdown noise.
func WithTrimLines(n int) Option {
	return func(o *Options) {
		o.trimLines = n
	}
}

// WithCaptureInput records keystrokes as input events alongside output.
func WithCaptureInput() Option {
	return func(o *Options) {
		o.captureInput = true
	}
}

// WithOverwrite permits replacing an existing recording destination.
func WithOverwrite() Option {
	return func(o *Options) {
		o.overwrite = true
	}
}

// WithoutExit skips the terminating EOT normally sent after the last
// directive; teardown then ends the child by closing its terminal.
func WithoutExit() Option {
	return func(o *Options) {
		o.noExit = true
	}
}

// WithEcho mirrors raw child output to w, e.g. os.Stdout.
func WithEcho(w io.Writer) Option {
	return func(o *Options) {
		o.echo = w
	}
}

// WithEnv appends entries to the child environment; later duplicates win.
func WithEnv(env ...string) Option {
	return func(o *Options) {
		o.env = append(o.env, env...)
	}
}

// WithListener sets the callback invoked after every dispatched directive.
func WithListener(l Listener) Option {
	return func(o *Options) {
		o.listener = l
	}
}
