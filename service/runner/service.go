package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/termscript/termscript/cast"
	"github.com/termscript/termscript/internal/clock"
	"github.com/termscript/termscript/internal/idgen"
	"github.com/termscript/termscript/model"
	"github.com/termscript/termscript/policy"
	"github.com/termscript/termscript/progress"
	"github.com/termscript/termscript/service/session"
	"github.com/termscript/termscript/tracing"
)

const (
	// bufferTail caps the unconsumed-output snapshot attached to a failed
	// result.
	bufferTail = 2048

	// drainWindow is how long the runner keeps forwarding child output after
	// the terminating EOT, so the shutdown lands in the recording before it
	// is finalized.
	drainWindow = 200 * time.Millisecond
)

// Service executes expanded scripts. Service level options act as run
// defaults; Run and Record accept per run overrides.
type Service struct {
	defaults Options
}

// New creates a runner with the supplied default options.
func New(options ...Option) *Service {
	defaults := defaultOptions()
	for _, option := range options {
		option(&defaults)
	}
	return &Service{defaults: defaults}
}

// Run executes the script's directives in order against a fresh session and
// reports the outcome. The pragma program is spawned directly; a script
// without a pragma runs against the configured fallback shell. Script level
// failures are carried in the Result, never returned as a Go error.
func (s *Service) Run(ctx context.Context, script *model.Script, options ...Option) *Result {
	opts := s.options(options)
	return s.run(ctx, script, nil, "", opts)
}

// Record executes the script inside the configured wrapper shell while
// recording every observed byte as an asciicast at destURL. The pragma is
// sent (or typed, rune by rune) into the shell instead of being spawned
// directly, so the command itself is part of the recording.
func (s *Service) Record(ctx context.Context, script *model.Script, destURL string, options ...Option) *Result {
	opts := s.options(options)

	header := cast.NewHeader(opts.cols, opts.rows)
	header.Title = script.Name
	header.Command = opts.shell
	header.Env = map[string]string{"SHELL": opts.shell}
	if term := os.Getenv("TERM"); term != "" {
		header.Env["TERM"] = term
	}

	recorderOptions := []cast.Option{cast.WithTrimLines(opts.trimLines)}
	if opts.captureInput {
		recorderOptions = append(recorderOptions, cast.WithCaptureInput())
	}
	return s.run(ctx, script, cast.NewRecorder(header, recorderOptions...), destURL, opts)
}

// options copies the service defaults and applies per run overrides.
func (s *Service) options(options []Option) Options {
	opts := s.defaults
	opts.env = append([]string(nil), s.defaults.env...)
	for _, option := range options {
		option(&opts)
	}
	return opts
}

func (s *Service) run(ctx context.Context, script *model.Script, rec *cast.Recorder, destURL string, opts Options) *Result {
	result := &Result{
		Script:    script.Name,
		URL:       script.URL,
		RunID:     idgen.New(),
		Status:    StatusCompleted,
		FailedAt:  -1,
		StartedAt: clock.Now(),
	}
	recording := rec != nil

	ctx, span := tracing.StartSpan(ctx, "script.run", "INTERNAL")
	span.WithAttributes(map[string]string{"script": script.Name, "runID": result.RunID})
	defer func() {
		result.EndedAt = clock.Now()
		tracing.EndSpan(span, result.Reason)
	}()

	progress.UpdateCtx(ctx, progress.Delta{Scripts: 1, Directives: len(script.Directives)})

	sess, err := s.spawn(ctx, script, rec, recording, opts)
	if err != nil {
		s.fail(ctx, result, -1, "", err, nil)
		return result
	}
	defer sess.Close()

	// The recording wraps a shell and types commands into it; wait for its
	// first prompt so the cast opens settled and the pragma is not typed
	// into a half-initialised terminal.
	if recording {
		if err := sess.WaitPrompt(ctx); err != nil {
			s.fail(ctx, result, -1, "", fmt.Errorf("waiting for initial prompt: %w", err), sess)
			return result
		}
	}

	for i := range script.Directives {
		directive := &script.Directives[i]
		payload, err := s.payload(script, directive)
		if err == nil {
			err = s.dispatch(ctx, sess, script, directive, payload, recording, opts)
		}
		if opts.listener != nil {
			opts.listener(directive, payload, err)
		}
		if err != nil {
			progress.UpdateCtx(ctx, progress.Delta{Executed: 1, Failed: 1})
			s.fail(ctx, result, i, directive.String(), err, sess)
			return result
		}
		progress.UpdateCtx(ctx, progress.Delta{Executed: 1})
		_ = pause(ctx, opts.pace)
	}

	if !opts.noExit {
		// EOT ends the child's stdin the way a user closing the terminal
		// would; a child that ignores it is killed by teardown.
		_ = sess.SendControl("eof")
	}
	if recording {
		sess.Drain(ctx, drainWindow)
		if err := rec.Finalize(ctx, destURL, opts.overwrite); err != nil {
			s.fail(ctx, result, -1, "", err, sess)
			return result
		}
		result.Recording = destURL
	}
	_ = sess.Close()
	progress.UpdateCtx(ctx, progress.Delta{CompletedScripts: 1})
	return result
}

// spawn resolves the program to run and starts it behind a PTY. Recording
// mode always spawns the wrapper shell; otherwise the pragma program is
// spawned directly, falling back to the shell when the script has none.
func (s *Service) spawn(ctx context.Context, script *model.Script, rec *cast.Recorder, recording bool, opts Options) (*session.Session, error) {
	var argv []string
	var err error
	if recording {
		argv, err = model.SplitCommand(opts.shell)
	} else {
		argv, err = script.ProgramArgs(opts.shell)
	}
	if err != nil {
		return nil, err
	}

	env := append(os.Environ(), "PS1="+opts.prompt)
	env = append(env, opts.env...)

	sessionOptions := []session.Option{
		session.WithSize(opts.cols, opts.rows),
		session.WithTimeout(opts.timeout),
		session.WithPrompt(regexp.QuoteMeta(opts.prompt)),
		session.WithEnv(env),
	}
	if rec != nil {
		sessionOptions = append(sessionOptions,
			session.WithOutput(rec.OutputWriter()),
			session.WithInputTap(rec.InputWriter()))
	}
	if opts.echo != nil {
		sessionOptions = append(sessionOptions, session.WithOutput(opts.echo))
	}
	_, span := tracing.StartSpan(ctx, fmt.Sprintf("session.spawn %s", argv[0]), "INTERNAL")
	sess, err := session.New(ctx, argv[0], argv[1:], sessionOptions...)
	tracing.EndSpan(span, err)
	return sess, err
}

// payload interpolates the directive text against the script's environment
// snapshot. Substitution happens here, at dispatch time, so snapshot entries
// added after parsing are honored.
func (s *Service) payload(script *model.Script, directive *model.Directive) (string, error) {
	if !directive.HasPayload() || script.Env == nil {
		return directive.Text, nil
	}
	return script.Env.Expand(directive.Text)
}

func (s *Service) dispatch(ctx context.Context, sess *session.Session, script *model.Script, directive *model.Directive, payload string, recording bool, opts Options) error {
	if err := approve(ctx, directive, recording); err != nil {
		return err
	}
	switch directive.Kind {
	case model.KindPragma:
		if !recording {
			// The pragma named the program already spawned.
			return nil
		}
		command := script.Command(opts.shell)
		if opts.typePragma {
			return sess.TypeLine(ctx, command, opts.typing, opts.deviation)
		}
		return sess.SendLine(command)
	case model.KindSendLine:
		if recording {
			return sess.TypeLine(ctx, payload, opts.typing, opts.deviation)
		}
		return sess.SendLine(payload)
	case model.KindSend:
		return sess.Send(payload)
	case model.KindSendControl:
		return sess.SendControl(payload)
	case model.KindExpect:
		return sess.ExpectLiteral(ctx, payload)
	case model.KindRegex:
		return sess.ExpectRegex(ctx, payload)
	case model.KindReadLine:
		_, err := sess.ReadLine(ctx)
		return err
	case model.KindSleep:
		return pause(ctx, time.Duration(directive.Millis)*time.Millisecond)
	case model.KindFlush:
		return sess.Flush()
	case model.KindWait:
		return sess.WaitPrompt(ctx)
	case model.KindClear:
		sess.Clear()
		return nil
	default:
		return fmt.Errorf("unsupported directive %q", directive.Kind)
	}
}

// approve consults the context policy for directives that write to the
// child. The typed pragma counts as a write only in recording mode; a plain
// run never transmits it.
func approve(ctx context.Context, directive *model.Directive, recording bool) error {
	switch directive.Kind {
	case model.KindSendLine, model.KindSend, model.KindSendControl:
	case model.KindPragma:
		if !recording {
			return nil
		}
	default:
		return nil
	}
	p := policy.FromContext(ctx)
	if p == nil {
		return nil
	}
	keyword := directive.Kind.String()
	if !p.IsAllowed(keyword) {
		return fmt.Errorf("%w: %s", ErrDenied, keyword)
	}
	switch p.Mode {
	case policy.ModeDeny:
		return fmt.Errorf("%w: %s", ErrDenied, keyword)
	case policy.ModeAsk:
		if p.Ask != nil && !p.Ask(ctx, directive, p) {
			return fmt.Errorf("%w: %s", ErrDenied, keyword)
		}
	}
	return nil
}

func (s *Service) fail(ctx context.Context, result *Result, index int, directive string, reason error, sess *session.Session) {
	result.Status = StatusFailed
	if errors.Is(reason, session.ErrTimeout) {
		result.Status = StatusTimedOut
	}
	result.FailedAt = index
	result.Directive = directive
	result.Reason = reason
	if sess != nil {
		result.Buffer = tail(sess.Buffer(), bufferTail)
	}
	progress.UpdateCtx(ctx, progress.Delta{FailedScripts: 1})
}

// pause suspends the script's control flow without reading child output;
// anything the child prints meanwhile stays buffered for the next directive.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
