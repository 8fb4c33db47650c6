package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// State tracks the session lifecycle.
type State string

const (
	StateSpawned   State = "spawned"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Defaults shared with the runner and configuration layers.
const (
	DefaultCols        = 80
	DefaultRows        = 24
	DefaultTimeout     = 5 * time.Second
	DefaultBufferLimit = 1 << 20
	DefaultPrompt      = "➜ "
)

const (
	pollTick  = 50 * time.Millisecond
	readChunk = 4096
	killGrace = 2 * time.Second
)

// Session drives one child process behind a PTY. Methods are not safe for
// concurrent use; drive a session from a single goroutine.
type Session struct {
	program string
	args    []string

	cmd    *exec.Cmd
	master *os.File
	writer *bufio.Writer

	buffer  bytes.Buffer
	readBuf []byte

	cols, rows  int
	timeout     time.Duration
	bufferLimit int
	promptExpr  string
	prompt      *regexp.Regexp
	env         []string
	dir         string
	controls    map[string]byte

	output   io.Writer
	inputTap io.Writer

	mu        sync.Mutex
	state     State
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// New spawns program behind a freshly allocated PTY with the configured
// geometry. The context bounds the child's lifetime.
func New(ctx context.Context, program string, args []string, options ...Option) (*Session, error) {
	s := &Session{
		program:     program,
		args:        args,
		cols:        DefaultCols,
		rows:        DefaultRows,
		timeout:     DefaultTimeout,
		bufferLimit: DefaultBufferLimit,
		promptExpr:  regexp.QuoteMeta(DefaultPrompt),
		controls:    map[string]byte{},
		readBuf:     make([]byte, readChunk),
		state:       StateSpawned,
	}
	for name, b := range defaultControlKeys {
		s.controls[name] = b
	}
	for _, option := range options {
		option(s)
	}

	prompt, err := regexp.Compile(s.promptExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid prompt pattern %q: %w", s.promptExpr, err)
	}
	s.prompt = prompt

	cmd := exec.CommandContext(ctx, program, args...)
	if s.env != nil {
		cmd.Env = s.env
	}
	if s.dir != "" {
		cmd.Dir = s.dir
	}

	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(s.rows),
		Cols: uint16(s.cols),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, program, err)
	}
	s.cmd = cmd
	s.master = master
	s.writer = bufio.NewWriter(&teeWriter{primary: master, session: s})
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Buffer returns the retained, unconsumed child output.
func (s *Session) Buffer() string {
	return s.buffer.String()
}

// Pid returns the child process id, or -1 when unknown.
func (s *Session) Pid() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return -1
	}
	return s.cmd.Process.Pid
}

// ExitCode returns the child's exit code, or -1 before the child is reaped.
func (s *Session) ExitCode() int {
	if s.cmd == nil || s.cmd.ProcessState == nil {
		return -1
	}
	return s.cmd.ProcessState.ExitCode()
}

// Send queues text for the child without a terminator; the bytes reach the
// PTY on the next Flush, SendLine or SendControl.
func (s *Session) Send(text string) error {
	if s.isClosed() {
		return ErrClosed
	}
	s.markRunning()
	if _, err := s.writer.WriteString(text); err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("failed to send %q: %w", text, err)
	}
	return nil
}

// SendLine sends text followed by a line terminator and flushes.
func (s *Session) SendLine(text string) error {
	if err := s.Send(text + "\n"); err != nil {
		return err
	}
	return s.Flush()
}

// SendControl sends the control byte named by key and flushes. Key is a
// single caret-encodable character or an alias such as "esc" or "eof".
func (s *Session) SendControl(key string) error {
	b, ok := s.controlByte(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if s.isClosed() {
		return ErrClosed
	}
	s.markRunning()
	if err := s.writer.WriteByte(b); err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("failed to send control %q: %w", key, err)
	}
	return s.Flush()
}

// Flush forces queued outbound bytes onto the PTY.
func (s *Session) Flush() error {
	if s.isClosed() {
		return ErrClosed
	}
	if err := s.writer.Flush(); err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// TypeLine sends text one rune at a time with a human cadence: each rune is
// followed by the base interval jittered by a gaussian drift measured in
// milliseconds. The terminator is sent and flushed at the end.
func (s *Session) TypeLine(ctx context.Context, text string, interval time.Duration, deviation float64) error {
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Send(string(r)); err != nil {
			return err
		}
		if err := s.Flush(); err != nil {
			return err
		}
		time.Sleep(typeDelay(interval, deviation))
	}
	return s.SendLine("")
}

func typeDelay(base time.Duration, deviation float64) time.Duration {
	drift := rand.NormFloat64() * deviation
	delay := base + time.Duration(drift*float64(time.Millisecond))
	if delay < 0 {
		delay = 0
	}
	return delay
}

// ExpectLiteral blocks until text appears in the child output. On success
// the buffer is consumed through the end of the match.
func (s *Session) ExpectLiteral(ctx context.Context, text string) error {
	needle := []byte(text)
	_, err := s.expect(ctx, fmt.Sprintf("literal %q", text), func(buf []byte) (int, int, bool) {
		if idx := bytes.Index(buf, needle); idx >= 0 {
			return idx, idx + len(needle), true
		}
		return 0, 0, false
	})
	return err
}

// ExpectRegex blocks until pattern matches the child output. On success the
// buffer is consumed through the end of the match.
func (s *Session) ExpectRegex(ctx context.Context, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	_, err = s.expect(ctx, fmt.Sprintf("pattern /%s/", pattern), func(buf []byte) (int, int, bool) {
		if loc := re.FindIndex(buf); loc != nil {
			return loc[0], loc[1], true
		}
		return 0, 0, false
	})
	return err
}

// WaitPrompt blocks until the configured prompt pattern appears.
func (s *Session) WaitPrompt(ctx context.Context) error {
	_, err := s.expect(ctx, fmt.Sprintf("prompt /%s/", s.promptExpr), func(buf []byte) (int, int, bool) {
		if loc := s.prompt.FindIndex(buf); loc != nil {
			return loc[0], loc[1], true
		}
		return 0, 0, false
	})
	return err
}

// ReadLine blocks until the child emits a complete line and returns it with
// the terminator stripped.
func (s *Session) ReadLine(ctx context.Context) (string, error) {
	line, err := s.expect(ctx, "line", func(buf []byte) (int, int, bool) {
		if idx := bytes.IndexByte(buf, '\n'); idx >= 0 {
			return 0, idx + 1, true
		}
		return 0, 0, false
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Clear emits the cursor-home and erase-display sequence to the observer
// writers; the child never sees it.
func (s *Session) Clear() {
	if s.output != nil {
		_, _ = s.output.Write([]byte("\x1b[H\x1b[2J"))
	}
}

// Drain forwards remaining child output to the observers until the stream
// closes, d elapses, or ctx is done. The retained buffer keeps at most the
// buffer limit of trailing bytes.
func (s *Session) Drain(ctx context.Context, d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}
		if err := s.fill(pollTick); err != nil {
			return
		}
		if over := s.buffer.Len() - s.bufferLimit; over > 0 {
			s.buffer.Next(over)
		}
	}
}

// Close tears the session down exactly once: queued input is flushed, the
// master side is closed and the child is reaped, killed after a grace period
// if it ignores the hangup.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		if s.state == StateSpawned || s.state == StateRunning {
			s.state = StateCompleted
		}
		s.mu.Unlock()

		_ = s.writer.Flush()
		if s.master != nil {
			s.closeErr = s.master.Close()
		}
		if s.cmd == nil || s.cmd.Process == nil {
			return
		}
		done := make(chan error, 1)
		go func() { done <- s.cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(killGrace):
			_ = s.cmd.Process.Kill()
			<-done
		}
	})
	return s.closeErr
}

// expect blocks until match succeeds against the retained buffer, reading
// more output as needed. The entire buffer is re-scanned on every pass so a
// match straddling read boundaries is still found. On success the buffer is
// consumed through the end of the match.
func (s *Session) expect(ctx context.Context, what string, match func([]byte) (int, int, bool)) (string, error) {
	if s.isClosed() {
		return "", ErrClosed
	}
	s.markRunning()
	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	for {
		if start, end, ok := match(s.buffer.Bytes()); ok {
			matched := string(s.buffer.Bytes()[start:end])
			s.buffer.Next(end)
			return matched, nil
		}
		if s.buffer.Len() >= s.bufferLimit {
			s.setState(StateFailed)
			return "", fmt.Errorf("%w: %v bytes while waiting for %s", ErrBufferOverflow, s.buffer.Len(), what)
		}
		if err := ctx.Err(); err != nil {
			s.setState(StateFailed)
			return "", fmt.Errorf("waiting for %s: %w", what, err)
		}
		if time.Now().After(deadline) {
			s.setState(StateTimedOut)
			return "", fmt.Errorf("%w: %s", ErrTimeout, what)
		}
		if err := s.fill(pollTick); err != nil {
			s.setState(StateFailed)
			// A canceled context may kill the child mid-read; report the
			// cancellation rather than the incidental stream error.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", fmt.Errorf("waiting for %s: %w", what, ctxErr)
			}
			return "", fmt.Errorf("%w while waiting for %s", err, what)
		}
	}
}

// fill reads whatever the child produced within wait, appending it to the
// retained buffer and forwarding it to the observers. A deadline tick is not
// an error; a closed stream is.
func (s *Session) fill(wait time.Duration) error {
	_ = s.master.SetReadDeadline(time.Now().Add(wait))
	n, err := s.master.Read(s.readBuf)
	if n > 0 {
		chunk := s.readBuf[:n]
		s.buffer.Write(chunk)
		if s.output != nil {
			_, _ = s.output.Write(chunk)
		}
		return nil
	}
	if err == nil || os.IsTimeout(err) {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed) {
		return ErrEOF
	}
	return fmt.Errorf("session: read failed: %w", err)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) markRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSpawned {
		s.state = StateRunning
	}
}

// setState records a terminal state; the first terminal state wins.
func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSpawned || s.state == StateRunning {
		s.state = state
	}
}

// teeWriter forwards writes to the master and mirrors delivered bytes to the
// session input tap.
type teeWriter struct {
	primary io.Writer
	session *Session
}

func (w *teeWriter) Write(p []byte) (int, error) {
	n, err := w.primary.Write(p)
	if n > 0 && w.session.inputTap != nil {
		_, _ = w.session.inputTap.Write(p[:n])
	}
	return n, err
}
