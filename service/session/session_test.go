package session

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_ExpectLiteral(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "sh", []string{"-c", "echo hello"})
	assert.NoError(t, err)
	defer s.Close()

	assert.Equal(t, StateSpawned, s.State())
	err = s.ExpectLiteral(ctx, "hello")
	assert.NoError(t, err)
	assert.Equal(t, StateRunning, s.State())
}

func TestSession_ExpectStraddlesReads(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "sh", []string{"-c", "printf abc; sleep 0.2; printf def"})
	assert.NoError(t, err)
	defer s.Close()

	// The match spans two separately flushed chunks; the whole retained
	// buffer is re-scanned on every pass.
	err = s.ExpectLiteral(ctx, "cdef")
	assert.NoError(t, err)
}

func TestSession_ExpectConsumesThroughMatch(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "sh", []string{"-c", "printf 'hello world'; sleep 1"}, WithTimeout(300*time.Millisecond))
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.ExpectLiteral(ctx, "hello"))
	assert.NoError(t, s.ExpectLiteral(ctx, "world"))

	// Consumed output can not match again.
	err = s.ExpectLiteral(ctx, "hello")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, StateTimedOut, s.State())
}

func TestSession_ExpectRegex(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "sh", []string{"-c", "echo 'build 1234 done'"})
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.ExpectRegex(ctx, `build [0-9]+ done`))

	err = s.ExpectRegex(ctx, `(`)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")
}

func TestSession_ExpectTimeout(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "sh", []string{"-c", "sleep 2"}, WithTimeout(200*time.Millisecond))
	assert.NoError(t, err)

	err = s.ExpectLiteral(ctx, "nope")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, StateTimedOut, s.State())

	// Teardown reaps the child even after a failed expectation.
	assert.NoError(t, s.Close())
	assert.NotNil(t, s.cmd.ProcessState)
}

func TestSession_ExpectEOF(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "sh", []string{"-c", "echo done"})
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.ExpectLiteral(ctx, "done"))

	err = s.ExpectLiteral(ctx, "more")
	assert.ErrorIs(t, err, ErrEOF)
	assert.Equal(t, StateFailed, s.State())
}

func TestSession_BufferOverflow(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "sh", []string{"-c", "seq 1 100; sleep 1"}, WithBufferLimit(64))
	assert.NoError(t, err)
	defer s.Close()

	err = s.ExpectLiteral(ctx, "no such output")
	assert.ErrorIs(t, err, ErrBufferOverflow)
	assert.Equal(t, StateFailed, s.State())
}

func TestSession_ReadLine(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "sh", []string{"-c", `printf 'one\ntwo\n'`})
	assert.NoError(t, err)
	defer s.Close()

	line, err := s.ReadLine(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "one", line)

	line, err = s.ReadLine(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "two", line)
}

func TestSession_WaitPrompt(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "sh", []string{"-c", `printf 'booting\n➜ '`})
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.WaitPrompt(ctx))
}

func TestSession_SendAndControl(t *testing.T) {
	ctx := context.Background()
	var tap bytes.Buffer
	s, err := New(ctx, "cat", nil, WithInputTap(&tap))
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.SendLine("hi"))
	assert.NoError(t, s.ExpectLiteral(ctx, "hi"))

	// EOF makes cat exit; further expectations fail with a closed stream.
	assert.NoError(t, s.SendControl("eof"))
	err = s.ExpectLiteral(ctx, "never")
	assert.ErrorIs(t, err, ErrEOF)

	assert.Equal(t, "hi\n\x04", tap.String())
}

func TestSession_SendIsBufferedUntilFlush(t *testing.T) {
	ctx := context.Background()
	var tap bytes.Buffer
	s, err := New(ctx, "cat", nil, WithInputTap(&tap))
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Send("partial"))
	assert.Empty(t, tap.String())

	assert.NoError(t, s.Flush())
	assert.Equal(t, "partial", tap.String())
}

func TestSession_ObserversAndClear(t *testing.T) {
	ctx := context.Background()
	var observed bytes.Buffer
	s, err := New(ctx, "sh", []string{"-c", "echo marked"}, WithOutput(&observed))
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.ExpectLiteral(ctx, "marked"))
	s.Clear()

	out := observed.String()
	assert.Contains(t, out, "marked")
	assert.True(t, strings.HasSuffix(out, "\x1b[H\x1b[2J"))
}

func TestSession_TypeLine(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "cat", nil)
	assert.NoError(t, err)
	defer s.Close()

	err = s.TypeLine(ctx, "ab", time.Millisecond, 0.5)
	assert.NoError(t, err)
	assert.NoError(t, s.ExpectLiteral(ctx, "ab"))
}

func TestSession_Drain(t *testing.T) {
	ctx := context.Background()
	var observed bytes.Buffer
	s, err := New(ctx, "sh", []string{"-c", "sleep 0.1; echo tail"}, WithOutput(&observed))
	assert.NoError(t, err)

	s.Drain(ctx, 500*time.Millisecond)
	assert.Contains(t, observed.String(), "tail")

	assert.NoError(t, s.Close())
	assert.Equal(t, StateCompleted, s.State())

	// Close is idempotent and later operations report the session closed.
	assert.NoError(t, s.Close())
	assert.ErrorIs(t, s.SendLine("x"), ErrClosed)
}

func TestSession_Env(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "sh", []string{"-c", "echo $MARKER"}, WithEnv([]string{"MARKER=value42"}))
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.ExpectLiteral(ctx, "value42"))
}

func TestSession_SpawnError(t *testing.T) {
	_, err := New(context.Background(), "/no/such/binary", nil)
	assert.ErrorIs(t, err, ErrSpawn)
}

func TestControlByte(t *testing.T) {
	s := &Session{controls: map[string]byte{}}
	for name, b := range defaultControlKeys {
		s.controls[name] = b
	}

	testCases := []struct {
		key    string
		expect byte
		ok     bool
	}{
		{"c", 0x03, true},
		{"C", 0x03, true},
		{"d", 0x04, true},
		{"@", 0x00, true},
		{"[", 0x1b, true},
		{"_", 0x1f, true},
		{"?", 0x7f, true},
		{"enter", 0x0d, true},
		{"ESC", 0x1b, true},
		{"eof", 0x04, true},
		{"1", 0, false},
		{"ctrl-q", 0, false},
	}
	for _, tc := range testCases {
		b, ok := s.controlByte(tc.key)
		assert.Equal(t, tc.ok, ok, tc.key)
		if tc.ok {
			assert.Equal(t, tc.expect, b, tc.key)
		}
	}
}

func TestSession_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := New(ctx, "sh", []string{"-c", "sleep 5"})
	assert.NoError(t, err)
	defer s.Close()

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	err = s.ExpectLiteral(ctx, "unreachable")
	assert.ErrorIs(t, err, context.Canceled)
}
