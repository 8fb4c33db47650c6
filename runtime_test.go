package termscript

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/termscript/termscript/cast"
	"github.com/termscript/termscript/service/runner"
	"github.com/viant/afs"
)

// TestRuntime_RunScripts verifies that a batch keeps input order, runs every
// script in isolation and turns a broken member into a failed result instead
// of aborting its siblings.
func TestRuntime_RunScripts(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	const baseURL = "mem://localhost/runtime/batch"
	for name, body := range map[string]string{
		"first.sh": "#!sh\n#$ sendline echo first\n#$ expect first\n",
		"third.sh": "#!sh\n#$ sendline echo third\n#$ expect third\n",
	} {
		require.NoError(t, fs.Upload(ctx, baseURL+"/"+name, 0644, strings.NewReader(body)))
	}

	svc := New(WithConfig(&Config{
		Scripts: ScriptsConfig{BaseURL: baseURL},
	}))
	rt := svc.Runtime()

	results := rt.RunScripts(ctx, []string{"first", "missing", "third"}, 2)
	require.Len(t, results, 3)

	require.Equal(t, runner.StatusCompleted, results[0].Status, "%v", results[0].Err())
	require.Equal(t, runner.StatusFailed, results[1].Status)
	require.Equal(t, -1, results[1].FailedAt)
	require.Error(t, results[1].Reason)
	require.Equal(t, runner.StatusCompleted, results[2].Status, "%v", results[2].Err())

	// Each run owns a distinct session and identity.
	require.NotEqual(t, results[0].RunID, results[2].RunID)
}

// TestRuntime_RecordScripts verifies the up-front destination check: a single
// conflict fails the whole batch before any script runs, and overwrite
// replaces the stale recording.
func TestRuntime_RecordScripts(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	const baseURL = "mem://localhost/runtime/record/scripts"
	const destDir = "mem://localhost/runtime/record/casts"
	require.NoError(t, fs.Upload(ctx, baseURL+"/demo.sh", 0644,
		strings.NewReader("#!echo recorded\n#$ expect recorded\n")))

	stale := "stale recording\n"
	require.NoError(t, fs.Upload(ctx, destDir+"/demo.cast", 0644, strings.NewReader(stale)))

	svc := New(WithConfig(&Config{
		Scripts:  ScriptsConfig{BaseURL: baseURL},
		Terminal: TerminalConfig{Shell: "sh"},
	}))
	rt := svc.Runtime()

	results, err := rt.RecordScripts(ctx, []string{"demo"}, destDir, 1, false)
	require.ErrorIs(t, err, cast.ErrConflict)
	require.Nil(t, results)

	// Nothing ran, the stale file is untouched.
	data, err := fs.DownloadWithURL(ctx, destDir+"/demo.cast")
	require.NoError(t, err)
	require.Equal(t, stale, string(data))

	results, err = rt.RecordScripts(ctx, []string{"demo"}, destDir, 1, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, runner.StatusCompleted, results[0].Status, "%v", results[0].Err())
	require.Equal(t, destDir+"/demo.cast", results[0].Recording)

	data, err = fs.DownloadWithURL(ctx, destDir+"/demo.cast")
	require.NoError(t, err)
	header, events, err := cast.Decode(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Equal(t, 2, header.Version)
	require.NotEmpty(t, events)
}

// TestRuntime_RecordScript_defaultDestination verifies that an empty
// destination derives from the configured recording directory.
func TestRuntime_RecordScript_defaultDestination(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	const baseURL = "mem://localhost/runtime/defdest/scripts"
	const destDir = "mem://localhost/runtime/defdest/casts"
	require.NoError(t, fs.Upload(ctx, baseURL+"/hello.sh", 0644,
		strings.NewReader("#!echo hello\n#$ expect hello\n")))

	svc := New(WithConfig(&Config{
		Scripts:   ScriptsConfig{BaseURL: baseURL},
		Terminal:  TerminalConfig{Shell: "sh"},
		Recording: RecordingConfig{Dir: destDir},
	}))

	result := svc.RecordScript(ctx, "hello", "", runner.WithOverwrite())
	require.Equal(t, runner.StatusCompleted, result.Status, "%v", result.Err())
	require.Equal(t, destDir+"/hello.cast", result.Recording)

	ok, _ := fs.Exists(ctx, destDir+"/hello.cast")
	require.True(t, ok)
}
