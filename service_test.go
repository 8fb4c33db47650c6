package termscript_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/termscript/termscript"
	"github.com/termscript/termscript/model/interp"
	"github.com/termscript/termscript/policy"
	"github.com/termscript/termscript/progress"
	"github.com/termscript/termscript/service/runner"
	"github.com/viant/afs"
)

func uploadScript(t *testing.T, URL, content string) {
	t.Helper()
	err := afs.New().Upload(context.Background(), URL, 0644, strings.NewReader(content))
	assert.NoError(t, err)
}

func TestService(t *testing.T) {
	const baseURL = "mem://localhost/termscript/scripts"
	uploadScript(t, baseURL+"/hello.sh", `#!sh
#$ sendline echo hello
#$ expect hello
`)

	srv := termscript.New(termscript.WithConfig(&termscript.Config{
		Scripts: termscript.ScriptsConfig{BaseURL: baseURL},
	}))

	runtime := srv.Runtime()
	ctx := context.Background()
	script, err := runtime.LoadScript(ctx, "hello")
	assert.Nil(t, err)
	assert.NotNil(t, script)
	assert.Equal(t, "hello", script.Name)
	assert.Equal(t, baseURL+"/hello.sh", script.URL)

	result := runtime.Run(ctx, script)
	assert.Equal(t, runner.StatusCompleted, result.Status, "%v", result.Err())
}

func TestService_defaults(t *testing.T) {
	srv := termscript.New()
	config := srv.Config()

	assert.Equal(t, runner.DefaultShell, config.Terminal.Shell)
	assert.Equal(t, 80, config.Terminal.Cols)
	assert.Equal(t, 24, config.Terminal.Rows)
	assert.Equal(t, 5000, config.Terminal.TimeoutMs)
	assert.Equal(t, ".sh", config.Scripts.Extension)
	assert.NotNil(t, srv.Runtime())
	assert.NotNil(t, srv.ScriptDAO())
}

func TestService_RunScript(t *testing.T) {
	const baseURL = "mem://localhost/termscript/run"
	uploadScript(t, baseURL+"/greet.sh", `#!sh
#$ sendline echo hi ${USER_NAME}
#$ expect hi tester
`)

	srv := termscript.New(
		termscript.WithConfig(&termscript.Config{
			Scripts: termscript.ScriptsConfig{BaseURL: baseURL},
		}),
		termscript.WithEnv(map[string]string{"USER_NAME": "tester"}),
	)
	ctx := context.Background()

	result := srv.RunScript(ctx, "greet")
	assert.Equal(t, runner.StatusCompleted, result.Status, "%v", result.Err())
	assert.Equal(t, -1, result.FailedAt)
}

func TestService_RunScript_loadFailure(t *testing.T) {
	srv := termscript.New(termscript.WithConfig(&termscript.Config{
		Scripts: termscript.ScriptsConfig{BaseURL: "mem://localhost/termscript/void"},
	}))

	result := srv.RunScript(context.Background(), "missing")
	assert.Equal(t, runner.StatusFailed, result.Status)
	assert.Equal(t, -1, result.FailedAt)
	assert.Error(t, result.Reason)
}

func TestService_NewContext(t *testing.T) {
	srv := termscript.New(termscript.WithConfig(&termscript.Config{
		Policy: &policy.Config{Mode: policy.ModeDeny},
	}))

	ctx := srv.NewContext(context.Background())
	p := policy.FromContext(ctx)
	assert.NotNil(t, p)
	assert.Equal(t, policy.ModeDeny, p.Mode)
	_, ok := progress.FromContext(ctx)
	assert.True(t, ok)
}

func TestService_progress(t *testing.T) {
	const baseURL = "mem://localhost/termscript/progress"
	uploadScript(t, baseURL+"/steps.sh", `#!sh
#$ sendline echo one
#$ expect one
#$ sendline echo two
#$ expect two
`)

	srv := termscript.New(termscript.WithConfig(&termscript.Config{
		Scripts: termscript.ScriptsConfig{BaseURL: baseURL},
	}))
	ctx := srv.NewContext(context.Background())

	result := srv.RunScript(ctx, "steps")
	assert.Equal(t, runner.StatusCompleted, result.Status, "%v", result.Err())

	snapshot, ok := progress.GetSnapshot(ctx)
	assert.True(t, ok)
	assert.Equal(t, 1, snapshot.TotalScripts)
	assert.Equal(t, 1, snapshot.CompletedScripts)
	assert.Equal(t, 5, snapshot.TotalDirectives)
	assert.Equal(t, 5, snapshot.ExecutedDirectives)
	assert.Equal(t, 0, snapshot.FailedDirectives)
}

func TestLoadConfig(t *testing.T) {
	const URL = "mem://localhost/termscript/config/engine.yaml"
	err := afs.New().Upload(context.Background(), URL, 0644, strings.NewReader(`
terminal:
  shell: sh
  cols: 120
  timeoutMs: 2500
recording:
  dir: mem://localhost/termscript/config/casts
  trimLines: 0
secrets:
  - name: DB
    url: mem://localhost/secrets/db.json
    key: blowfish://default
    target: basic
`))
	assert.NoError(t, err)

	config, err := termscript.LoadConfig(context.Background(), URL)
	assert.Nil(t, err)

	// Overrides take effect, everything else keeps its default.
	assert.Equal(t, "sh", config.Terminal.Shell)
	assert.Equal(t, 120, config.Terminal.Cols)
	assert.Equal(t, 24, config.Terminal.Rows)
	assert.Equal(t, 2500, config.Terminal.TimeoutMs)
	if assert.NotNil(t, config.Recording.TrimLines) {
		assert.Equal(t, 0, *config.Recording.TrimLines)
	}
	if assert.Len(t, config.Secrets, 1) {
		assert.Equal(t, interp.Source{
			Name:   "DB",
			URL:    "mem://localhost/secrets/db.json",
			Key:    "blowfish://default",
			Target: "basic",
		}, config.Secrets[0])
	}

	srv := termscript.New(termscript.WithConfig(config))
	assert.Equal(t, 2500, srv.Config().Terminal.TimeoutMs)
}

func TestLoadConfig_invalid(t *testing.T) {
	const URL = "mem://localhost/termscript/config/broken.yaml"
	err := afs.New().Upload(context.Background(), URL, 0644, strings.NewReader(`
terminal:
  cols: -1
`))
	assert.NoError(t, err)

	_, err = termscript.LoadConfig(context.Background(), URL)
	assert.Error(t, err)
}

func TestService_runnerOverrides(t *testing.T) {
	const baseURL = "mem://localhost/termscript/overrides"
	uploadScript(t, baseURL+"/slow.sh", `#!sh
#$ expect never-arrives
`)

	srv := termscript.New(
		termscript.WithConfig(&termscript.Config{
			Scripts: termscript.ScriptsConfig{BaseURL: baseURL},
		}),
		termscript.WithRunnerOptions(runner.WithTimeout(200*time.Millisecond)),
	)

	started := time.Now()
	result := srv.RunScript(context.Background(), "slow")
	assert.Equal(t, runner.StatusTimedOut, result.Status)
	assert.Less(t, time.Since(started), 3*time.Second)
}
