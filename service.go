package termscript

import (
	"context"
	"os"

	"github.com/termscript/termscript/model"
	"github.com/termscript/termscript/model/interp"
	"github.com/termscript/termscript/policy"
	"github.com/termscript/termscript/progress"
	"github.com/termscript/termscript/service/dao"
	"github.com/termscript/termscript/service/dao/script"
	"github.com/termscript/termscript/service/runner"
	"github.com/viant/afs"
	"github.com/viant/scy"
)

// Service is the high-level façade over the script DAO and the runner. The
// zero configuration is usable: New() yields an engine that loads ".sh"
// scripts from anywhere the storage layer reaches and runs them against the
// default shell.
type Service struct {
	config        *Config
	fs            afs.Service
	env           map[string]string
	secrets       *scy.Service
	secretSources []interp.Source
	dao           *script.Service
	runner        *runner.Service
	runnerOptions []runner.Option
	runtime       *Runtime
}

// New creates a service with the supplied options applied over the defaults.
func New(options ...Option) *Service {
	ret := &Service{runtime: &Runtime{}}
	ret.init(options)
	return ret
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	s.runtime.config = s.config
	s.runtime.fs = s.fs
	s.runtime.dao = s.dao
	s.runtime.runner = s.runner
	s.runtime.options = s.runnerOptions
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	s.config.Init()

	if s.fs == nil {
		s.fs = afs.New()
	}

	if s.dao == nil {
		env := os.Environ()
		for k, v := range s.config.Scripts.Env {
			env = append(env, k+"="+v)
		}
		for k, v := range s.env {
			env = append(env, k+"="+v)
		}
		daoOptions := []script.Option{
			script.WithFS(s.fs),
			script.WithExtension(s.config.Scripts.Extension),
			script.WithEnv(env),
		}
		if s.config.Scripts.BaseURL != "" {
			daoOptions = append(daoOptions, script.WithBaseURL(s.config.Scripts.BaseURL))
		}
		sources := append(append([]interp.Source{}, s.config.Secrets...), s.secretSources...)
		if len(sources) > 0 {
			daoOptions = append(daoOptions, script.WithSecrets(sources...))
		}
		if s.secrets != nil {
			daoOptions = append(daoOptions, script.WithSecretService(s.secrets))
		}
		s.dao = script.New(daoOptions...)
	}

	if s.runner == nil {
		s.runner = runner.New(s.config.runnerOptions()...)
	}
}

// Runtime returns the runtime handle.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// ScriptDAO returns the script DAO.
func (s *Service) ScriptDAO() *script.Service {
	return s.dao
}

// NewContext derives a context carrying a fresh progress tracker and, when
// the configuration defines one, the run policy.
func (s *Service) NewContext(ctx context.Context) context.Context {
	ctx, _ = progress.WithNewTracker(ctx, "", "", nil)
	if s.config.Policy != nil {
		ctx = policy.WithPolicy(ctx, policy.FromConfig(s.config.Policy))
	}
	return ctx
}

// LoadScript loads and parses the script at the supplied location.
func (s *Service) LoadScript(ctx context.Context, location string) (*model.Script, error) {
	return s.runtime.LoadScript(ctx, location)
}

// ListScripts loads every script under the configured base URL.
func (s *Service) ListScripts(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Script, error) {
	return s.runtime.ListScripts(ctx, parameters...)
}

// RunScript loads and executes one script.
func (s *Service) RunScript(ctx context.Context, location string, options ...runner.Option) *runner.Result {
	return s.runtime.RunScript(ctx, location, options...)
}

// RecordScript loads and executes one script while capturing an asciicast at
// destURL; an empty destURL derives the destination from the configured
// recording directory and the script name.
func (s *Service) RecordScript(ctx context.Context, location, destURL string, options ...runner.Option) *runner.Result {
	return s.runtime.RecordScript(ctx, location, destURL, options...)
}

// RunScripts executes the scripts at the supplied locations, at most parallel
// at a time, and returns one result per location in input order.
func (s *Service) RunScripts(ctx context.Context, locations []string, parallel int, options ...runner.Option) []*runner.Result {
	return s.runtime.RunScripts(ctx, locations, parallel, options...)
}

// RecordScripts records the scripts at the supplied locations into destDir.
// Destination conflicts fail the whole batch up front, before anything runs.
func (s *Service) RecordScripts(ctx context.Context, locations []string, destDir string, parallel int, overwrite bool, options ...runner.Option) ([]*runner.Result, error) {
	return s.runtime.RecordScripts(ctx, locations, destDir, parallel, overwrite, options...)
}
