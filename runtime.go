package termscript

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/termscript/termscript/cast"
	"github.com/termscript/termscript/model"
	"github.com/termscript/termscript/service/dao"
	"github.com/termscript/termscript/service/dao/script"
	"github.com/termscript/termscript/service/runner"
	"github.com/viant/afs"
)

// Runtime bundles the script DAO and the runner behind one handle. Script
// level failures surface as failed Results; only problems that prevent a
// batch from starting at all, such as a recording destination conflict, are
// returned as errors.
type Runtime struct {
	config  *Config
	fs      afs.Service
	dao     *script.Service
	runner  *runner.Service
	options []runner.Option
}

// LoadScript loads and parses the script at the supplied location.
func (r *Runtime) LoadScript(ctx context.Context, location string) (*model.Script, error) {
	return r.dao.Load(ctx, location)
}

// ListScripts loads every script under the configured base URL, optionally
// narrowed by parameters such as dao.NewParameter("Shell", "sh").
func (r *Runtime) ListScripts(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Script, error) {
	return r.dao.List(ctx, parameters...)
}

// Run executes an already loaded script.
func (r *Runtime) Run(ctx context.Context, script *model.Script, options ...runner.Option) *runner.Result {
	return r.runner.Run(ctx, script, r.runOptions(options)...)
}

// Record executes an already loaded script while capturing an asciicast at
// destURL.
func (r *Runtime) Record(ctx context.Context, script *model.Script, destURL string, options ...runner.Option) *runner.Result {
	return r.runner.Record(ctx, script, destURL, r.runOptions(options)...)
}

// RunScript loads and executes one script. A script that fails to load
// yields a failed Result rather than an error, so batch callers treat broken
// and failing scripts uniformly.
func (r *Runtime) RunScript(ctx context.Context, location string, options ...runner.Option) *runner.Result {
	return r.runOne(ctx, location, "", false, options)
}

// RecordScript loads and executes one script while capturing an asciicast.
// An empty destURL derives the destination from the configured recording
// directory and the script name.
func (r *Runtime) RecordScript(ctx context.Context, location, destURL string, options ...runner.Option) *runner.Result {
	if destURL == "" {
		destURL = r.destination("", location)
	}
	return r.runOne(ctx, location, destURL, true, options)
}

// RunScripts executes the scripts at the supplied locations, at most parallel
// at a time, each against its own session. Results come back in input order.
func (r *Runtime) RunScripts(ctx context.Context, locations []string, parallel int, options ...runner.Option) []*runner.Result {
	results := make([]*runner.Result, len(locations))
	r.forEach(locations, parallel, func(i int, location string) {
		results[i] = r.runOne(ctx, location, "", false, options)
	})
	return results
}

// RecordScripts records the scripts at the supplied locations into destDir,
// at most parallel at a time. Every destination is checked before anything
// runs; a conflict fails the whole batch so that no recording is half taken.
func (r *Runtime) RecordScripts(ctx context.Context, locations []string, destDir string, parallel int, overwrite bool, options ...runner.Option) ([]*runner.Result, error) {
	if err := r.CheckRecordings(ctx, locations, destDir, overwrite); err != nil {
		return nil, err
	}
	if overwrite {
		options = append(options, runner.WithOverwrite())
	}
	results := make([]*runner.Result, len(locations))
	r.forEach(locations, parallel, func(i int, location string) {
		results[i] = r.runOne(ctx, location, r.destination(destDir, location), true, options)
	})
	return results, nil
}

// CheckRecordings verifies that no destination derived for the supplied
// locations already exists; with overwrite set it never fails.
func (r *Runtime) CheckRecordings(ctx context.Context, locations []string, destDir string, overwrite bool) error {
	if overwrite {
		return nil
	}
	for _, location := range locations {
		destURL := r.destination(destDir, location)
		if ok, _ := r.fs.Exists(ctx, destURL); ok {
			return fmt.Errorf("%w: %s already exists, use overwrite to replace it", cast.ErrConflict, destURL)
		}
	}
	return nil
}

// runOne loads the script and hands it to the runner; load failures become
// failed Results so that sibling runs keep going.
func (r *Runtime) runOne(ctx context.Context, location, destURL string, record bool, options []runner.Option) *runner.Result {
	loaded, err := r.dao.Load(ctx, location)
	if err != nil {
		return runner.NewFailure(location, location, err)
	}
	if record {
		return r.runner.Record(ctx, loaded, destURL, r.runOptions(options)...)
	}
	return r.runner.Run(ctx, loaded, r.runOptions(options)...)
}

// runOptions prefixes the per-call options with the service level ones.
func (r *Runtime) runOptions(options []runner.Option) []runner.Option {
	if len(r.options) == 0 {
		return options
	}
	return append(append([]runner.Option(nil), r.options...), options...)
}

// forEach invokes fn for every location with at most parallel invocations in
// flight; parallel below one degrades to sequential execution.
func (r *Runtime) forEach(locations []string, parallel int, fn func(i int, location string)) {
	if parallel < 1 {
		parallel = 1
	}
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup
	for i, location := range locations {
		wg.Add(1)
		go func(i int, location string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			fn(i, location)
		}(i, location)
	}
	wg.Wait()
}

// destination maps a script location to its recording URL: the script's base
// name with the cast extension, under destDir or the configured recording
// directory.
func (r *Runtime) destination(destDir, location string) string {
	if destDir == "" {
		destDir = r.config.Recording.Dir
	}
	return cast.DestinationURL(destDir, path.Base(location))
}
