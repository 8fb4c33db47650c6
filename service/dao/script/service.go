package script

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/termscript/termscript/model"
	"github.com/termscript/termscript/model/interp"
	"github.com/termscript/termscript/service/dao"
	"github.com/termscript/termscript/service/dao/criteria"
	"github.com/termscript/termscript/service/dao/script/grammar"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/scy"
)

const defaultExtension = ".sh"

// Service loads automation scripts from any location the storage layer
// understands (file, mem, embed, s3, ...), expands includes and snapshots the
// interpolation environment.
type Service struct {
	fs        afs.Service
	baseURL   string
	extension string
	env       []string
	sources   []interp.Source
	secrets   *scy.Service
}

// Ensure Service implements dao.Service
var _ dao.Service[string, model.Script] = (*Service)(nil)

// Load reads and parses the script at the supplied URL, splices includes in
// place and validates the result. A URL without extension gets the service
// extension appended; a relative location resolves against the service base
// URL when one is configured.
func (s *Service) Load(ctx context.Context, URL string) (*model.Script, error) {
	if URL == "" {
		return nil, dao.ErrInvalidID
	}
	if path.Ext(URL) == "" {
		URL += s.extension
	}
	if s.baseURL != "" && !strings.Contains(URL, "://") && !strings.HasPrefix(URL, "/") {
		URL = url.Join(s.baseURL, URL)
	}
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load script from %s: %w", URL, err)
	}
	directives, err := s.expand(ctx, URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load script from %s: %w", URL, err)
	}
	for i := range directives {
		directive := &directives[i]
		if directive.Kind == model.KindPragma && i > 0 {
			return nil, grammar.NewError(directive.File, directive.Line, ErrPragmaFirst)
		}
		if !directive.HasPayload() {
			continue
		}
		if err := snapshot.Validate(directive.Text); err != nil {
			return nil, grammar.NewError(directive.File, directive.Line, err)
		}
	}
	baseURL, _ := url.Split(URL, file.Scheme)
	return &model.Script{
		Name:       nameFromURL(URL),
		URL:        URL,
		BaseURL:    baseURL,
		Directives: directives,
		Env:        snapshot,
	}, nil
}

// Save renders the script back to source form and uploads it to script.URL.
func (s *Service) Save(ctx context.Context, script *model.Script) error {
	if script == nil {
		return dao.ErrNilEntity
	}
	if script.URL == "" {
		return dao.ErrInvalidID
	}
	var b strings.Builder
	for _, directive := range script.Directives {
		b.WriteString(directive.String())
		b.WriteByte('\n')
	}
	if err := s.fs.Upload(ctx, script.URL, file.DefaultFileOsMode, strings.NewReader(b.String())); err != nil {
		return fmt.Errorf("failed to save script to %s: %w", script.URL, err)
	}
	return nil
}

// Delete removes the script at the supplied URL.
func (s *Service) Delete(ctx context.Context, URL string) error {
	if URL == "" {
		return dao.ErrInvalidID
	}
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check if script exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", dao.ErrNotFound, URL)
	}
	if err := s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete script %s: %w", URL, err)
	}
	return nil
}

// List loads every script under the service base URL, recursively. Parameters
// may narrow the result by pragma shell, e.g. dao.NewParameter("Shell", "sh").
// A script that fails to parse fails the whole listing; a suite with a broken
// member should not run partially.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Script, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("script: base URL is empty")
	}
	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts in %s: %w", s.baseURL, err)
	}
	var scripts []*model.Script
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), s.extension) {
			continue
		}
		script, err := s.Load(ctx, object.URL())
		if err != nil {
			return nil, err
		}
		shell, _ := script.Pragma()
		if !criteria.FilterByShell(shell, parameters) {
			continue
		}
		scripts = append(scripts, script)
	}
	// Storage listing order is backend-specific; suites should run in a
	// stable order.
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].URL < scripts[j].URL })
	return scripts, nil
}

// snapshot builds the interpolation table from the configured environment and
// resolves any registered secret sources into it.
func (s *Service) snapshot(ctx context.Context) (*interp.Snapshot, error) {
	snapshot := interp.NewFromEnviron(s.env)
	if len(s.sources) == 0 {
		return snapshot, nil
	}
	service := s.secrets
	if service == nil {
		service = scy.New()
	}
	if err := snapshot.ResolveSecrets(ctx, service, s.sources); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// expand parses the script at URL and splices the parsed body of every
// include in place, depth first. The stack holds normalized URLs of scripts
// currently being expanded and guards against include cycles.
func (s *Service) expand(ctx context.Context, URL string, stack []string) ([]model.Directive, error) {
	stack = append(stack, url.Normalize(URL, file.Scheme))
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, err
	}
	statements, err := grammar.Parse(URL, string(data))
	if err != nil {
		return nil, err
	}
	var directives []model.Directive
	for _, statement := range statements {
		if statement.IncludePath == "" {
			directives = append(directives, *statement.Directive)
			continue
		}
		target := s.resolve(URL, statement.IncludePath)
		normalized := url.Normalize(target, file.Scheme)
		for _, ancestor := range stack {
			if ancestor != normalized {
				continue
			}
			chain := strings.Join(append(stack, normalized), " -> ")
			return nil, grammar.NewError(statement.File, statement.Line, fmt.Errorf("%w: %s", ErrCyclicInclude, chain))
		}
		if ok, _ := s.fs.Exists(ctx, target); !ok {
			return nil, grammar.NewError(statement.File, statement.Line, fmt.Errorf("include %s (%s): %w", statement.IncludePath, target, dao.ErrNotFound))
		}
		included, err := s.expand(ctx, target, stack)
		if err != nil {
			return nil, err
		}
		directives = append(directives, included...)
	}
	return directives, nil
}

// resolve maps an include reference to a URL; relative references resolve
// against the including script's directory.
func (s *Service) resolve(parentURL, ref string) string {
	if path.Ext(ref) == "" {
		ref += s.extension
	}
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "/") {
		return ref
	}
	parent, _ := url.Split(parentURL, file.Scheme)
	return url.Join(parent, ref)
}

func nameFromURL(URL string) string {
	base := filepath.Base(URL)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// New creates a new script DAO service
func New(opts ...Option) *Service {
	ret := &Service{
		fs:        afs.New(),
		extension: defaultExtension,
		env:       os.Environ(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
