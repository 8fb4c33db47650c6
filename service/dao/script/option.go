package script

import (
	"github.com/termscript/termscript/model/interp"
	"github.com/viant/afs"
	"github.com/viant/scy"
)

type Option func(*Service)

// WithFS overrides the storage service scripts are loaded through.
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithExtension overrides the default ".sh" script extension.
func WithExtension(ext string) Option {
	return func(s *Service) {
		s.extension = ext
	}
}

// WithBaseURL sets the location List scans for scripts.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

// WithEnv replaces the process environment as the interpolation source.
func WithEnv(env []string) Option {
	return func(s *Service) {
		s.env = env
	}
}

// WithSecrets registers secret sources resolved into the interpolation
// snapshot at load time.
func WithSecrets(sources ...interp.Source) Option {
	return func(s *Service) {
		s.sources = append(s.sources, sources...)
	}
}

// WithSecretService overrides the service used to resolve secret sources.
func WithSecretService(service *scy.Service) Option {
	return func(s *Service) {
		s.secrets = service
	}
}
