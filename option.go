package termscript

import (
	"github.com/termscript/termscript/model/interp"
	"github.com/termscript/termscript/service/dao/script"
	"github.com/termscript/termscript/service/runner"
	"github.com/termscript/termscript/tracing"
	"github.com/viant/afs"
	"github.com/viant/scy"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the service façade.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithFS sets the storage service used for scripts, recordings and config.
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithEnv adds entries to the interpolation snapshot on top of the process
// environment and the configuration.
func WithEnv(env map[string]string) Option {
	return func(s *Service) {
		if s.env == nil {
			s.env = map[string]string{}
		}
		for k, v := range env {
			s.env[k] = v
		}
	}
}

// WithScriptDAO sets the script DAO.
func WithScriptDAO(dao *script.Service) Option {
	return func(s *Service) {
		s.dao = dao
	}
}

// WithRunner sets the script runner.
func WithRunner(service *runner.Service) Option {
	return func(s *Service) {
		s.runner = service
	}
}

// WithRunnerOptions appends run options applied after the configuration,
// e.g. a listener or an output echo.
func WithRunnerOptions(options ...runner.Option) Option {
	return func(s *Service) {
		s.runnerOptions = append(s.runnerOptions, options...)
	}
}

// WithSecretService sets the service used to resolve secret sources.
func WithSecretService(service *scy.Service) Option {
	return func(s *Service) {
		s.secrets = service
	}
}

// WithSecretSources registers secret sources resolved into the interpolation
// snapshot, in addition to any listed in the configuration.
func WithSecretSources(sources ...interp.Source) Option {
	return func(s *Service) {
		s.secretSources = append(s.secretSources, sources...)
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
