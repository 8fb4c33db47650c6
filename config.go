package termscript

import (
	"context"
	"fmt"
	"time"

	"github.com/termscript/termscript/model/interp"
	"github.com/termscript/termscript/policy"
	"github.com/termscript/termscript/service/runner"
	"github.com/termscript/termscript/service/session"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from JSON or YAML; the zero-value is useful – all nested fields
// inherit their package defaults.
type Config struct {
	Scripts   ScriptsConfig   `json:"scripts" yaml:"scripts"`
	Terminal  TerminalConfig  `json:"terminal" yaml:"terminal"`
	Recording RecordingConfig `json:"recording" yaml:"recording"`

	// Secrets lists secret sources resolved into the interpolation snapshot
	// at script load time.
	Secrets []interp.Source `json:"secrets,omitempty" yaml:"secrets,omitempty"`

	// Policy optionally gates directives that write to the child.
	Policy *policy.Config `json:"policy,omitempty" yaml:"policy,omitempty"`
}

// ScriptsConfig controls how scripts are located and interpolated.
type ScriptsConfig struct {
	// BaseURL is the location List scans for scripts.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`

	// Extension is appended to extension-less script references.
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`

	// Env adds entries to the interpolation snapshot on top of the process
	// environment.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// TerminalConfig controls the spawned pseudo-terminal.
type TerminalConfig struct {
	// Shell is spawned when a script has no pragma and hosts the typed
	// commands in recording mode.
	Shell string `json:"shell,omitempty" yaml:"shell,omitempty"`

	// Prompt is exported as PS1 and matched by the wait directive.
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty"`

	Cols int `json:"cols,omitempty" yaml:"cols,omitempty"`
	Rows int `json:"rows,omitempty" yaml:"rows,omitempty"`

	// TimeoutMs bounds each expect/regex/readline/wait match window.
	TimeoutMs int `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`

	// PaceMs is the pause inserted after every dispatched directive.
	PaceMs int `json:"paceMs,omitempty" yaml:"paceMs,omitempty"`
}

// RecordingConfig controls asciicast capture.
type RecordingConfig struct {
	// Dir is the default destination directory for recordings.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// TrimLines is the number of trailing events dropped at finalisation; a
	// pointer so that an explicit zero survives merging over the defaults.
	TrimLines *int `json:"trimLines,omitempty" yaml:"trimLines,omitempty"`

	// TypePragma types the pragma rune by rune instead of sending it whole.
	TypePragma bool `json:"typePragma,omitempty" yaml:"typePragma,omitempty"`

	// CaptureInput records keystrokes as input events alongside output.
	CaptureInput bool `json:"captureInput,omitempty" yaml:"captureInput,omitempty"`

	// DelayMs is the base per-rune typing delay, DeviationMs the gaussian
	// drift applied to it.
	DelayMs     int     `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
	DeviationMs float64 `json:"deviationMs,omitempty" yaml:"deviationMs,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults. Callers
// may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	trim := runner.DefaultTrimLines
	return &Config{
		Scripts: ScriptsConfig{
			Extension: ".sh",
		},
		Terminal: TerminalConfig{
			Shell:     runner.DefaultShell,
			Prompt:    session.DefaultPrompt,
			Cols:      session.DefaultCols,
			Rows:      session.DefaultRows,
			TimeoutMs: int(session.DefaultTimeout / time.Millisecond),
			PaceMs:    int(runner.DefaultPace / time.Millisecond),
		},
		Recording: RecordingConfig{
			Dir:         ".",
			TrimLines:   &trim,
			DelayMs:     int(runner.DefaultTypingInterval / time.Millisecond),
			DeviationMs: runner.DefaultTypingDeviation,
		},
	}
}

// LoadConfig reads a YAML configuration from any storage location the afs
// layer understands and merges it over the defaults, so a partial file only
// overrides what it names.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", URL, err)
	}
	config.Init()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return config, nil
}

// Init fills zero-valued fields with their package defaults.
func (c *Config) Init() {
	defaults := DefaultConfig()
	if c.Scripts.Extension == "" {
		c.Scripts.Extension = defaults.Scripts.Extension
	}
	if c.Terminal.Shell == "" {
		c.Terminal.Shell = defaults.Terminal.Shell
	}
	if c.Terminal.Prompt == "" {
		c.Terminal.Prompt = defaults.Terminal.Prompt
	}
	if c.Terminal.Cols == 0 {
		c.Terminal.Cols = defaults.Terminal.Cols
	}
	if c.Terminal.Rows == 0 {
		c.Terminal.Rows = defaults.Terminal.Rows
	}
	if c.Terminal.TimeoutMs == 0 {
		c.Terminal.TimeoutMs = defaults.Terminal.TimeoutMs
	}
	if c.Recording.Dir == "" {
		c.Recording.Dir = defaults.Recording.Dir
	}
	if c.Recording.TrimLines == nil {
		c.Recording.TrimLines = defaults.Recording.TrimLines
	}
	if c.Recording.DelayMs == 0 {
		c.Recording.DelayMs = defaults.Recording.DelayMs
	}
	if c.Recording.DeviationMs == 0 {
		c.Recording.DeviationMs = defaults.Recording.DeviationMs
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Terminal.Shell == "" {
		return fmt.Errorf("terminal.shell cannot be empty")
	}
	if c.Terminal.Cols <= 0 || c.Terminal.Rows <= 0 {
		return fmt.Errorf("terminal geometry must be positive, had %vx%v", c.Terminal.Cols, c.Terminal.Rows)
	}
	if c.Terminal.TimeoutMs <= 0 {
		return fmt.Errorf("terminal.timeoutMs must be > 0")
	}
	if c.Terminal.PaceMs < 0 {
		return fmt.Errorf("terminal.paceMs cannot be negative")
	}
	if c.Recording.TrimLines != nil && *c.Recording.TrimLines < 0 {
		return fmt.Errorf("recording.trimLines cannot be negative")
	}
	if c.Recording.DelayMs < 0 {
		return fmt.Errorf("recording.delayMs cannot be negative")
	}
	for i, source := range c.Secrets {
		if source.Name == "" || source.URL == "" {
			return fmt.Errorf("secrets[%d] requires name and url", i)
		}
	}
	if c.Policy != nil {
		switch c.Policy.Mode {
		case "", policy.ModeAsk, policy.ModeAuto, policy.ModeDeny:
		default:
			return fmt.Errorf("policy.mode %q is not one of ask, auto, deny", c.Policy.Mode)
		}
	}
	return nil
}

// runnerOptions renders the configuration as runner options.
func (c *Config) runnerOptions() []runner.Option {
	options := []runner.Option{
		runner.WithShell(c.Terminal.Shell),
		runner.WithPrompt(c.Terminal.Prompt),
		runner.WithSize(c.Terminal.Cols, c.Terminal.Rows),
		runner.WithTimeout(time.Duration(c.Terminal.TimeoutMs) * time.Millisecond),
		runner.WithPace(time.Duration(c.Terminal.PaceMs) * time.Millisecond),
		runner.WithTyping(time.Duration(c.Recording.DelayMs)*time.Millisecond, c.Recording.DeviationMs),
	}
	if c.Recording.TrimLines != nil {
		options = append(options, runner.WithTrimLines(*c.Recording.TrimLines))
	}
	if c.Recording.TypePragma {
		options = append(options, runner.WithTypePragma())
	}
	if c.Recording.CaptureInput {
		options = append(options, runner.WithCaptureInput())
	}
	return options
}
