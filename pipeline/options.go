package pipeline

import (
	"fmt"
	"strings"

	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/logger"
	"github.com/kbukum/datumkit/observability"
	"github.com/kbukum/datumkit/tags"
	"github.com/kbukum/datumkit/transform"
)

// FailurePolicy decides how a collection step reacts to failing entries.
type FailurePolicy uint8

const (
	// FailFast stops the step at the first failing entry.
	FailFast FailurePolicy = iota
	// FailSoft runs every entry of the failing step and reports all failures.
	FailSoft
)

func (f FailurePolicy) String() string {
	switch f {
	case FailFast:
		return "fail_fast"
	case FailSoft:
		return "fail_soft"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", uint8(f))
	}
}

// ParseFailurePolicy parses "fail_fast" or "fail_soft".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail_fast", "failfast":
		return FailFast, nil
	case "fail_soft", "failsoft":
		return FailSoft, nil
	default:
		return FailFast, errors.InvalidInput("failure_policy", fmt.Sprintf("unknown failure policy %q", s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FailurePolicy) UnmarshalText(b []byte) error {
	p, err := ParseFailurePolicy(string(b))
	if err != nil {
		return err
	}
	*f = p
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f FailurePolicy) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// ProgressFunc is called after each completed step.
type ProgressFunc func(done, total int, step string)

// RunOption configures a single run.
type RunOption func(*runConfig)

type runConfig struct {
	workers       int
	failure       FailurePolicy
	log           *logger.Logger
	tracing       bool
	spanPrefix    string
	metrics       *observability.Metrics
	trace         *Trace
	runID         string
	tagPolicy     tags.Policy
	provenanceKey string
	progress      ProgressFunc
}

func newRunConfig(opts []RunOption) *runConfig {
	cfg := &runConfig{
		workers:       1,
		failure:       FailFast,
		tagPolicy:     tags.Override,
		provenanceKey: transform.DefaultProvenanceKey,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.Get("pipeline")
	}
	return cfg
}

// WithWorkers sets the number of goroutines applying a step across the
// entries of a collection. Values below 2 run sequentially.
func WithWorkers(n int) RunOption {
	return func(c *runConfig) {
		if n < 1 {
			n = 1
		}
		c.workers = n
	}
}

// WithFailurePolicy sets the collection failure policy. The default is FailFast.
func WithFailurePolicy(p FailurePolicy) RunOption {
	return func(c *runConfig) { c.failure = p }
}

// WithLogger sets the run logger. The default is the "pipeline" logger.
func WithLogger(l *logger.Logger) RunOption {
	return func(c *runConfig) { c.log = l }
}

// WithTracing creates a span for the run and one per step, named
// "{prefix}.pipeline.run" and "{prefix}.{step}".
func WithTracing(prefix string) RunOption {
	return func(c *runConfig) {
		c.tracing = true
		c.spanPrefix = prefix
	}
}

// WithMetrics records run, step and error metrics.
func WithMetrics(m *observability.Metrics) RunOption {
	return func(c *runConfig) { c.metrics = m }
}

// WithTrace records the container produced by every step into tr.
func WithTrace(tr *Trace) RunOption {
	return func(c *runConfig) { c.trace = tr }
}

// WithRunID sets the run ID attached to logs and spans. A random UUID is
// used otherwise.
func WithRunID(id string) RunOption {
	return func(c *runConfig) { c.runID = id }
}

// WithCollectionPolicy sets the policy used to merge a named pipeline's
// provenance tag into collection tags. The default is tags.Override.
func WithCollectionPolicy(p tags.Policy) RunOption {
	return func(c *runConfig) { c.tagPolicy = p }
}

// WithProvenanceKey changes the collection tag key that records the
// pipeline name.
func WithProvenanceKey(key string) RunOption {
	return func(c *runConfig) { c.provenanceKey = key }
}

// WithProgress registers a callback invoked after every step.
func WithProgress(fn ProgressFunc) RunOption {
	return func(c *runConfig) { c.progress = fn }
}

// ExecConfig is the configurable subset of the run options.
type ExecConfig struct {
	// Workers is the per-step parallelism for collections.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0,lte=1024"`
	// FailurePolicy is fail_fast or fail_soft.
	FailurePolicy string `yaml:"failure_policy" mapstructure:"failure_policy" validate:"omitempty,oneof=fail_fast fail_soft"`
	// TagPolicy is the collection tag merge policy: override, keep or error.
	TagPolicy string `yaml:"tag_policy" mapstructure:"tag_policy" validate:"omitempty,oneof=override keep error"`
	// ProvenanceKey is the collection tag key for the pipeline name.
	ProvenanceKey string `yaml:"provenance_key" mapstructure:"provenance_key"`
	// Tracing enables run and step spans.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
	// SpanPrefix prefixes span names when Tracing is set.
	SpanPrefix string `yaml:"span_prefix" mapstructure:"span_prefix"`
}

// ApplyDefaults sets default values for unset fields.
func (c *ExecConfig) ApplyDefaults() {
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = FailFast.String()
	}
	if c.TagPolicy == "" {
		c.TagPolicy = tags.Override.String()
	}
	if c.ProvenanceKey == "" {
		c.ProvenanceKey = transform.DefaultProvenanceKey
	}
	if c.SpanPrefix == "" {
		c.SpanPrefix = "datumkit"
	}
}

// Options converts the configuration into run options.
func (c ExecConfig) Options() ([]RunOption, error) {
	failure, err := ParseFailurePolicy(c.FailurePolicy)
	if err != nil {
		return nil, err
	}
	opts := []RunOption{WithWorkers(c.Workers), WithFailurePolicy(failure)}
	if c.TagPolicy != "" {
		policy, err := tags.ParsePolicy(c.TagPolicy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCollectionPolicy(policy))
	}
	if c.ProvenanceKey != "" {
		opts = append(opts, WithProvenanceKey(c.ProvenanceKey))
	}
	if c.Tracing {
		opts = append(opts, WithTracing(c.SpanPrefix))
	}
	return opts, nil
}
