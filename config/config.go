package config

import (
	"fmt"

	"github.com/kbukum/datumkit/observability"
	"github.com/kbukum/datumkit/pipeline"
	"github.com/kbukum/datumkit/validation"
)

// Config is the complete datumkit configuration.
//
//	name: resampler
//	environment: production
//	logging:
//	  level: info
//	  format: json
//	execution:
//	  workers: 8
//	  failure_policy: fail_soft
//	observability:
//	  tracing_enabled: true
//	  endpoint: otel-collector:4318
type Config struct {
	AppConfig     `yaml:",inline" mapstructure:",squash"`
	Execution     pipeline.ExecConfig  `yaml:"execution" mapstructure:"execution"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies default values to every section.
func (c *Config) ApplyDefaults() {
	c.AppConfig.ApplyDefaults()
	c.Execution.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks struct tags on every section, then the logging section.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
