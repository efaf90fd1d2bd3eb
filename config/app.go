package config

import (
	"github.com/kbukum/datumkit/logger"
	"github.com/kbukum/datumkit/version"
)

// AppConfig contains the fields every datumkit application needs. Embed it
// in larger configuration structs:
//
//	type JobConfig struct {
//	    config.AppConfig `yaml:",inline" mapstructure:",squash"`
//	    Input string     `yaml:"input" mapstructure:"input"`
//	}
type AppConfig struct {
	Name        string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values. Development enables debug logging
// unless a level was set explicitly; Version falls back to the build version.
func (c *AppConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	if c.Version == "" {
		c.Version = version.Get().String()
	}
	c.Logging.ApplyDefaults()
}
