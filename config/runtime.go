package config

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/kbukum/datumkit/logger"
	"github.com/kbukum/datumkit/observability"
	"github.com/kbukum/datumkit/pipeline"
)

// pipelineLogger is the registry name of the logger handed to pipeline runs.
const pipelineLogger = "pipeline"

// Runtime holds what a Config initializes: the global logger and, when
// enabled, the OpenTelemetry providers.
type Runtime struct {
	Config  *Config
	Logger  *logger.Logger
	Metrics *observability.Metrics

	stop []func(context.Context) error
}

// Start applies defaults, validates cfg, installs the global logger and
// starts the enabled exporters. Call Shutdown to flush them.
func Start(ctx context.Context, cfg *Config) (*Runtime, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)
	logger.Register(pipelineLogger, log.WithComponent(pipelineLogger))
	rt := &Runtime{Config: cfg, Logger: log}

	obs := cfg.Observability
	if obs.TracingEnabled {
		tc := obs.TracerConfig(cfg.Name, cfg.Version, cfg.Environment)
		tp, err := observability.InitTracer(ctx, &tc)
		if err != nil {
			_ = rt.Shutdown(ctx)
			return nil, err
		}
		rt.stop = append(rt.stop, tp.Shutdown)
	}
	if obs.MetricsEnabled {
		mc := obs.MeterConfig(cfg.Name, cfg.Version, cfg.Environment)
		mp, err := observability.InitMeter(ctx, &mc)
		if err != nil {
			_ = rt.Shutdown(ctx)
			return nil, err
		}
		rt.stop = append(rt.stop, mp.Shutdown)
		m, err := observability.NewMetrics(mp.Meter(cfg.Name))
		if err != nil {
			_ = rt.Shutdown(ctx)
			return nil, err
		}
		rt.Metrics = m
	}

	log.Info("datumkit started", logger.Fields(
		"environment", cfg.Environment,
		"version", cfg.Version,
		logger.FieldWorkers, cfg.Execution.Workers,
		logger.FieldPolicy, cfg.Execution.FailurePolicy,
	))
	return rt, nil
}

// RunOptions returns the configured pipeline options followed by extra.
// The runtime logger and metrics are included.
func (r *Runtime) RunOptions(extra ...pipeline.RunOption) ([]pipeline.RunOption, error) {
	opts, err := r.Config.Execution.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, pipeline.WithLogger(logger.Get(pipelineLogger)))
	if r.Config.Observability.TracingEnabled {
		opts = append(opts, pipeline.WithTracing(r.Config.Execution.SpanPrefix))
	}
	if r.Metrics != nil {
		opts = append(opts, pipeline.WithMetrics(r.Metrics))
	}
	return append(opts, extra...), nil
}

// Shutdown flushes and stops the exporters in reverse start order and drops
// the registered pipeline logger. Every provider is stopped even if one fails.
func (r *Runtime) Shutdown(ctx context.Context) error {
	logger.Unregister(pipelineLogger)
	var errs []error
	for i := len(r.stop) - 1; i >= 0; i-- {
		if err := r.stop[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.stop = nil
	return stderrors.Join(errs...)
}
