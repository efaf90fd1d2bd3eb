package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/datumkit/datum"
	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/logger"
	"github.com/kbukum/datumkit/observability"
	"github.com/kbukum/datumkit/tags"
	"github.com/kbukum/datumkit/transform"
)

// Run applies every step to c in order and returns a container of the same
// kind. A Datum goes through each step once; for a Collection each step is
// applied to every entry before the next step starts.
//
// On failure Run returns a nil container and a *errors.PipelineExecutionError
// naming the failing step. No partial result is ever returned. An input
// holding a zero-value Datum fails with INVALID_SAMPLE_RATE before any step
// runs, even for an empty pipeline.
func (p Pipeline[T]) Run(ctx context.Context, c datum.Container[T], opts ...RunOption) (datum.Container[T], error) {
	switch x := c.(type) {
	case datum.Datum[T]:
		out, err := p.RunDatum(ctx, x, opts...)
		if err != nil {
			return nil, err
		}
		return out, nil
	case datum.Collection[T]:
		out, err := p.RunCollection(ctx, x, opts...)
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, errors.InvalidInput("container", "a Datum or Collection is required")
	}
}

// RunDatum is Run for a single Datum.
func (p Pipeline[T]) RunDatum(ctx context.Context, d datum.Datum[T], opts ...RunOption) (datum.Datum[T], error) {
	out, err := p.execute(ctx, d, newRunConfig(opts))
	if err != nil {
		return datum.Datum[T]{}, err
	}
	return out.(datum.Datum[T]), nil
}

// RunCollection is Run for a Collection. Entry order and collection tags are
// preserved; a named pipeline also merges {provenance key: name} into the
// collection tags once, after the last step.
func (p Pipeline[T]) RunCollection(ctx context.Context, c datum.Collection[T], opts ...RunOption) (datum.Collection[T], error) {
	cfg := newRunConfig(opts)
	out, err := p.execute(ctx, c, cfg)
	if err != nil {
		return datum.Collection[T]{}, err
	}
	return out.(datum.Collection[T]), nil
}

func (p Pipeline[T]) execute(ctx context.Context, in datum.Container[T], cfg *runConfig) (out datum.Container[T], err error) {
	if verr := in.Validate(); verr != nil {
		return nil, verr
	}
	if len(p.steps) == 0 {
		return in, nil
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}
	ctx = logger.ContextWithRunID(ctx, cfg.runID)
	log := cfg.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldPipeline, p.name,
		logger.FieldSteps, len(p.steps),
	))

	kind := in.ContainerKind()
	if cfg.tracing || cfg.metrics != nil {
		rc := observability.NewRunContext(p.name, cfg.runID, kind.String(), cfg.metrics)
		var span trace.Span
		if cfg.tracing {
			ctx, span = rc.StartRun(ctx, spanName(cfg.spanPrefix, observability.SpanPipelineRun))
		} else {
			span = trace.SpanFromContext(context.Background())
			if rc.Metrics != nil {
				rc.Metrics.RecordRunStart(ctx)
			}
		}
		defer func() {
			status := "ok"
			if err != nil {
				status = "error"
			}
			rc.EndRun(ctx, span, status, err)
		}()
	}

	fields := logger.Fields(logger.FieldWorkers, cfg.workers, logger.FieldPolicy, cfg.failure.String())
	if c, ok := in.(datum.Collection[T]); ok {
		fields[logger.FieldEntries] = c.Len()
	}
	log.Debug("pipeline run started", fields)

	step := p.stepper(cfg, log)
	cur := in
	for i, t := range p.steps {
		if cerr := ctx.Err(); cerr != nil {
			return nil, p.canceled(i, cerr)
		}
		next, serr := step(ctx, i, t, cur)
		if serr != nil {
			return nil, serr
		}
		cur = next
		if cfg.trace != nil {
			cfg.trace.record(i, t.Name(), cur)
		}
		if cfg.progress != nil {
			cfg.progress(i+1, len(p.steps), t.Name())
		}
	}

	if c, ok := cur.(datum.Collection[T]); ok && p.name != "" && cfg.provenanceKey != "" {
		merged, merr := c.MergeTags(tags.Empty().With(cfg.provenanceKey, tags.String(p.name)), cfg.tagPolicy)
		if merr != nil {
			return nil, &errors.PipelineExecutionError{Pipeline: p.name, Step: len(p.steps), StepName: p.name, Cause: merr}
		}
		cur = merged
	}

	log.Debug("pipeline run completed")
	return cur, nil
}

// stepper builds the step function with the observability layers cfg asks for.
func (p Pipeline[T]) stepper(cfg *runConfig, log *logger.Logger) stepFunc[T] {
	step := p.applyStep(cfg)
	if cfg.tracing {
		step = withTracing(step, cfg.spanPrefix)
	}
	if cfg.metrics != nil {
		step = withMetrics(step, p.name, cfg.metrics)
	}
	return withLogging(step, log)
}

func (p Pipeline[T]) applyStep(cfg *runConfig) stepFunc[T] {
	return func(ctx context.Context, step int, t transform.Transformation[T], in datum.Container[T]) (datum.Container[T], error) {
		switch x := in.(type) {
		case datum.Datum[T]:
			out, err := transform.Apply(t, x)
			if err != nil {
				return nil, p.failed(step, t, []*errors.TransformationError{asFailure(t, errors.NoEntry, err)})
			}
			return out, nil
		case datum.Collection[T]:
			entries, failures, err := applyEntries(ctx, t, x, cfg.workers, cfg.failure)
			if len(failures) > 0 {
				return nil, p.failed(step, t, failures)
			}
			if err != nil {
				return nil, p.canceled(step, err)
			}
			return x.WithEntries(entries), nil
		default:
			return nil, errors.InvalidInput("container", "a Datum or Collection is required")
		}
	}
}

func (p Pipeline[T]) failed(step int, t transform.Transformation[T], failures []*errors.TransformationError) error {
	return &errors.PipelineExecutionError{
		Pipeline: p.name,
		Step:     step,
		StepName: t.Name(),
		Failures: failures,
	}
}

func (p Pipeline[T]) canceled(step int, cause error) error {
	return &errors.PipelineExecutionError{
		Pipeline: p.name,
		Step:     step,
		StepName: p.steps[step].Name(),
		Cause:    errors.Canceled(cause),
	}
}
