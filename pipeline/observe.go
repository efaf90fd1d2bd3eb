package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/datumkit/datum"
	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/logger"
	"github.com/kbukum/datumkit/observability"
	"github.com/kbukum/datumkit/transform"
)

// stepFunc applies one transformation to a whole container. A failing step
// returns a *errors.PipelineExecutionError.
type stepFunc[T datum.Sample] func(ctx context.Context, step int, t transform.Transformation[T], in datum.Container[T]) (datum.Container[T], error)

// withTracing wraps a step with a span named "{prefix}.{step name}".
func withTracing[T datum.Sample](next stepFunc[T], prefix string) stepFunc[T] {
	return func(ctx context.Context, step int, t transform.Transformation[T], in datum.Container[T]) (datum.Container[T], error) {
		ctx, span := observability.StartSpan(ctx, spanName(prefix, t.Name()))
		defer span.End()

		observability.SetSpanAttribute(ctx, observability.AttrStep, step)
		observability.SetSpanAttribute(ctx, observability.AttrStepName, t.Name())
		if c, ok := in.(datum.Collection[T]); ok {
			observability.SetSpanAttribute(ctx, observability.AttrEntries, c.Len())
		}

		out, err := next(ctx, step, t, in)
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		return out, err
	}
}

// withMetrics wraps a step with step and error metrics.
func withMetrics[T datum.Sample](next stepFunc[T], pipeline string, m *observability.Metrics) stepFunc[T] {
	return func(ctx context.Context, step int, t transform.Transformation[T], in datum.Container[T]) (datum.Container[T], error) {
		start := time.Now()
		out, err := next(ctx, step, t, in)
		duration := time.Since(start)

		status := "ok"
		if err != nil {
			status = "error"
			recordFailures(ctx, m, t.Name(), err)
		}
		m.RecordStep(ctx, pipeline, t.Name(), status, duration)
		return out, err
	}
}

func recordFailures(ctx context.Context, m *observability.Metrics, step string, err error) {
	pe, ok := errors.AsPipelineError(err)
	if !ok || len(pe.Failures) == 0 {
		m.RecordError(ctx, string(errors.CodeOf(err)), step)
		return
	}
	for _, f := range pe.Failures {
		code := errors.CodeOf(f.Cause)
		if code == "" {
			code = errors.ErrCodeTransformation
		}
		m.RecordError(ctx, string(code), f.Transformation)
	}
}

// withLogging wraps a step with debug logs on success and error logs on failure.
func withLogging[T datum.Sample](next stepFunc[T], log *logger.Logger) stepFunc[T] {
	return func(ctx context.Context, step int, t transform.Transformation[T], in datum.Container[T]) (datum.Container[T], error) {
		start := time.Now()
		out, err := next(ctx, step, t, in)
		duration := time.Since(start)

		fields := logger.Fields(
			logger.FieldStep, step,
			logger.FieldStepName, t.Name(),
			logger.FieldDuration, duration.String(),
		)
		if err != nil {
			if pe, ok := errors.AsPipelineError(err); ok && len(pe.Failures) > 0 {
				fields[logger.FieldEntries] = pe.Entries()
			}
			log.Error("pipeline step failed", logger.MergeWithError(fields, err))
		} else {
			log.Debug("pipeline step completed", fields)
		}
		return out, err
	}
}

func spanName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
