package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/datumkit/datum"
	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/logger"
	"github.com/kbukum/datumkit/tags"
	"github.com/kbukum/datumkit/transform"
)

var quiet = WithLogger(logger.Nop())

func scale(name string, k float64) transform.Transformation[float64] {
	return transform.Map(name, func(v float64) float64 { return v * k })
}

func offset(name string, k float64) transform.Transformation[float64] {
	return transform.Map(name, func(v float64) float64 { return v + k })
}

// failOn fails for any Datum whose first sample equals bad.
func failOn(name string, bad float64) transform.Transformation[float64] {
	return transform.FromBuffer(name, func(b []float64) ([]float64, error) {
		if len(b) > 0 && b[0] == bad {
			return nil, fmt.Errorf("bad sample %v", bad)
		}
		return b, nil
	})
}

func sample(vals ...float64) datum.Datum[float64] {
	return datum.Must(datum.New(vals, 10, tags.MustMake(tags.P("type", "A"))))
}

func firstSamples(t *testing.T, c datum.Collection[float64]) []float64 {
	t.Helper()
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.At(i).At(0)
	}
	return out
}

func TestEmptyPipelineIsIdentity(t *testing.T) {
	var p Pipeline[float64]
	d := sample(1, 2)

	out, err := p.RunDatum(context.Background(), d, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Equal(d) {
		t.Errorf("expected identity, got %v", out.Data())
	}

	col := datum.CollectOf(d, sample(3))
	cout, err := Compose[float64]().Named("empty").RunCollection(context.Background(), col, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if !cout.Equal(col) {
		t.Error("expected collection unchanged")
	}
}

func TestCompositionEqualsSequentialApplication(t *testing.T) {
	s, o := scale("scale", 2), offset("offset", 1)
	d := sample(1, 2, 3)

	got, err := Compose(s, o).RunDatum(context.Background(), d, quiet)
	if err != nil {
		t.Fatal(err)
	}

	step1, _ := transform.Apply(s, d)
	want, _ := transform.Apply(o, step1)
	if !got.Equal(want) {
		t.Errorf("got %v %v, want %v %v", got.Data(), got.Tags(), want.Data(), want.Tags())
	}
	if !slices.Equal(got.Data(), []float64{3, 5, 7}) {
		t.Errorf("unexpected data %v", got.Data())
	}
	v, _ := got.Tags().Lookup("applied")
	if !v.Equal(tags.String("offset")) {
		t.Errorf("expected last step provenance, got %v", v)
	}
}

func TestCompositionIsAssociative(t *testing.T) {
	a, b, c := scale("a", 2), offset("b", 1), scale("c", 3)
	d := sample(1)

	left, _ := Concat(Compose(a, b), Compose(c)).RunDatum(context.Background(), d, quiet)
	right, _ := Concat(Compose(a), Compose(b, c)).RunDatum(context.Background(), d, quiet)
	if !left.Equal(right) {
		t.Errorf("left %v != right %v", left.Data(), right.Data())
	}
}

func TestDoubleScenario(t *testing.T) {
	double := transform.FromBuffer("double", func(b []float64) ([]float64, error) {
		for i := range b {
			b[i] *= 2
		}
		return b, nil
	})
	out, err := Compose(double).Run(context.Background(), sample(1, 2, 3), quiet)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := out.(datum.Datum[float64])
	if !ok {
		t.Fatalf("expected a Datum, got %T", out)
	}
	if !slices.Equal(d.Data(), []float64{2, 4, 6}) || d.SampleRate() != 10 {
		t.Errorf("unexpected result %v @ %v", d.Data(), d.SampleRate())
	}
	want := tags.MustMake(tags.P("type", "A"), tags.P("applied", "double"))
	if !d.Tags().Equal(want) {
		t.Errorf("got tags %v, want %v", d.Tags(), want)
	}
}

func TestThenIsPersistent(t *testing.T) {
	base := Compose(scale("a", 2)).Then(offset("b", 1))
	x := base.Then(scale("x", 10))
	y := base.Then(scale("y", 100))

	if base.Len() != 2 {
		t.Errorf("base mutated: %v", base.Names())
	}
	if !slices.Equal(x.Names(), []string{"a", "b", "x"}) {
		t.Errorf("x = %v", x.Names())
	}
	if !slices.Equal(y.Names(), []string{"a", "b", "y"}) {
		t.Errorf("y = %v", y.Names())
	}
}

func TestStepsReturnsCopy(t *testing.T) {
	p := Compose(scale("a", 2))
	steps := p.Steps()
	steps[0] = scale("z", 0)
	if p.Names()[0] != "a" {
		t.Error("Steps must return a copy")
	}
	if got := p.Named("p").String(); got != "p[a]" {
		t.Errorf("String() = %q", got)
	}
}

func TestRunCollection_PreservesOrderAndTags(t *testing.T) {
	ctags := tags.MustMake(tags.P("set", "train"))
	col := datum.Collect([]datum.Datum[float64]{sample(1), sample(2), sample(3)}, ctags)

	out, err := Compose(scale("scale", 10)).RunCollection(context.Background(), col, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if got := firstSamples(t, out); !slices.Equal(got, []float64{10, 20, 30}) {
		t.Errorf("got %v", got)
	}
	if !out.Tags().Equal(ctags) {
		t.Errorf("unnamed pipeline must not touch collection tags, got %v", out.Tags())
	}
}

func TestRunCollection_NamedAddsProvenance(t *testing.T) {
	col := datum.Collect([]datum.Datum[float64]{sample(1)}, tags.MustMake(tags.P("set", "train")))
	p := Compose(scale("scale", 10)).Named("prep")

	out, err := p.RunCollection(context.Background(), col, quiet)
	if err != nil {
		t.Fatal(err)
	}
	want := tags.MustMake(tags.P("set", "train"), tags.P("applied", "prep"))
	if !out.Tags().Equal(want) {
		t.Errorf("got %v, want %v", out.Tags(), want)
	}

	conflicting := col.WithTags(tags.MustMake(tags.P("applied", "earlier")))
	_, err = p.RunCollection(context.Background(), conflicting, quiet, WithCollectionPolicy(tags.Error))
	if !errors.HasCode(err, errors.ErrCodeTagConflict) {
		t.Errorf("expected TAG_CONFLICT, got %v", err)
	}

	custom, err := p.RunCollection(context.Background(), col, quiet, WithProvenanceKey("pipeline"))
	if err != nil {
		t.Fatal(err)
	}
	if !custom.Tags().Has("pipeline") {
		t.Errorf("expected custom provenance key, got %v", custom.Tags())
	}
}

func TestRunCollection_FailFast(t *testing.T) {
	col := datum.CollectOf(sample(1), sample(2), sample(3))
	var calls atomic.Int32
	counting := transform.FromBuffer("count", func(b []float64) ([]float64, error) {
		calls.Add(1)
		return b, nil
	})
	p := Compose(scale("ok", 1), failOn("check", 2), counting)

	out, err := p.Run(context.Background(), col, quiet)
	if out != nil {
		t.Errorf("expected nil container, got %v", out)
	}
	pe, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("expected PipelineExecutionError, got %T: %v", err, err)
	}
	if pe.Step != 1 || pe.StepName != "check" {
		t.Errorf("expected step 1 (check), got %d (%s)", pe.Step, pe.StepName)
	}
	if pe.Entry() != 1 || len(pe.Failures) != 1 {
		t.Errorf("expected one failure at entry 1, got %v", pe.Entries())
	}
	if pe.Failures[0].Transformation != "check" {
		t.Errorf("unexpected transformation %q", pe.Failures[0].Transformation)
	}
	if calls.Load() != 0 {
		t.Errorf("later steps must not run, ran %d times", calls.Load())
	}
	if errors.CodeOf(err) != errors.ErrCodePipelineExecution {
		t.Errorf("unexpected code %s", errors.CodeOf(err))
	}
}

func TestRunCollection_FailSoftCollectsAll(t *testing.T) {
	col := datum.CollectOf(sample(2), sample(1), sample(2), sample(2))
	p := Compose(failOn("check", 2))

	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			_, err := p.RunCollection(context.Background(), col, quiet,
				WithFailurePolicy(FailSoft), WithWorkers(workers))
			pe, ok := errors.AsPipelineError(err)
			if !ok {
				t.Fatalf("expected PipelineExecutionError, got %v", err)
			}
			if got := pe.Entries(); !slices.Equal(got, []int{0, 2, 3}) {
				t.Errorf("expected failures at 0,2,3 sorted, got %v", got)
			}
		})
	}
}

func TestRunCollection_ParallelFailFastReportsLowestEntry(t *testing.T) {
	entries := make([]datum.Datum[float64], 50)
	for i := range entries {
		v := float64(i)
		if i == 7 || i == 30 {
			v = -1
		}
		entries[i] = sample(v)
	}
	col := datum.Collect(entries, tags.Map{})

	for range 20 {
		_, err := Compose(failOn("check", -1)).RunCollection(context.Background(), col, quiet, WithWorkers(8))
		pe, ok := errors.AsPipelineError(err)
		if !ok {
			t.Fatalf("expected PipelineExecutionError, got %v", err)
		}
		if len(pe.Failures) != 1 {
			t.Fatalf("fail-fast must report one failure, got %v", pe.Entries())
		}
		if pe.Entry() != 7 {
			t.Fatalf("expected lowest failing entry 7, got %d", pe.Entry())
		}
	}
}

func TestRunCollection_ParallelFailFastWaitsForSlowerLowerEntry(t *testing.T) {
	slow := transform.FromBuffer("check", func(b []float64) ([]float64, error) {
		switch b[0] {
		case 1:
			time.Sleep(20 * time.Millisecond)
			return nil, fmt.Errorf("slow failure")
		case 5:
			return nil, fmt.Errorf("fast failure")
		}
		return b, nil
	})
	entries := make([]datum.Datum[float64], 8)
	for i := range entries {
		entries[i] = sample(float64(i))
	}

	_, err := Compose(slow).RunCollection(context.Background(), datum.Collect(entries, tags.Map{}), quiet, WithWorkers(4))
	pe, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("expected PipelineExecutionError, got %v", err)
	}
	if pe.Entry() != 1 {
		t.Errorf("expected entry 1, got %d", pe.Entry())
	}
}

func TestFailureFloor(t *testing.T) {
	f := newFailureFloor()
	if f.above(1 << 30) {
		t.Error("no failure recorded yet")
	}
	f.record(9)
	f.record(12)
	f.record(4)
	if f.above(4) || !f.above(5) || f.above(0) {
		t.Errorf("unexpected floor %d", f.v.Load())
	}
}

func TestRun_ZeroValueDatum(t *testing.T) {
	var zero datum.Datum[float64]

	_, err := Compose[float64]().RunDatum(context.Background(), zero, quiet)
	if !errors.HasCode(err, errors.ErrCodeInvalidSampleRate) {
		t.Errorf("expected INVALID_SAMPLE_RATE for empty pipeline, got %v", err)
	}

	col := datum.CollectOf(sample(1), zero)
	_, err = Compose(scale("a", 1)).RunCollection(context.Background(), col, quiet)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidSampleRate {
		t.Fatalf("expected INVALID_SAMPLE_RATE, got %v", err)
	}
	if appErr.Details["entry"] != 1 {
		t.Errorf("expected entry 1 in details, got %v", appErr.Details)
	}
}

func TestParallelEqualsSequential(t *testing.T) {
	entries := make([]datum.Datum[float64], 100)
	for i := range entries {
		entries[i] = sample(float64(i), float64(i)/2)
	}
	col := datum.Collect(entries, tags.MustMake(tags.P("set", "x")))
	p := Compose(scale("a", 3), offset("b", -1), scale("c", 0.5)).Named("math")

	seq, err := p.RunCollection(context.Background(), col, quiet)
	if err != nil {
		t.Fatal(err)
	}
	par, err := p.RunCollection(context.Background(), col, quiet, WithWorkers(8))
	if err != nil {
		t.Fatal(err)
	}
	if !seq.Equal(par) {
		t.Error("parallel result differs from sequential result")
	}
}

func TestRunDatum_Failure(t *testing.T) {
	boom := stderrors.New("boom")
	failing := transform.FromBuffer("explode", func([]float64) ([]float64, error) { return nil, boom })

	_, err := Compose(scale("ok", 1), failing).RunDatum(context.Background(), sample(1), quiet)
	pe, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("expected PipelineExecutionError, got %v", err)
	}
	if pe.Step != 1 || pe.Entry() != errors.NoEntry {
		t.Errorf("unexpected location step=%d entry=%d", pe.Step, pe.Entry())
	}
	if !stderrors.Is(err, boom) {
		t.Error("expected the cause to be reachable with errors.Is")
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compose(scale("a", 1)).RunCollection(ctx, datum.CollectOf(sample(1)), quiet)
	if !errors.HasCode(err, errors.ErrCodeCanceled) {
		t.Fatalf("expected CANCELED, got %v", err)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Error("expected context.Canceled in chain")
	}
}

func TestRun_CanceledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopper := transform.FromBuffer("stop", func(b []float64) ([]float64, error) {
		cancel()
		return b, nil
	})

	out, err := Compose(stopper, scale("after", 2)).RunDatum(ctx, sample(1), quiet)
	pe, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("expected PipelineExecutionError, got %v (%v)", err, out)
	}
	if pe.Step != 1 || pe.StepName != "after" {
		t.Errorf("expected cancellation before step 1, got %d", pe.Step)
	}
}

func TestRun_NilContainer(t *testing.T) {
	_, err := Compose(scale("a", 1)).Run(context.Background(), nil, quiet)
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestTrace(t *testing.T) {
	tr := NewTrace()
	p := Compose(scale("scale", 2), offset("offset", 1))

	if _, err := p.RunDatum(context.Background(), sample(1), quiet, WithTrace(tr)); err != nil {
		t.Fatal(err)
	}
	if tr.Len() != 2 {
		t.Fatalf("expected 2 traced steps, got %d", tr.Len())
	}
	c, ok := Traced[float64](tr, "scale")
	if !ok {
		t.Fatal("expected traced output for scale")
	}
	if d := c.(datum.Datum[float64]); d.At(0) != 2 {
		t.Errorf("unexpected intermediate %v", d.Data())
	}
	if _, ok := Traced[float64](tr, "missing"); ok {
		t.Error("unexpected trace entry")
	}
	tr.Reset()
	if tr.Len() != 0 {
		t.Error("expected empty trace after reset")
	}
}

func TestProgress(t *testing.T) {
	var seen []string
	p := Compose(scale("a", 1), scale("b", 1))
	_, err := p.RunDatum(context.Background(), sample(1), quiet, WithProgress(func(done, total int, step string) {
		seen = append(seen, fmt.Sprintf("%d/%d %s", done, total, step))
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(seen, []string{"1/2 a", "2/2 b"}) {
		t.Errorf("unexpected progress %v", seen)
	}
}

func TestFailurePolicyParsing(t *testing.T) {
	tests := []struct {
		in      string
		want    FailurePolicy
		wantErr bool
	}{
		{"", FailFast, false},
		{"fail_fast", FailFast, false},
		{"FAIL_SOFT", FailSoft, false},
		{"sometimes", FailFast, true},
	}
	for _, tc := range tests {
		got, err := ParseFailurePolicy(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseFailurePolicy(%q) = %v, %v", tc.in, got, err)
		}
	}

	var f FailurePolicy
	if err := f.UnmarshalText([]byte("fail_soft")); err != nil || f != FailSoft {
		t.Errorf("UnmarshalText: %v %v", f, err)
	}
	if b, _ := FailSoft.MarshalText(); string(b) != "fail_soft" {
		t.Errorf("MarshalText = %s", b)
	}
}

func TestExecConfigOptions(t *testing.T) {
	cfg := ExecConfig{FailurePolicy: "fail_soft", Workers: 4}
	cfg.ApplyDefaults()
	if cfg.TagPolicy != "override" || cfg.ProvenanceKey != "applied" || cfg.SpanPrefix != "datumkit" {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	rc := newRunConfig(opts)
	if rc.workers != 4 || rc.failure != FailSoft || rc.tagPolicy != tags.Override || rc.tracing {
		t.Errorf("unexpected run config %+v", rc)
	}

	if _, err := (ExecConfig{FailurePolicy: "nope"}).Options(); err == nil {
		t.Error("expected error for unknown failure policy")
	}
	if _, err := (ExecConfig{TagPolicy: "merge"}).Options(); err == nil {
		t.Error("expected error for unknown tag policy")
	}
}
