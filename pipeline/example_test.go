package pipeline_test

import (
	"context"
	"fmt"

	"github.com/kbukum/datumkit/datum"
	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/logger"
	"github.com/kbukum/datumkit/pipeline"
	"github.com/kbukum/datumkit/tags"
	"github.com/kbukum/datumkit/transform"
)

func Example() {
	double := transform.Map("double", func(v float64) float64 { return v * 2 })
	d, _ := datum.New([]float64{1, 2, 3}, 10, tags.MustMake(tags.P("type", "A")))

	out, err := pipeline.Compose(double).RunDatum(context.Background(), d,
		pipeline.WithLogger(logger.Nop()))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(out.Data(), out.SampleRate(), out.Tags())
	// Output: [2 4 6] 10 {type: "A", applied: "double"}
}

func ExamplePipeline_RunCollection() {
	positive := transform.FromBuffer("positive", func(b []float64) ([]float64, error) {
		for _, v := range b {
			if v < 0 {
				return nil, fmt.Errorf("negative sample %v", v)
			}
		}
		return b, nil
	})
	mk := func(v float64) datum.Datum[float64] {
		return datum.Must(datum.New([]float64{v}, 1, tags.Empty()))
	}
	col := datum.CollectOf(mk(1), mk(-2), mk(3))

	_, err := pipeline.Compose(positive).RunCollection(context.Background(), col,
		pipeline.WithLogger(logger.Nop()))
	if pe, ok := errors.AsPipelineError(err); ok {
		fmt.Println("step", pe.StepName, "entry", pe.Entry())
	}
	// Output: step positive entry 1
}

func ExampleBuild() {
	reg := pipeline.NewRegistry[float64]()
	reg.Register(
		transform.Map("scale", func(v float64) float64 { return v * 10 }),
		transform.Map("shift", func(v float64) float64 { return v + 1 }),
	)
	def, err := pipeline.ParseDefinition([]byte("name: prep\nsteps: [scale, shift]\n"))
	if err != nil {
		fmt.Println(err)
		return
	}
	p, err := pipeline.Build(def, reg, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(p)
	// Output: prep[scale -> shift]
}
