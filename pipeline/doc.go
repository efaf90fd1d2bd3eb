// Package pipeline composes transformations into immutable pipelines and
// runs them over a Datum or a Collection.
//
// A pipeline is a fold over its steps: each step's output feeds the next. For
// a collection every step is a barrier; it is applied to every entry, in
// parallel when WithWorkers asks for it, before the next step starts. Entry
// order is always preserved.
//
// A run either returns a complete container or a nil container and a
// *errors.PipelineExecutionError naming the failing step and entries.
//
// # Usage
//
//	p := pipeline.Compose(detrend, clip).Named("cleanup")
//	out, err := p.Run(ctx, collection,
//	    pipeline.WithWorkers(8),
//	    pipeline.WithFailurePolicy(pipeline.FailSoft),
//	)
//
// # Definitions
//
// Pipelines can also be described in YAML and built against a Registry:
//
//	reg := pipeline.NewRegistry[float64]()
//	reg.Register(detrend, clip)
//	def, _ := pipeline.LoadDefinition("pipelines/cleanup.yaml")
//	p, err := pipeline.Build(def, reg, pipeline.NewFileLoader("pipelines"))
package pipeline
