// Package datum provides the immutable signal containers: Datum, a single
// sampled signal with its sample rate and tags, and Collection, an ordered
// group of Datums with collection level tags.
//
// Every method returns a new value; nothing mutates its receiver. Sample
// buffers are copied on the way in and on the way out, so a Datum can be
// shared freely between goroutines.
//
// # Usage
//
//	x, err := datum.New([]float64{1, 2, 3}, 10, tags.MustMake(tags.P("type", "A")))
//	data, rate, t := x.Unpack()
//
//	c := datum.CollectOf(x, y, z)
//	loud := c.Filter(func(d datum.Datum[float64]) bool { return d.Len() > 0 })
//	as, bs := c.Partition(isGradeA)
package datum
