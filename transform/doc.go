// Package transform provides Transformation, a named step from one Datum to
// another that records its own name in the output tags.
//
// Functions are lifted by what they consume:
//
//	scale := transform.FromBuffer("scale", func(b []float64) ([]float64, error) {
//		for i := range b {
//			b[i] *= 2
//		}
//		return b, nil
//	})
//	out, err := transform.Apply(scale, x) // out.Tags() gains applied="scale"
//
// FromBufferRate also sees and may replace the sample rate, New sees the whole
// Datum, and Map lifts an element-wise function. Buffers handed to a step are
// private copies, so steps may modify them in place.
package transform
