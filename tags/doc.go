// Package tags provides the immutable metadata map attached to every datum
// and collection.
//
// Values are a closed set of kinds (string, int, float, bool, time, string
// list) so metadata stays comparable and printable without reflection.
//
// # Usage
//
//	t, err := tags.Make(tags.P("type", "A"), tags.P("channel", 3))
//	merged, err := tags.Merge(t, other, tags.Override)
//	v, err := merged.Get("type")
package tags
