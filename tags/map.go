package tags

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/kbukum/datumkit/errors"
)

// Pair is a single key/value entry.
type Pair struct {
	Key   string
	Value Value
	// raw holds an unconverted Go value from P; conversion errors surface from Make.
	raw any
}

// P builds a Pair from any value supported by ValueOf.
func P(key string, value any) Pair {
	if v, ok := value.(Value); ok {
		return Pair{Key: key, Value: v}
	}
	return Pair{Key: key, raw: value}
}

func (p Pair) resolve() (Value, error) {
	if p.raw == nil {
		if !p.Value.IsValid() {
			return Value{}, errors.InvalidTagValue(p.Key, p.Value)
		}
		return p.Value, nil
	}
	v, err := ValueOf(p.raw)
	if err != nil {
		return Value{}, errors.InvalidTagValue(p.Key, p.raw)
	}
	return v, nil
}

// Map is an immutable, insertion-ordered mapping from keys to Values.
// The zero Map is empty and ready to use.
type Map struct {
	keys  []string
	index map[string]Value
}

// Empty returns the empty Map.
func Empty() Map { return Map{} }

// Make builds a Map from pairs, preserving their order. It fails with
// DUPLICATE_KEY if a key repeats and INVALID_TAG_VALUE if a value cannot be
// represented.
func Make(pairs ...Pair) (Map, error) {
	if len(pairs) == 0 {
		return Map{}, nil
	}
	m := Map{
		keys:  make([]string, 0, len(pairs)),
		index: make(map[string]Value, len(pairs)),
	}
	for _, p := range pairs {
		if _, dup := m.index[p.Key]; dup {
			return Map{}, errors.DuplicateKey(p.Key)
		}
		v, err := p.resolve()
		if err != nil {
			return Map{}, err
		}
		m.keys = append(m.keys, p.Key)
		m.index[p.Key] = v
	}
	return m, nil
}

// MustMake is like Make but panics on error. Intended for literals.
func MustMake(pairs ...Pair) Map {
	m, err := Make(pairs...)
	if err != nil {
		panic(err)
	}
	return m
}

// FromMap builds a Map from a Go map. Keys are sorted so the result is
// deterministic.
func FromMap(src map[string]any) (Map, error) {
	keys := slices.Sorted(maps.Keys(src))
	pairs := make([]Pair, len(keys))
	for i, k := range keys {
		pairs[i] = P(k, src[k])
	}
	return Make(pairs...)
}

// Merge returns a new Map holding every key of a and b. Keys of a come first
// in a's order, followed by keys only present in b in b's order. On a
// collision policy decides the value: Override takes b's, Keep takes a's and
// Error fails with TAG_CONFLICT.
func Merge(a, b Map, policy Policy) (Map, error) {
	if b.Len() == 0 {
		return a, nil
	}
	if a.Len() == 0 {
		return b, nil
	}
	out := Map{
		keys:  make([]string, 0, len(a.keys)+len(b.keys)),
		index: make(map[string]Value, len(a.keys)+len(b.keys)),
	}
	out.keys = append(out.keys, a.keys...)
	maps.Copy(out.index, a.index)
	for _, k := range b.keys {
		bv := b.index[k]
		if _, exists := out.index[k]; exists {
			switch policy {
			case Keep:
				continue
			case Error:
				return Map{}, errors.TagConflict(k)
			default:
				out.index[k] = bv
				continue
			}
		}
		out.keys = append(out.keys, k)
		out.index[k] = bv
	}
	return out, nil
}

// Get returns the value stored under key, or KEY_NOT_FOUND.
func (m Map) Get(key string) (Value, error) {
	v, ok := m.index[key]
	if !ok {
		return Value{}, errors.KeyNotFound(key)
	}
	return v, nil
}

// Lookup returns the value stored under key and whether it was present.
func (m Map) Lookup(key string) (Value, bool) {
	v, ok := m.index[key]
	return v, ok
}

// Has reports whether key is present.
func (m Map) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Len returns the number of keys.
func (m Map) Len() int { return len(m.keys) }

// Keys returns the keys in order.
func (m Map) Keys() []string { return slices.Clone(m.keys) }

// All iterates over the entries in order.
func (m Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range m.keys {
			if !yield(k, m.index[k]) {
				return
			}
		}
	}
}

// Pairs returns the entries in order.
func (m Map) Pairs() []Pair {
	out := make([]Pair, len(m.keys))
	for i, k := range m.keys {
		out[i] = Pair{Key: k, Value: m.index[k]}
	}
	return out
}

// With returns a copy of m with key set to value. An existing key keeps its
// position.
func (m Map) With(key string, value Value) Map {
	single := Map{keys: []string{key}, index: map[string]Value{key: value}}
	out, _ := Merge(m, single, Override)
	return out
}

// Without returns a copy of m without the given keys.
func (m Map) Without(keys ...string) Map {
	if len(keys) == 0 || m.Len() == 0 {
		return m
	}
	out := Map{index: make(map[string]Value, len(m.keys))}
	for _, k := range m.keys {
		if slices.Contains(keys, k) {
			continue
		}
		out.keys = append(out.keys, k)
		out.index[k] = m.index[k]
	}
	return out
}

// Equal reports whether m and o hold the same keys in the same order with
// equal values.
func (m Map) Equal(o Map) bool {
	if !slices.Equal(m.keys, o.keys) {
		return false
	}
	for _, k := range m.keys {
		if !m.index[k].Equal(o.index[k]) {
			return false
		}
	}
	return true
}

// ToMap returns the contents as a plain Go map.
func (m Map) ToMap() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.index[k].Any()
	}
	return out
}

// String renders the map as {k: v, ...} in key order.
func (m Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(m.index[k].String())
	}
	b.WriteByte('}')
	return b.String()
}
