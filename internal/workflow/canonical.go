package workflow

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// Canonical returns a deep copy of v using a fixed set of Go types:
// int for integers (uint64 for unsigned values above math.MaxInt64), float64 for floats, map[string]any for maps and []any for
// lists. Strings, bools and nil are kept. Anything else is rendered with fmt.
//
// Trees in canonical form compare equal with reflect.DeepEqual after an
// encode/decode cycle.
func Canonical(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int, uint64, float64:
		return t
	case Values:
		return CanonicalMap(t)
	case map[string]any:
		return CanonicalMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Canonical(item)
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339Nano)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u > math.MaxInt64 {
			return u
		}
		return int(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = Canonical(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Canonical(rv.Index(i).Interface())
		}
		return out
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Canonical(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

// CanonicalMap is Canonical for a string-keyed map. A nil map yields nil.
func CanonicalMap[M ~map[string]any](m M) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Canonical(v)
	}
	return out
}
