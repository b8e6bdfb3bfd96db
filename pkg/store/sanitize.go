package store

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// sanitize normalizes an arbitrary caller value into the JSON value model:
// map[string]any, []any, string, float64, bool, or nil. The result is always
// a deep copy; nothing in the returned tree shares identity with the input.
// Anything outside the JSON model (funcs, channels, NaN, infinities, cyclic
// references) normalizes to nil, matching standard JSON encoding semantics.
func sanitize(v any) any {
	return normalize(reflect.ValueOf(v), make(map[uintptr]bool))
}

func normalize(rv reflect.Value, seen map[uintptr]bool) any {
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem(), seen)

	case reflect.Bool:
		return rv.Bool()

	case reflect.String:
		return rv.String()

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())

	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return nil
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		return normalizeList(rv, seen)

	case reflect.Array:
		return normalizeList(rv, seen)

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return nil
		}
		seen[ptr] = true
		defer delete(seen, ptr)

		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := mapKey(iter.Key())
			if !ok {
				continue
			}
			out[key] = normalize(iter.Value(), seen)
		}
		return out

	case reflect.Struct:
		return normalizeOpaque(rv)

	default:
		// Func, Chan, Complex, UnsafePointer: no JSON representation.
		return nil
	}
}

func normalizeList(rv reflect.Value, seen map[uintptr]bool) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = normalize(rv.Index(i), seen)
	}
	return out
}

// mapKey renders a map key as a JSON object key. String and integer keys are
// supported, mirroring encoding/json; anything else drops the entry.
func mapKey(rv reflect.Value) (string, bool) {
	for rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	default:
		return "", false
	}
}

// normalizeOpaque handles structs and other marshalable types by a JSON
// round trip. Values that fail to marshal (NaN fields, embedded funcs)
// normalize to nil rather than erroring.
func normalizeOpaque(rv reflect.Value) any {
	raw, err := json.Marshal(rv.Interface())
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
