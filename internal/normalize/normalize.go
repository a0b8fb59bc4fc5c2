// Package normalize converts arbitrary values into the JSON-safe forms the
// ingestion wire format expects: identifiers, timestamps, and free-form
// metadata/input/output payloads.
package normalize

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CycleMarker replaces any container revisited on the current path.
const CycleMarker = "[CYCLE]"

// Value converts v into a value json.Marshal can always encode.
// Strings, bools, and integers pass through; non-finite floats become nil.
// time.Time becomes a UTC ISO-8601 string, []byte a valid UTF-8 string with
// invalid sequences replaced. Maps and sequences convert element-wise; a
// container already on the current path is replaced with the "[CYCLE]"
// marker instead of recursing. Anything else degrades to its string form.
// Value never panics.
func Value(v any) any {
	return walk(v, make(map[uintptr]bool))
}

func walk(v any, path map[uintptr]bool) (out any) {
	// Best effort: a String/Error method that panics degrades to a
	// placeholder rather than taking the host application down.
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("<unserializable: %v>", r)
		}
	}()

	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case bool:
		return t
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return t
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return t.Seconds()
	case []byte:
		return strings.ToValidUTF8(string(t), "�")
	case uuid.UUID:
		return t.String()
	case error:
		return t.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return walk(rv.Elem().Interface(), path)

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if path[ptr] {
			return CycleMarker
		}
		path[ptr] = true
		defer delete(path, ptr)

		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[mapKey(iter.Key())] = walk(iter.Value().Interface(), path)
		}
		return m

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		// Zero-length slices cannot participate in a cycle, and nil slices
		// share a zero base pointer, so only non-empty slices are tracked.
		if rv.Len() > 0 {
			ptr := rv.Pointer()
			if path[ptr] {
				return []any{CycleMarker}
			}
			path[ptr] = true
			defer delete(path, ptr)
		}
		return walkSeq(rv, path)

	case reflect.Array:
		return walkSeq(rv, path)

	// Named scalar types (type Level int, json.Number, ...) keep their value.
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float())
	case reflect.String:
		return rv.String()
	}

	// Structs, funcs, channels: string form.
	return fmt.Sprint(v)
}

func walkSeq(rv reflect.Value, path map[uintptr]bool) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = walk(rv.Index(i).Interface(), path)
	}
	return out
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
