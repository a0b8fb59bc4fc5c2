package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueScalarsPassThrough(t *testing.T) {
	assert.Equal(t, "hello", Value("hello"))
	assert.Equal(t, true, Value(true))
	assert.Equal(t, 42, Value(42))
	assert.Equal(t, int64(-7), Value(int64(-7)))
	assert.Equal(t, 3.25, Value(3.25))
	assert.Nil(t, Value(nil))
}

func TestValueNonFiniteFloatsBecomeNil(t *testing.T) {
	assert.Nil(t, Value(math.NaN()))
	assert.Nil(t, Value(math.Inf(1)))
	assert.Nil(t, Value(math.Inf(-1)))
	assert.Nil(t, Value(float32(math.NaN())))

	// Nested occurrences are replaced in place.
	got := Value(map[string]any{"score": math.Inf(1), "ok": 1.0})
	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Nil(t, m["score"])
	assert.Equal(t, 1.0, m["ok"])
}

func TestValueInvalidUTF8BytesReplaced(t *testing.T) {
	got := Value([]byte{'h', 'i', 0xff, 0xfe})
	s, ok := got.(string)
	require.True(t, ok)
	assert.Contains(t, s, "hi")
	assert.True(t, json.Valid(mustMarshal(t, s)))
}

func TestValueTimeFormatsUTC(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	ts := time.Date(2026, 3, 1, 4, 30, 0, 0, loc)

	got := Value(ts)
	assert.Equal(t, "2026-03-01T12:30:00Z", got)

	assert.Nil(t, Value((*time.Time)(nil)))
}

func TestValueCyclicMapTerminates(t *testing.T) {
	m := map[string]any{"name": "root"}
	m["self"] = m

	got := Value(m)
	out, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "root", out["name"])
	assert.Equal(t, CycleMarker, out["self"])

	mustMarshal(t, got)
}

func TestValueCyclicSliceTerminates(t *testing.T) {
	s := make([]any, 2)
	s[0] = "first"
	s[1] = s

	got := Value(s)
	out, ok := got.([]any)
	require.True(t, ok)
	assert.Equal(t, "first", out[0])
	assert.Equal(t, []any{CycleMarker}, out[1])

	mustMarshal(t, got)
}

func TestValueIndirectCycleTerminates(t *testing.T) {
	a := map[string]any{}
	b := map[string]any{"parent": a}
	a["child"] = b

	got := Value(a)
	out, ok := got.(map[string]any)
	require.True(t, ok)
	child, ok := out["child"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, CycleMarker, child["parent"])

	mustMarshal(t, got)
}

func TestValueSharedContainerIsNotACycle(t *testing.T) {
	inner := map[string]any{"k": "v"}
	outer := map[string]any{"a": inner, "b": inner}

	got := Value(outer)
	out, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"k": "v"}, out["a"])
	assert.Equal(t, map[string]any{"k": "v"}, out["b"])
}

func TestValueMapKeysStringified(t *testing.T) {
	got := Value(map[int]string{1: "one", 2: "two"})
	out, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "one", out["1"])
	assert.Equal(t, "two", out["2"])
}

func TestValueNestedStructureMarshals(t *testing.T) {
	nested := map[string]any{
		"messages": []any{
			map[string]any{"role": "user", "content": []byte("hi")},
			map[string]any{"role": "assistant", "score": math.NaN()},
		},
		"at":    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		"id":    uuid.MustParse("816c5dca-b5aa-4ae2-9af9-ffa8d5fb3fab"),
		"count": 3,
	}

	got := Value(nested)
	raw := mustMarshal(t, got)
	assert.True(t, json.Valid(raw))
}

func TestValueFallbackToStringForm(t *testing.T) {
	type opaque struct{ Name string }
	assert.Equal(t, "{widget}", Value(opaque{Name: "widget"}))
	assert.Equal(t, "boom", Value(errors.New("boom")))
}

func TestValueNamedScalarTypes(t *testing.T) {
	type level int
	type label string
	assert.Equal(t, int64(3), Value(level(3)))
	assert.Equal(t, "warn", Value(label("warn")))
	assert.Equal(t, json.Number("12").String(), Value(json.Number("12")))
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
