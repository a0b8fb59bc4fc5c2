// Package usage resolves token counts from heterogeneous vendor records and
// estimates request cost from a static price table.
package usage

import (
	"encoding/json"
	"math"
	"strconv"
)

// Usage holds the token counts resolved for one unit of work. A nil side
// means the vendor reported nothing for it.
type Usage struct {
	PromptTokens     *int
	CompletionTokens *int
}

// aliasPairs orders the prompt/completion key pairs tried within one
// container.
var aliasPairs = [][2]string{
	{"prompt_tokens", "completion_tokens"},
	{"input_tokens", "output_tokens"},
}

// Extract resolves prompt and completion token counts for one record. Fixed
// sources are searched in order: the metrics map then metadata, each first
// by its direct prompt_tokens/completion_tokens pair, then by
// input_tokens/output_tokens, then by the same two pairs one level down
// under the "usage" and "tokens" sub-maps. The first source yielding at
// least one count supplies both sides; a side missing there stays nil
// instead of falling through to a later source.
func Extract(metrics, metadata map[string]any) Usage {
	for _, m := range []map[string]any{metrics, metadata} {
		if m == nil {
			continue
		}
		for _, pair := range aliasPairs {
			if u, ok := pairFrom(m, pair); ok {
				return u
			}
		}
		for _, nested := range []string{"usage", "tokens"} {
			sub, ok := m[nested].(map[string]any)
			if !ok {
				continue
			}
			for _, pair := range aliasPairs {
				if u, ok := pairFrom(sub, pair); ok {
					return u
				}
			}
		}
	}
	return Usage{}
}

// Total sums the two sides, zero-filling a single missing side. It returns
// nil only when both sides are missing, so a round-trip with one reported
// count still produces a total.
func Total(prompt, completion *int) *int {
	if prompt == nil && completion == nil {
		return nil
	}
	total := intOrZero(prompt) + intOrZero(completion)
	return &total
}

// pairFrom reads one alias pair out of one container. ok reports whether
// the container yielded at least one side.
func pairFrom(m map[string]any, pair [2]string) (Usage, bool) {
	var u Usage
	if n, ok := Int(m[pair[0]]); ok {
		u.PromptTokens = &n
	}
	if n, ok := Int(m[pair[1]]); ok {
		u.CompletionTokens = &n
	}
	return u, u.PromptTokens != nil || u.CompletionTokens != nil
}

// Int coerces the numeric shapes JSON decoding and vendor SDKs produce
// (Go integers, floats, json.Number, numeric strings) to an int.
func Int(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case uint:
		return int(t), true
	case uint32:
		return int(t), true
	case uint64:
		return int(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case float32:
		return Int(float64(t))
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		return 0, false
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Float coerces the same shapes to a float64. Non-finite floats are rejected.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case float32:
		return Float(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Float(f)
		}
		return 0, false
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return Float(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
