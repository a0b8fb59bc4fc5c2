package normalize

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// ID renders a span or trace identifier in wire form: UUIDs (any accepted
// textual form) become 32 lowercase hex characters without dashes,
// vendor-native string IDs pass through unchanged, and integers render in
// decimal. The boolean is false when v carries no usable identifier
// (nil, booleans, empty values).
func ID(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case bool:
		return "", false
	case uuid.UUID:
		if t == uuid.Nil {
			return "", false
		}
		return hex32(t), true
	case *uuid.UUID:
		if t == nil || *t == uuid.Nil {
			return "", false
		}
		return hex32(*t), true
	case string:
		if t == "" {
			return "", false
		}
		if u, err := uuid.Parse(t); err == nil {
			return hex32(u), true
		}
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int8:
		return strconv.FormatInt(int64(t), 10), true
	case int16:
		return strconv.FormatInt(int64(t), 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t), true
	case float64:
		// JSON decoding hands integer IDs over as float64.
		if t == math.Trunc(t) && !math.IsInf(t, 0) && !math.IsNaN(t) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return "", false
	default:
		s := fmt.Sprint(v)
		return s, s != ""
	}
}

func hex32(u uuid.UUID) string {
	return hex.EncodeToString(u[:])
}
