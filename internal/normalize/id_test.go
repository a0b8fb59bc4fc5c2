package normalize

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFormats(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"uuid string with dashes", "816C5DCA-B5AA-4AE2-9AF9-FFA8D5FB3FAB", "816c5dcab5aa4ae29af9ffa8d5fb3fab", true},
		{"32-hex trace id unchanged", "4bf92f3577b34da6a3ce929d0e0e4736", "4bf92f3577b34da6a3ce929d0e0e4736", true},
		{"16-hex span id unchanged", "00f067aa0ba902b7", "00f067aa0ba902b7", true},
		{"vendor-native id unchanged", "req_Xyz-123", "req_Xyz-123", true},
		{"int", 12345, "12345", true},
		{"int64", int64(-8), "-8", true},
		{"json float id", float64(42), "42", true},
		{"fractional float rejected", 1.5, "", false},
		{"bool is not an identifier", true, "", false},
		{"nil", nil, "", false},
		{"empty string", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ID(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIDFromUUIDValue(t *testing.T) {
	u := uuid.MustParse("816c5dca-b5aa-4ae2-9af9-ffa8d5fb3fab")

	got, ok := ID(u)
	require.True(t, ok)
	assert.Equal(t, "816c5dcab5aa4ae29af9ffa8d5fb3fab", got)
	assert.Len(t, got, 32)
	assert.NotContains(t, got, "-")

	_, ok = ID(uuid.Nil)
	assert.False(t, ok)
}
