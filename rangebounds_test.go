package searchql

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeBounds(t *testing.T) {
	tests := []struct {
		payload      string
		lower, upper any
	}{
		{payload: `[10,20]`, lower: int64(10), upper: int64(20)},
		{payload: `[ -1.5 , 2e3 ]`, lower: -1.5, upper: 2000.0},
		{payload: `[1.0,2]`, lower: 1.0, upper: int64(2)},
		{payload: `["a","m"]`, lower: "a", upper: "m"},
		{payload: `[null,5]`, lower: nil, upper: int64(5)},
		{payload: `[5,null]`, lower: int64(5), upper: nil},
		{payload: `[20,10]`, lower: int64(20), upper: int64(10)},
		{payload: `["2020-01-01",2024]`, lower: "2020-01-01", upper: int64(2024)},
		{payload: `[9007199254740993,9007199254740995]`, lower: int64(9007199254740993), upper: int64(9007199254740995)},
		{payload: `[-9223372036854775808,9223372036854775807]`, lower: int64(-9223372036854775808), upper: int64(9223372036854775807)},
		{payload: `[0,99999999999999999999]`, lower: int64(0), upper: 1e20},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			lower, upper, err := NewRange(tt.payload).Bounds()
			require.NoError(t, err)
			assert.Equal(t, tt.lower, lower)
			assert.Equal(t, tt.upper, upper)
		})
	}
}

func TestRangeBoundsMalformed(t *testing.T) {
	tests := []struct {
		payload string
		reason  string
	}{
		{payload: `[10]`, reason: "expected 2 bounds, got 1"},
		{payload: `[]`, reason: "expected 2 bounds, got 0"},
		{payload: `[1,2,3]`, reason: "expected 2 bounds, got 3"},
		{payload: `10`, reason: "payload is not an array"},
		{payload: `{"lower":1}`, reason: "payload is not an array"},
		{payload: `[true,2]`, reason: "unsupported bound type true"},
		{payload: `[1,[2]]`, reason: "unsupported bound type array"},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			lower, upper, err := NewRange(tt.payload).Bounds()
			require.Error(t, err)
			assert.Nil(t, lower)
			assert.Nil(t, upper)
			assert.True(t, errors.Is(err, ErrMalformedRange))

			var mre *MalformedRangeError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, tt.payload, mre.Token)
			assert.Equal(t, tt.reason, mre.Reason)
		})
	}

	t.Run("not json", func(t *testing.T) {
		_, _, err := NewRange("1..5").Bounds()
		assert.True(t, errors.Is(err, ErrMalformedRange))
	})
}
