package coercer

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce_AcceptedValues(t *testing.T) {
	c := NewNumericCoercer(DefaultCoercionConfig())

	tests := []struct {
		name     string
		input    interface{}
		expected float64
	}{
		{"decimal string", "500.0", 500},
		{"padded string", "  12.5 ", 12.5},
		{"scientific", "1e3", 1000},
		{"negative", "-3", -3},
		{"float64", 1500.0, 1500},
		{"int", 42, 42},
		{"int64", int64(7), 7},
		{"json number", json.Number("0.25"), 0.25},
		{"bytes", []byte("88"), 88},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Coerce(tt.input)
			assert.True(t, ok)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestCoerce_RejectedValues(t *testing.T) {
	c := NewNumericCoercer(DefaultCoercionConfig())

	inputs := []interface{}{
		nil,
		"",
		"   ",
		"abc",
		"1,000",
		">10000",
		"0x1p3",
		"-0X1.8p1",
		json.Number("0x1p3"),
		"NaN",
		math.NaN(),
		math.Inf(1),
		"inf",
		true,
		[]string{"1"},
		(*string)(nil),
	}

	for _, in := range inputs {
		_, ok := c.Coerce(in)
		assert.False(t, ok, "expected %#v to be rejected", in)
	}
}

func TestCoerce_AllowInfinite(t *testing.T) {
	c := NewNumericCoercer(CoercionConfig{TrimSpace: true, AllowInfinite: true})
	got, ok := c.Coerce("+Inf")
	assert.True(t, ok)
	assert.True(t, math.IsInf(got, 1))
}

func TestAnalyze(t *testing.T) {
	c := NewNumericCoercer(DefaultCoercionConfig())
	a := c.Analyze([]interface{}{"1", 2.0, nil, "", "bad", "3e2"})

	assert.Equal(t, 6, a.TotalCount)
	assert.Equal(t, 3, a.NumericCount)
	assert.Equal(t, 2, a.MissingCount)
	assert.Equal(t, 1, a.MalformedCount)
	assert.InDelta(t, 0.5, a.NumericRatio, 1e-12)
	assert.Equal(t, "3/6 numeric (2 missing, 1 malformed)", a.String())
}
