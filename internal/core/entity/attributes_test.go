package entity

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDecimal(t *testing.T) {
	cases := []struct {
		name  string
		attrs Attributes
		want  string
	}{
		{"json number", Attributes{"max": json.Number("20")}, "20"},
		{"int literal", Attributes{"max": 20}, "20"},
		{"int64 literal", Attributes{"max": int64(20)}, "20"},
		{"int32 literal", Attributes{"max": int32(20)}, "20"},
		{"float literal", Attributes{"max": 2.5}, "2.5"},
		{"string", Attributes{"max": "19.99"}, "19.99"},
		{"missing key", Attributes{"min": 1}, "0"},
		{"wrong type", Attributes{"max": true}, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want, err := decimal.NewFromString(tc.want)
			require.NoError(t, err)
			assert.True(t, tc.attrs.GetDecimal("max").Equal(want),
				"got %s, want %s", tc.attrs.GetDecimal("max"), tc.want)
		})
	}
}

func TestGetDecimal_ScanMatchesLiteral(t *testing.T) {
	var scanned Attributes
	require.NoError(t, scanned.Scan([]byte(`{"min": 0, "max": 20}`)))

	literal := Attributes{"min": 0, "max": 20}

	assert.True(t, scanned.GetDecimal("max").Equal(literal.GetDecimal("max")))
	assert.True(t, scanned.GetDecimal("min").Equal(literal.GetDecimal("min")))
	assert.True(t, literal.GetDecimal("max").Equal(decimal.NewFromInt(20)))
}
