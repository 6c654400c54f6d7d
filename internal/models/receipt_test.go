package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2,91", "2.91"},
		{"2.91", "2.91"},
		{"-1,00", "-1.00"},
		{"12,30 €", "12.30"},
		{"12,30 EUR", "12.30"},
		{" 0,97 ", "0.97"},
		{"garbage", "0"},
		{"", "0"},
	}
	for _, tt := range tests {
		assert.True(t, ParseAmount(tt.in).Equal(decimal.RequireFromString(tt.want)),
			"%q -> want %s, got %s", tt.in, tt.want, ParseAmount(tt.in))
	}
}

func TestLineSum_PromoSigned(t *testing.T) {
	r := Receipt{Lines: []LineItem{
		{Kind: LineKindUnit, Total: decimal.RequireFromString("2.91")},
		{Kind: LineKindWeight, Total: decimal.RequireFromString("1.17")},
		{Kind: LineKindPromo, Total: decimal.RequireFromString("-1.00")},
	}}

	assert.True(t, r.LineSum().Equal(decimal.RequireFromString("3.08")))
}

func TestIsPromo(t *testing.T) {
	assert.True(t, LineItem{Kind: LineKindPromo}.IsPromo())
	assert.False(t, LineItem{Kind: LineKindUnit}.IsPromo())
	assert.False(t, LineItem{Kind: LineKindWeight}.IsPromo())
}
