package cny

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		amount string
		want   string
		signed string
	}{
		{"2000", "¥2,000.00", "+¥2,000.00"},
		{"1234567.891", "¥1,234,567.89", "+¥1,234,567.89"},
		{"-55.5", "-¥55.50", "-¥55.50"},
		{"0", "¥0.00", "¥0.00"},
		{"0.004", "¥0.00", "¥0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.want, Format(amount))
			assert.Equal(t, tt.signed, FormatSigned(amount))
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   string
	}{
		{"base unit", 1000, "¥1,000.00"},
		{"holding value", 12345.678, "¥12,345.68"},
		{"zero holding", 0, "¥0.00"},
		{"sub fen", 0.004, "¥0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.amount))
		})
	}
}
