package util

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
		wantErr  bool
	}{
		{name: "whole amount", amount: "10", decimals: 6, want: "10000000"},
		{name: "fractional amount", amount: "0.0001", decimals: 18, want: "100000000000000"},
		{name: "full precision", amount: "1.234567", decimals: 6, want: "1234567"},
		{name: "excess precision truncated", amount: "1.2345678", decimals: 6, want: "1234567"},
		{name: "zero", amount: "0", decimals: 18, want: "0"},
		{name: "negative", amount: "-2.5", decimals: 6, want: "-2500000"},
		{name: "empty", amount: "", decimals: 6, wantErr: true},
		{name: "not a number", amount: "ten", decimals: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals int
		want     string
	}{
		{name: "whole amount", amount: big.NewInt(10000000), decimals: 6, want: "10"},
		{name: "fractional amount", amount: big.NewInt(223876), decimals: 6, want: "0.223876"},
		{name: "nil amount", amount: nil, decimals: 6, want: "0"},
		{name: "negative", amount: big.NewInt(-2500000), decimals: 6, want: "-2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FromBaseUnits(tt.amount, tt.decimals))
		})
	}
}

func TestBaseUnitsRoundTrip(t *testing.T) {
	amounts := []string{"1", "0.5", "123.456", "0.000001"}
	for _, amount := range amounts {
		base, err := ToBaseUnits(amount, 6)
		require.NoError(t, err)
		require.Equal(t, amount, FromBaseUnits(base, 6))
	}
}
