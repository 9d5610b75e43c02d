package util

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a human-readable amount to base units,
// e.g. "10" USDC (6 decimals) -> 10000000. Excess fractional digits
// beyond the token's precision are truncated.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// FromBaseUnits converts base units to a human-readable amount,
// e.g. 10000000 with 6 decimals -> "10".
func FromBaseUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
