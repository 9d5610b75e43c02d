// Package quote computes local swap estimates from advisory token prices.
// It never touches the network; execution pricing comes from the aggregator.
package quote

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bizk/ERC20-gasless-swap/internal/tokens"
)

const (
	// amountPrecision is the display precision for token amounts.
	amountPrecision = 6
	// feePrecision is the display precision for the fee in quote currency.
	feePrecision = 2
)

// DefaultFeeRatePercent is the platform fee applied to quotes.
var DefaultFeeRatePercent = decimal.RequireFromString("0.3")

// Quote is a pure estimate derived from two tokens and an amount.
// It is recomputed whole on every input change, never mutated.
type Quote struct {
	// DestinationAmount is the estimated output, rounded to display
	// precision after the full expression is evaluated.
	DestinationAmount decimal.Decimal
	// FeeAmount is the fee in quote currency, unrounded.
	FeeAmount decimal.Decimal
	// Rate is source price over destination price, unrounded.
	Rate decimal.Decimal
}

// FeeDisplay returns the fee formatted for display.
func (q Quote) FeeDisplay() string {
	return q.FeeAmount.StringFixed(feePrecision)
}

// Compute derives a Quote from the token pair and a human-unit amount.
// Rounding is applied only after the full expression is evaluated so
// intermediate rounding error cannot compound.
func Compute(src, dst tokens.Token, amount string, feeRatePercent decimal.Decimal) (Quote, error) {
	sourceAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return Quote{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if !sourceAmount.IsPositive() {
		return Quote{}, fmt.Errorf("amount must be positive, got %s", sourceAmount)
	}
	if src.Price.IsZero() || dst.Price.IsZero() {
		return Quote{}, fmt.Errorf("missing reference price for pair %s/%s", src.Symbol, dst.Symbol)
	}

	hundred := decimal.NewFromInt(100)
	feeFraction := feeRatePercent.Div(hundred)

	value := sourceAmount.Mul(src.Price)
	rawOutput := value.Div(dst.Price)

	return Quote{
		DestinationAmount: rawOutput.Mul(decimal.NewFromInt(1).Sub(feeFraction)).Round(amountPrecision),
		FeeAmount:         value.Mul(feeFraction),
		Rate:              src.Price.Div(dst.Price),
	}, nil
}
