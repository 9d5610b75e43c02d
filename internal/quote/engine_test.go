package quote

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bizk/ERC20-gasless-swap/internal/tokens"
)

func token(symbol, price string) tokens.Token {
	return tokens.Token{
		Symbol:   symbol,
		Decimals: 18,
		Price:    decimal.RequireFromString(price),
	}
}

func TestComputeEthToDai(t *testing.T) {
	eth := token("eth", "2245.50")
	dai := token("dai", "1.00")

	q, err := Compute(eth, dai, "0.0001", DefaultFeeRatePercent)
	require.NoError(t, err)

	// 0.0001 * 2245.50 = 0.22455; after 0.3% fee = 0.22387635
	require.True(t, q.DestinationAmount.Equal(decimal.RequireFromString("0.223876")),
		"destination amount = %s", q.DestinationAmount)

	// fee = 0.22455 * 0.003 = 0.00067365
	diff := q.FeeAmount.Sub(decimal.RequireFromString("0.00067")).Abs()
	require.True(t, diff.LessThan(decimal.RequireFromString("0.00001")),
		"fee amount = %s", q.FeeAmount)

	require.True(t, q.Rate.Equal(decimal.RequireFromString("2245.5")),
		"rate = %s", q.Rate)
}

func TestComputeIsDeterministic(t *testing.T) {
	eth := token("eth", "2245.50")
	usdc := token("usdc", "1.00")

	first, err := Compute(eth, usdc, "1.5", DefaultFeeRatePercent)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Compute(eth, usdc, "1.5", DefaultFeeRatePercent)
		require.NoError(t, err)
		require.True(t, first.DestinationAmount.Equal(again.DestinationAmount))
		require.True(t, first.FeeAmount.Equal(again.FeeAmount))
		require.True(t, first.Rate.Equal(again.Rate))
	}
}

func TestComputeFeeMonotonicity(t *testing.T) {
	eth := token("eth", "2245.50")
	dai := token("dai", "1.00")

	rates := []string{"0", "0.1", "0.3", "1", "5"}
	var prev decimal.Decimal
	for i, rate := range rates {
		q, err := Compute(eth, dai, "2", decimal.RequireFromString(rate))
		require.NoError(t, err)
		if i > 0 {
			require.True(t, q.DestinationAmount.LessThan(prev),
				"destination amount must decrease as fee rate increases: %s >= %s at rate %s",
				q.DestinationAmount, prev, rate)
		}
		prev = q.DestinationAmount
	}
}

func TestComputeRateIsReciprocalOnFlip(t *testing.T) {
	eth := token("eth", "2245.50")
	link := token("link", "14.85")

	forward, err := Compute(eth, link, "1", DefaultFeeRatePercent)
	require.NoError(t, err)

	backward, err := Compute(link, eth, "1", DefaultFeeRatePercent)
	require.NoError(t, err)

	product := forward.Rate.Mul(backward.Rate)
	diff := product.Sub(decimal.NewFromInt(1)).Abs()
	require.True(t, diff.LessThan(decimal.RequireFromString("0.0000001")),
		"forward rate * backward rate = %s", product)
}

func TestComputeRejectsBadInput(t *testing.T) {
	eth := token("eth", "2245.50")
	dai := token("dai", "1.00")

	tests := []struct {
		name   string
		amount string
	}{
		{name: "zero amount", amount: "0"},
		{name: "negative amount", amount: "-1"},
		{name: "not a number", amount: "abc"},
		{name: "empty", amount: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(eth, dai, tt.amount, DefaultFeeRatePercent)
			require.Error(t, err)
		})
	}
}

func TestComputeRejectsMissingPrice(t *testing.T) {
	eth := token("eth", "2245.50")
	unknown := tokens.Token{Symbol: "mystery"}

	_, err := Compute(eth, unknown, "1", DefaultFeeRatePercent)
	require.Error(t, err)
}

func TestFeeDisplay(t *testing.T) {
	eth := token("eth", "2000")
	dai := token("dai", "1.00")

	q, err := Compute(eth, dai, "1", DefaultFeeRatePercent)
	require.NoError(t, err)
	// 2000 * 0.003 = 6
	require.Equal(t, "6.00", q.FeeDisplay())
}
