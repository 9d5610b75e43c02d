package tokens

import (
	"fmt"
	"strings"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// NativeTokenAddress is the sentinel the aggregator uses for the chain's
// native asset. Native-asset swaps need no ERC-20 approval.
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// Token is immutable once loaded into a Directory. Price is an advisory
// reference price used only for local quoting, never for execution.
type Token struct {
	Symbol   string
	Name     string
	Address  ecommon.Address
	Decimals int
	Price    decimal.Decimal
}

// IsNative reports whether the token is the chain's native asset.
func (t Token) IsNative() bool {
	return strings.EqualFold(t.Address.Hex(), NativeTokenAddress)
}

// Directory maps short token identifiers to canonical on-chain addresses.
type Directory struct {
	bySymbol map[string]Token
}

func NewDirectory(list []Token) *Directory {
	bySymbol := make(map[string]Token, len(list))
	for _, t := range list {
		bySymbol[strings.ToLower(t.Symbol)] = t
	}
	return &Directory{bySymbol: bySymbol}
}

// Default returns the directory of supported mainnet tokens.
func Default() *Directory {
	return NewDirectory([]Token{
		{
			Symbol:   "eth",
			Name:     "Ethereum",
			Address:  ecommon.HexToAddress(NativeTokenAddress),
			Decimals: 18,
			Price:    decimal.RequireFromString("2245.50"),
		},
		{
			Symbol:   "op",
			Name:     "Optimism",
			Address:  ecommon.HexToAddress("0x4200000000000000000000000000000000000042"),
			Decimals: 18,
			Price:    decimal.RequireFromString("1.58"),
		},
		{
			Symbol:   "usdt",
			Name:     "Tether",
			Address:  ecommon.HexToAddress("0x94b008aA00579c1307B0EF2c499aD98a8ce58e58"),
			Decimals: 6,
			Price:    decimal.RequireFromString("1.00"),
		},
		{
			Symbol:   "usdc",
			Name:     "USD Coin",
			Address:  ecommon.HexToAddress("0x514910771AF9Ca656af840dff83E8264EcF986CA"),
			Decimals: 6,
			Price:    decimal.RequireFromString("1.00"),
		},
		{
			Symbol:   "dai",
			Name:     "Dai Stablecoin",
			Address:  ecommon.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
			Decimals: 18,
			Price:    decimal.RequireFromString("1.00"),
		},
	})
}

// Get looks up a token by its short identifier.
func (d *Directory) Get(symbol string) (Token, error) {
	t, ok := d.bySymbol[strings.ToLower(symbol)]
	if !ok {
		return Token{}, fmt.Errorf("unknown token identifier: %s", symbol)
	}
	return t, nil
}

// Resolve maps a short identifier or a raw hex address to a canonical
// address. Unknown identifiers are a hard failure, never defaulted:
// a silently substituted address would misroute funds.
func (d *Directory) Resolve(identifierOrAddress string) (ecommon.Address, error) {
	if identifierOrAddress == "" {
		return ecommon.Address{}, fmt.Errorf("empty token identifier")
	}
	if ecommon.IsHexAddress(identifierOrAddress) {
		return ecommon.HexToAddress(identifierOrAddress), nil
	}
	t, err := d.Get(identifierOrAddress)
	if err != nil {
		return ecommon.Address{}, err
	}
	return t.Address, nil
}

// List returns all tokens in the directory.
func (d *Directory) List() []Token {
	list := make([]Token, 0, len(d.bySymbol))
	for _, t := range d.bySymbol {
		list = append(list, t)
	}
	return list
}
