package aa

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20AllowanceABI = `[{
	"type": "function",
	"name": "allowance",
	"stateMutability": "view",
	"inputs": [
		{"name": "owner", "type": "address"},
		{"name": "spender", "type": "address"}
	],
	"outputs": [{"name": "", "type": "uint256"}]
}]`

// AllowanceService reads current ERC-20 allowances over the chain read
// RPC. Callers layering retry policies use it to avoid resubmitting an
// approval the chain already holds.
type AllowanceService struct {
	rpc      *ethclient.Client
	erc20ABI abi.ABI
}

func NewAllowanceService(rpc *ethclient.Client) (*AllowanceService, error) {
	erc20ABI, err := abi.JSON(strings.NewReader(erc20AllowanceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}
	return &AllowanceService{rpc: rpc, erc20ABI: erc20ABI}, nil
}

// NeedsApproval reports whether the current allowance from owner to
// spender is below amount.
func (a *AllowanceService) NeedsApproval(
	ctx context.Context,
	token, owner, spender ecommon.Address,
	amount *big.Int,
) (bool, error) {
	data, err := a.erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return false, fmt.Errorf("failed to pack allowance call: %w", err)
	}

	raw, err := a.rpc.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check allowance: %w", err)
	}

	out, err := a.erc20ABI.Unpack("allowance", raw)
	if err != nil {
		return false, fmt.Errorf("failed to unpack allowance: %w", err)
	}
	if len(out) != 1 {
		return false, fmt.Errorf("unexpected allowance output length: %d", len(out))
	}
	current, ok := out[0].(*big.Int)
	if !ok {
		return false, fmt.Errorf("unexpected allowance output type: %T", out[0])
	}

	return current.Cmp(amount) < 0, nil
}
