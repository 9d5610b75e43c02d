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

const erc20BalanceOfABI = `[{
	"type": "function",
	"name": "balanceOf",
	"stateMutability": "view",
	"inputs": [{"name": "account", "type": "address"}],
	"outputs": [{"name": "", "type": "uint256"}]
}]`

// BalanceService reads native and ERC-20 balances over the chain read
// RPC.
type BalanceService struct {
	rpc      *ethclient.Client
	erc20ABI abi.ABI
}

func NewBalanceService(rpc *ethclient.Client) (*BalanceService, error) {
	erc20ABI, err := abi.JSON(strings.NewReader(erc20BalanceOfABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}
	return &BalanceService{rpc: rpc, erc20ABI: erc20ABI}, nil
}

func (s *BalanceService) GetNativeBalance(ctx context.Context, address ecommon.Address) (*big.Int, error) {
	balance, err := s.rpc.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get native balance: %w", err)
	}
	return balance, nil
}

func (s *BalanceService) GetERC20Balance(ctx context.Context, token, owner ecommon.Address) (*big.Int, error) {
	data, err := s.erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	raw, err := s.rpc.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get ERC20 balance: %w", err)
	}

	out, err := s.erc20ABI.Unpack("balanceOf", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected balanceOf output length: %d", len(out))
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf output type: %T", out[0])
	}

	return balance, nil
}
