// Package aa submits batched calls through an account-abstraction
// bundler with sponsored gas and polls them to a receipt.
package aa

import (
	"context"
	"errors"
	"math/big"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"
)

// ErrReceiptTimeout is returned when a user operation did not produce a
// receipt within the caller's timeout. The operation is not retracted by
// the timeout and may still land on chain afterwards.
var ErrReceiptTimeout = errors.New("timed out waiting for user operation receipt")

// CallData is an unsigned contract call descriptor. It is submitted
// verbatim, never inspected or mutated.
type CallData struct {
	To    ecommon.Address
	Data  []byte
	Value *big.Int
}

// OperationHandle identifies a submitted user operation.
type OperationHandle string

// Receipt is the terminal outcome of a user operation.
type Receipt struct {
	Success      bool
	TxHash       string
	RevertReason string
}

// Account is a smart account derived for an owner key. Derivation is
// deterministic: the same owner always yields the same address.
type Account struct {
	Owner   ecommon.Address
	Address ecommon.Address
}

// Adapter is the capability the orchestrator consumes. Implementations
// must be swappable for an in-memory fake with deterministic handles and
// receipts.
type Adapter interface {
	DeriveAccount(ctx context.Context, owner ecommon.Address) (Account, error)
	SubmitOperation(ctx context.Context, account Account, calls []CallData) (OperationHandle, error)
	AwaitReceipt(ctx context.Context, handle OperationHandle, timeout time.Duration) (*Receipt, error)
}
