package aa

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
)

// EntryPointV07 is the canonical v0.7 entrypoint the bundler executes
// user operations against.
const EntryPointV07 = "0x0000000071727De22E5E9d8BAf0edAc6f37da032"

const receiptPollInterval = 2 * time.Second

const executeBatchABI = `[{
	"type": "function",
	"name": "executeBatch",
	"inputs": [
		{"name": "targets", "type": "address[]"},
		{"name": "values", "type": "uint256[]"},
		{"name": "datas", "type": "bytes[]"}
	]
}]`

// Config carries the bundler/paymaster endpoint and the account factory
// used for address derivation.
type Config struct {
	BundlerURL     string `envconfig:"BUNDLER_URL" required:"true"`
	EntryPoint     string `envconfig:"ENTRY_POINT" default:"0x0000000071727De22E5E9d8BAf0edAc6f37da032"`
	AccountFactory string `envconfig:"ACCOUNT_FACTORY" default:"0x9406Cc6185a346906296840746125a0E44976454"`
}

// Bundler is the Adapter implementation backed by an ERC-4337
// bundler/paymaster RPC endpoint.
type Bundler struct {
	client     *rpc.Client
	entryPoint ecommon.Address
	factory    ecommon.Address
	batchABI   abi.ABI
	logger     *logrus.Logger

	mu       sync.Mutex
	accounts map[ecommon.Address]Account
}

func NewBundler(ctx context.Context, cfg Config, logger *logrus.Logger) (*Bundler, error) {
	client, err := rpc.DialContext(ctx, cfg.BundlerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bundler: %w", err)
	}

	batchABI, err := abi.JSON(strings.NewReader(executeBatchABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse executeBatch ABI: %w", err)
	}

	entryPoint := cfg.EntryPoint
	if entryPoint == "" {
		entryPoint = EntryPointV07
	}

	return &Bundler{
		client:     client,
		entryPoint: ecommon.HexToAddress(entryPoint),
		factory:    ecommon.HexToAddress(cfg.AccountFactory),
		batchABI:   batchABI,
		logger:     logger,
		accounts:   make(map[ecommon.Address]Account),
	}, nil
}

// DeriveAccount computes the counterfactual smart account address for an
// owner. The CREATE2 derivation is a pure function of factory and owner,
// so deriving twice always agrees; results are cached read-mostly.
func (b *Bundler) DeriveAccount(_ context.Context, owner ecommon.Address) (Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if account, ok := b.accounts[owner]; ok {
		return account, nil
	}

	var salt [32]byte
	copy(salt[12:], owner.Bytes())

	initCodeHash := crypto.Keccak256(b.factory.Bytes(), owner.Bytes())

	payload := make([]byte, 0, 1+20+32+32)
	payload = append(payload, 0xff)
	payload = append(payload, b.factory.Bytes()...)
	payload = append(payload, salt[:]...)
	payload = append(payload, initCodeHash...)

	account := Account{
		Owner:   owner,
		Address: ecommon.BytesToAddress(crypto.Keccak256(payload)[12:]),
	}
	b.accounts[owner] = account

	b.logger.WithFields(logrus.Fields{
		"pkg":     "aa.Bundler",
		"owner":   owner.Hex(),
		"account": account.Address.Hex(),
	}).Info("derived smart account")

	return account, nil
}

type userOperation struct {
	Sender   string `json:"sender"`
	CallData string `json:"callData"`
}

// SubmitOperation batches the calls into a single user operation and
// hands it to the bundler. Gas fields are left to the paymaster
// sponsorship flow on the bundler side.
func (b *Bundler) SubmitOperation(ctx context.Context, account Account, calls []CallData) (OperationHandle, error) {
	if len(calls) == 0 {
		return "", fmt.Errorf("no calls to submit")
	}

	callData, err := b.packBatch(calls)
	if err != nil {
		return "", fmt.Errorf("failed to pack calls: %w", err)
	}

	op := userOperation{
		Sender:   account.Address.Hex(),
		CallData: hexutil.Encode(callData),
	}

	var opHash string
	err = b.client.CallContext(ctx, &opHash, "eth_sendUserOperation", op, b.entryPoint.Hex())
	if err != nil {
		return "", fmt.Errorf("failed to submit user operation: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"pkg":     "aa.Bundler",
		"account": account.Address.Hex(),
		"opHash":  opHash,
		"calls":   len(calls),
	}).Info("submitted user operation")

	return OperationHandle(opHash), nil
}

func (b *Bundler) packBatch(calls []CallData) ([]byte, error) {
	targets := make([]ecommon.Address, len(calls))
	values := make([]*big.Int, len(calls))
	datas := make([][]byte, len(calls))
	for i, call := range calls {
		targets[i] = call.To
		values[i] = call.Value
		if values[i] == nil {
			values[i] = big.NewInt(0)
		}
		datas[i] = call.Data
	}
	return b.batchABI.Pack("executeBatch", targets, values, datas)
}

type operationReceipt struct {
	Success bool            `json:"success"`
	Reason  string          `json:"reason"`
	Receipt json.RawMessage `json:"receipt"`
}

type txReceipt struct {
	TransactionHash string `json:"transactionHash"`
}

// AwaitReceipt polls the bundler until the operation resolves or the
// timeout elapses. A timeout does not retract the operation; it may
// still land on chain after ErrReceiptTimeout is returned.
func (b *Bundler) AwaitReceipt(ctx context.Context, handle OperationHandle, timeout time.Duration) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var receipt *Receipt
	poll := func() error {
		found, err := b.getReceipt(ctx, handle)
		if err != nil {
			return backoff.Permanent(err)
		}
		if found == nil {
			return fmt.Errorf("receipt not available yet for %s", handle)
		}
		receipt = found
		return nil
	}

	err := backoff.Retry(poll, backoff.WithContext(backoff.NewConstantBackOff(receiptPollInterval), ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrReceiptTimeout
		}
		return nil, fmt.Errorf("failed to poll receipt: %w", err)
	}

	return receipt, nil
}

func (b *Bundler) getReceipt(ctx context.Context, handle OperationHandle) (*Receipt, error) {
	var raw *operationReceipt
	err := b.client.CallContext(ctx, &raw, "eth_getUserOperationReceipt", string(handle))
	if err != nil {
		return nil, fmt.Errorf("failed to get user operation receipt: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var inner txReceipt
	if len(raw.Receipt) > 0 {
		if err := json.Unmarshal(raw.Receipt, &inner); err != nil {
			return nil, fmt.Errorf("failed to decode transaction receipt: %w", err)
		}
	}

	return &Receipt{
		Success:      raw.Success,
		TxHash:       inner.TransactionHash,
		RevertReason: raw.Reason,
	}, nil
}
