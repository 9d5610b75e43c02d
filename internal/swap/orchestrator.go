// Package swap drives a single gasless swap from intent to finality:
// wallet connection, local quote, aggregator approval call data, the
// approval user operation, then the swap user operation, each awaited
// to a receipt in strict order.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bizk/ERC20-gasless-swap/internal/aa"
	"github.com/bizk/ERC20-gasless-swap/internal/dex"
	"github.com/bizk/ERC20-gasless-swap/internal/quote"
	"github.com/bizk/ERC20-gasless-swap/internal/tokens"
	"github.com/bizk/ERC20-gasless-swap/internal/util"
)

// ErrAttemptInFlight is returned when an owner already has an attempt
// in a non-terminal state. Two concurrent attempts would race their
// approvals against the same allowance.
var ErrAttemptInFlight = errors.New("an attempt is already in flight for this owner")

// ErrCancelled is returned when the user cancelled before submission.
var ErrCancelled = errors.New("attempt cancelled")

// ProxyClient is the aggregator proxy surface the orchestrator
// consumes. Satisfied by dex.Client over HTTP and dex.LocalClient
// in process.
type ProxyClient interface {
	GetApprovalData(ctx context.Context, tokenAddress, amount string) (*dex.CallData, error)
	GetSwapData(ctx context.Context, req dex.SwapRequest) (*dex.SwapCallResult, error)
}

// WalletConnector binds an owner address when the intent arrives
// without one.
type WalletConnector interface {
	Connect(ctx context.Context) (ecommon.Address, error)
}

// Result is the record returned for a confirmed swap.
type Result struct {
	TxHash      string
	FromAddress string
	ToAddress   string
	Fee         string
	ExplorerURL string
}

type Config struct {
	// ChainID for swap call data requests. Defaults to mainnet.
	ChainID int
	// ReceiptTimeout bounds each receipt poll. The underlying
	// operation is not retracted by a client-side timeout.
	ReceiptTimeout time.Duration
	// ExplorerURLBase prefixes the confirmed transaction hash.
	ExplorerURLBase string
	// FeeRatePercent for the local quote. Defaults to the platform fee.
	FeeRatePercent decimal.Decimal
}

type Orchestrator struct {
	cfg       Config
	directory *tokens.Directory
	proxy     ProxyClient
	adapter   aa.Adapter
	connector WalletConnector
	logger    *logrus.Logger

	mu     sync.Mutex
	active map[ecommon.Address]*Attempt
}

func NewOrchestrator(
	cfg Config,
	directory *tokens.Directory,
	proxy ProxyClient,
	adapter aa.Adapter,
	connector WalletConnector,
	logger *logrus.Logger,
) *Orchestrator {
	if cfg.ChainID == 0 {
		cfg.ChainID = dex.DefaultChainID
	}
	if cfg.ReceiptTimeout == 0 {
		cfg.ReceiptTimeout = 2 * time.Minute
	}
	if cfg.ExplorerURLBase == "" {
		cfg.ExplorerURLBase = "https://etherscan.io/tx/"
	}
	if cfg.FeeRatePercent.IsZero() {
		cfg.FeeRatePercent = quote.DefaultFeeRatePercent
	}
	return &Orchestrator{
		cfg:       cfg,
		directory: directory,
		proxy:     proxy,
		adapter:   adapter,
		connector: connector,
		logger:    logger,
		active:    make(map[ecommon.Address]*Attempt),
	}
}

// Run drives one attempt to a terminal state. Operations within an
// attempt are totally ordered: connect, quote, approve submit, approve
// receipt, swap submit, swap receipt. The swap call data is never
// requested before the approval receipt resolves successfully.
func (o *Orchestrator) Run(ctx context.Context, attempt *Attempt) (*Result, error) {
	log := o.logger.WithFields(logrus.Fields{
		"pkg":     "swap.Orchestrator",
		"attempt": attempt.ID.String(),
	})

	owner := attempt.Intent.Owner

	// Bind an owner first. The pending intent is this attempt itself,
	// so the flow resumes automatically once the connection succeeds;
	// the user does not confirm again.
	if owner == (ecommon.Address{}) {
		attempt.setState(StateConnecting)
		connected, err := o.connector.Connect(ctx)
		if err != nil {
			return nil, attempt.fail(ReasonWalletConnectionFailed, err)
		}
		owner = connected
		attempt.mu.Lock()
		attempt.Intent.Owner = owner
		attempt.mu.Unlock()
		attempt.record(EventConnected)
		log.WithField("owner", owner.Hex()).Info("wallet connected")
	}

	// Refused, not failed: the in-flight attempt keeps its state and
	// this one never starts.
	if err := o.register(owner, attempt); err != nil {
		return nil, err
	}
	defer o.unregister(owner)

	if attempt.isCancelled() {
		return nil, attempt.fail(ReasonCancelled, ErrCancelled)
	}

	// Quote against the directory at confirmation time, so the quote
	// can never be stale relative to the intent being executed.
	src, err := o.directory.Get(attempt.Intent.FromToken)
	if err != nil {
		return nil, attempt.fail(ReasonInvalidRequest, err)
	}
	dst, err := o.directory.Get(attempt.Intent.ToToken)
	if err != nil {
		return nil, attempt.fail(ReasonInvalidRequest, err)
	}

	q, err := quote.Compute(src, dst, attempt.Intent.Amount, o.cfg.FeeRatePercent)
	if err != nil {
		return nil, attempt.fail(ReasonInvalidRequest, err)
	}
	attempt.setQuote(q)
	attempt.setState(StateQuoted)
	attempt.record(EventQuoted)

	baseAmount, err := util.ToBaseUnits(attempt.Intent.Amount, src.Decimals)
	if err != nil {
		return nil, attempt.fail(ReasonInvalidRequest, err)
	}

	account, err := o.adapter.DeriveAccount(ctx, owner)
	if err != nil {
		return nil, attempt.fail(ReasonTransportError, err)
	}

	if attempt.isCancelled() {
		return nil, attempt.fail(ReasonCancelled, ErrCancelled)
	}

	// Native source assets carry no ERC-20 allowance, so the approval
	// stage only runs for token sources.
	if !src.IsNative() {
		if err := o.runApproval(ctx, attempt, account, src, baseAmount); err != nil {
			return nil, err
		}
	}

	return o.runSwap(ctx, attempt, account, baseAmount)
}

func (o *Orchestrator) runApproval(
	ctx context.Context,
	attempt *Attempt,
	account aa.Account,
	src tokens.Token,
	baseAmount *big.Int,
) error {
	log := o.logger.WithFields(logrus.Fields{
		"pkg":     "swap.Orchestrator",
		"attempt": attempt.ID.String(),
	})

	attempt.setState(StateApproving)

	callData, err := o.proxy.GetApprovalData(ctx, src.Address.Hex(), baseAmount.String())
	if err != nil {
		return attempt.fail(ReasonApprovalSubmissionFailed, err)
	}

	call, err := parseCallData(callData.To, callData.Data, callData.Value)
	if err != nil {
		return attempt.fail(ReasonApprovalSubmissionFailed, err)
	}

	handle, err := o.adapter.SubmitOperation(ctx, account, []aa.CallData{call})
	if err != nil {
		return attempt.fail(ReasonApprovalSubmissionFailed, err)
	}
	attempt.recordApprovalSubmit(handle)
	log.WithField("handle", string(handle)).Info("approval submitted")

	receipt, err := o.adapter.AwaitReceipt(ctx, handle, o.cfg.ReceiptTimeout)
	if err != nil {
		if errors.Is(err, aa.ErrReceiptTimeout) {
			return attempt.fail(ReasonReceiptTimeout, err)
		}
		return attempt.fail(ReasonTransportError, err)
	}
	if !receipt.Success {
		return attempt.fail(ReasonApprovalReverted,
			fmt.Errorf("approval reverted: %s", receipt.RevertReason))
	}
	attempt.record(EventApprovalReceiptSuccess)
	log.WithField("txHash", receipt.TxHash).Info("approval confirmed")

	return nil
}

func (o *Orchestrator) runSwap(
	ctx context.Context,
	attempt *Attempt,
	account aa.Account,
	baseAmount *big.Int,
) (*Result, error) {
	log := o.logger.WithFields(logrus.Fields{
		"pkg":     "swap.Orchestrator",
		"attempt": attempt.ID.String(),
	})

	attempt.setState(StateSwapping)

	result, err := o.proxy.GetSwapData(ctx, dex.SwapRequest{
		From:     account.Address.Hex(),
		TokenSrc: attempt.Intent.FromToken,
		TokenDst: attempt.Intent.ToToken,
		Amount:   baseAmount.String(),
		ChainID:  o.cfg.ChainID,
		Slippage: attempt.Intent.SlippagePercent,
	})
	if err != nil {
		return nil, attempt.fail(ReasonSwapSubmissionFailed, err)
	}

	call, err := parseCallData(result.Tx.To, result.Tx.Data, result.Tx.Value)
	if err != nil {
		return nil, attempt.fail(ReasonSwapSubmissionFailed, err)
	}

	handle, err := o.adapter.SubmitOperation(ctx, account, []aa.CallData{call})
	if err != nil {
		return nil, attempt.fail(ReasonSwapSubmissionFailed, err)
	}
	attempt.recordSwapSubmit(handle)
	log.WithField("handle", string(handle)).Info("swap submitted")

	receipt, err := o.adapter.AwaitReceipt(ctx, handle, o.cfg.ReceiptTimeout)
	if err != nil {
		if errors.Is(err, aa.ErrReceiptTimeout) {
			return nil, attempt.fail(ReasonReceiptTimeout, err)
		}
		return nil, attempt.fail(ReasonTransportError, err)
	}
	if !receipt.Success {
		return nil, attempt.fail(ReasonSwapReverted,
			fmt.Errorf("swap reverted: %s", receipt.RevertReason))
	}
	attempt.record(EventSwapReceiptSuccess)
	attempt.setState(StateConfirmed)
	log.WithField("txHash", receipt.TxHash).Info("swap confirmed")

	return &Result{
		TxHash:      receipt.TxHash,
		FromAddress: account.Address.Hex(),
		ToAddress:   account.Address.Hex(),
		Fee:         attempt.Quote().FeeDisplay(),
		ExplorerURL: o.cfg.ExplorerURLBase + receipt.TxHash,
	}, nil
}

// register refuses a second non-terminal attempt for the same owner.
func (o *Orchestrator) register(owner ecommon.Address, attempt *Attempt) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.active[owner]; ok && !existing.State().Terminal() {
		return ErrAttemptInFlight
	}
	o.active[owner] = attempt
	return nil
}

func (o *Orchestrator) unregister(owner ecommon.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, owner)
}

// parseCallData converts the proxy wire form into a submittable call.
// The data payload stays opaque; only the encoding is validated.
func parseCallData(to, data, value string) (aa.CallData, error) {
	if !ecommon.IsHexAddress(to) {
		return aa.CallData{}, fmt.Errorf("invalid call target: %q", to)
	}

	payload, err := hexutil.Decode(data)
	if err != nil {
		return aa.CallData{}, fmt.Errorf("invalid call data: %w", err)
	}

	callValue := big.NewInt(0)
	if value != "" {
		parsed, ok := new(big.Int).SetString(value, 10)
		if !ok {
			return aa.CallData{}, fmt.Errorf("invalid call value: %q", value)
		}
		callValue = parsed
	}

	return aa.CallData{
		To:    ecommon.HexToAddress(to),
		Data:  payload,
		Value: callValue,
	}, nil
}
