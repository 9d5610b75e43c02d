package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/bizk/ERC20-gasless-swap/internal/aa"
	"github.com/bizk/ERC20-gasless-swap/internal/dex"
	"github.com/bizk/ERC20-gasless-swap/internal/graceful"
	"github.com/bizk/ERC20-gasless-swap/internal/logging"
	"github.com/bizk/ERC20-gasless-swap/internal/metrics"
	"github.com/bizk/ERC20-gasless-swap/internal/swap"
	"github.com/bizk/ERC20-gasless-swap/internal/tokens"
	"github.com/bizk/ERC20-gasless-swap/internal/util"
)

var (
	fromToken = flag.String("from", "", "source token identifier or address")
	toToken   = flag.String("to", "", "destination token identifier or address")
	amount    = flag.String("amount", "", "amount to swap, in human units of the source token")
	owner     = flag.String("owner", "", "wallet address driving the swap (falls back to WALLET_ADDRESS)")
	slippage  = flag.Int("slippage", 0, "slippage tolerance in whole percent, 0 for the aggregator default")
)

// envConnector binds the owner from configuration. The swap flow asks
// it for an address only when the intent arrives without one.
type envConnector struct {
	address string
}

func (c *envConnector) Connect(context.Context) (ecommon.Address, error) {
	if !ecommon.IsHexAddress(c.address) {
		return ecommon.Address{}, fmt.Errorf("no wallet address configured")
	}
	return ecommon.HexToAddress(c.address), nil
}

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	if *fromToken == "" || *toToken == "" || *amount == "" {
		logger.Fatal("-from, -to and -amount are required")
	}

	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceSwap}, logger)
	defer func() {
		if err := metricsServer.Stop(context.Background()); err != nil {
			logger.Errorf("failed to stop metrics server: %v", err)
		}
	}()
	swapMetrics := metrics.NewSwapMetrics()

	bundler, err := aa.NewBundler(ctx, cfg.Bundler, logger)
	if err != nil {
		logger.Fatalf("failed to connect to bundler: %v", err)
	}

	directory := tokens.Default()
	orchestrator := swap.NewOrchestrator(
		swap.Config{
			ChainID:        cfg.ChainID,
			ReceiptTimeout: cfg.ReceiptTimeout,
		},
		directory,
		dex.NewClient(cfg.DexURL),
		bundler,
		&envConnector{address: cfg.WalletAddress},
		logger,
	)

	intent := swap.Intent{
		FromToken:       *fromToken,
		ToToken:         *toToken,
		Amount:          *amount,
		SlippagePercent: *slippage,
	}
	if *owner != "" {
		if !ecommon.IsHexAddress(*owner) {
			logger.Fatalf("invalid owner address: %s", *owner)
		}
		intent.Owner = ecommon.HexToAddress(*owner)
	}

	attempt := swap.NewAttempt(intent)

	// A signal before submission cancels; after submission the attempt
	// runs to a terminal state because the operation cannot be unsent.
	go func() {
		sig := <-graceful.MakeSigintChan()
		logger.Infof("received exit signal: %v", sig)
		if err := attempt.Cancel(); err != nil {
			logger.Warnf("cannot cancel: %v", err)
			return
		}
		cancel()
	}()

	checkAllowance(ctx, cfg, directory, intent, logger)

	result, err := orchestrator.Run(ctx, attempt)
	recordAttempt(swapMetrics, attempt)
	if err != nil {
		var failure *swap.Failure
		if errors.As(err, &failure) {
			logger.WithFields(logrus.Fields{
				"state":  attempt.State().String(),
				"reason": string(failure.Reason),
			}).Fatalf("swap failed: %v", failure.Cause)
		}
		logger.Fatalf("swap refused: %v", err)
	}

	q := attempt.Quote()
	logger.WithFields(logrus.Fields{
		"txHash":   result.TxHash,
		"account":  result.FromAddress,
		"received": q.DestinationAmount.String(),
		"fee":      result.Fee,
		"explorer": result.ExplorerURL,
	}).Info("swap confirmed")
}

// checkAllowance reads the current allowance before the attempt starts,
// so the log shows whether the approval stage will change chain state.
// Purely informational: the flow approves before every token swap.
func checkAllowance(
	ctx context.Context,
	cfg config,
	directory *tokens.Directory,
	intent swap.Intent,
	logger *logrus.Logger,
) {
	if cfg.RPCURL == "" || intent.Owner == (ecommon.Address{}) {
		return
	}
	src, err := directory.Get(intent.FromToken)
	if err != nil || src.IsNative() {
		return
	}
	baseAmount, err := util.ToBaseUnits(intent.Amount, src.Decimals)
	if err != nil {
		return
	}

	rpc, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		logger.Warnf("allowance check skipped: %v", err)
		return
	}
	defer rpc.Close()

	balances, err := aa.NewBalanceService(rpc)
	if err != nil {
		logger.Warnf("balance check skipped: %v", err)
	} else if balance, err := balances.GetERC20Balance(ctx, src.Address, intent.Owner); err != nil {
		logger.Warnf("balance check failed: %v", err)
	} else {
		logger.WithFields(logrus.Fields{
			"balance":    util.FromBaseUnits(balance, src.Decimals),
			"sufficient": balance.Cmp(baseAmount) >= 0,
		}).Info("source balance checked")
	}

	allowances, err := aa.NewAllowanceService(rpc)
	if err != nil {
		logger.Warnf("allowance check skipped: %v", err)
		return
	}

	needed, err := allowances.NeedsApproval(
		ctx,
		src.Address,
		intent.Owner,
		ecommon.HexToAddress(cfg.Spender),
		baseAmount,
	)
	if err != nil {
		logger.Warnf("allowance check failed: %v", err)
		return
	}
	logger.WithField("approvalNeeded", needed).Info("allowance checked")
}

// recordAttempt derives metrics from the attempt's event log.
func recordAttempt(sm *metrics.SwapMetrics, attempt *swap.Attempt) {
	reason := ""
	if f := attempt.Failure(); f != nil {
		reason = string(f.Reason)
	}
	sm.RecordAttempt(attempt.State().String(), reason)
	sm.RecordQuote(attempt.Intent.FromToken, attempt.Intent.ToToken)

	var submitted = map[string]time.Time{}
	for _, ev := range attempt.Events() {
		switch ev.Kind {
		case swap.EventApprovalSubmit:
			submitted["approval"] = ev.At
		case swap.EventApprovalReceiptSuccess:
			if at, ok := submitted["approval"]; ok {
				sm.RecordStageDuration("approval", ev.At.Sub(at))
			}
		case swap.EventSwapSubmit:
			submitted["swap"] = ev.At
		case swap.EventSwapReceiptSuccess:
			if at, ok := submitted["swap"]; ok {
				sm.RecordStageDuration("swap", ev.At.Sub(at))
			}
		}
	}
}
