// Package dex is the server-side façade in front of the swap
// aggregator. It validates inbound requests, resolves token identifiers
// to canonical addresses, and normalizes upstream failures.
package dex

import (
	"context"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/bizk/ERC20-gasless-swap/internal/oneinch"
	"github.com/bizk/ERC20-gasless-swap/internal/tokens"
)

// DefaultChainID is Ethereum mainnet.
const DefaultChainID = 1

// CallData is the wire form of an unsigned contract call.
type CallData struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// SwapRequest is the inbound body of POST /dex/swap. Slippage is in
// whole percent; zero means the aggregator default.
type SwapRequest struct {
	From     string `json:"from"`
	TokenSrc string `json:"tokenSrc"`
	TokenDst string `json:"tokenDst"`
	Amount   string `json:"amount"`
	ChainID  int    `json:"chainId"`
	Slippage int    `json:"slippage,omitempty"`
}

// SwapCallResult is executable swap call data plus the aggregator's
// destination amount estimate.
type SwapCallResult struct {
	DstAmount string         `json:"dstAmount"`
	Tx        oneinch.TxData `json:"tx"`
}

type Service struct {
	directory *tokens.Directory
	client    *oneinch.Client
	logger    *logrus.Logger
}

func NewService(directory *tokens.Directory, client *oneinch.Client, logger *logrus.Logger) *Service {
	return &Service{
		directory: directory,
		client:    client,
		logger:    logger,
	}
}

// parseBaseUnits validates that amount is a non-negative integer string.
func parseBaseUnits(amount string) (*big.Int, *Error) {
	if amount == "" {
		return nil, invalidRequest("missing amount")
	}
	n, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, invalidRequest("amount %q is not an integer", amount)
	}
	if n.Sign() < 0 {
		return nil, invalidRequest("amount must not be negative, got %s", amount)
	}
	return n, nil
}

// ResolveApprovalCall turns a token identifier (or raw address) and a
// base-unit amount into approve call data from the aggregator.
func (s *Service) ResolveApprovalCall(ctx context.Context, tokenIdentifierOrAddress, amount string) (*CallData, error) {
	if tokenIdentifierOrAddress == "" {
		return nil, invalidRequest("missing tokenAddress")
	}
	if _, errV := parseBaseUnits(amount); errV != nil {
		return nil, errV
	}

	address, err := s.directory.Resolve(tokenIdentifierOrAddress)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}

	return s.ApprovalTransactionTemplate(ctx, address.Hex(), amount)
}

// ApprovalTransactionTemplate is the pass-through for callers already
// holding a resolved token address.
func (s *Service) ApprovalTransactionTemplate(ctx context.Context, tokenAddress, amount string) (*CallData, error) {
	tx, err := s.client.GetApprovalTransaction(ctx, DefaultChainID, tokenAddress, amount)
	if err != nil {
		s.logger.WithError(err).WithField("pkg", "dex.Service").Error("approval call failed upstream")
		return nil, classify(err)
	}

	return &CallData{To: tx.To, Data: tx.Data, Value: tx.Value}, nil
}

// ResolveSwapCall validates the swap request, resolves both token
// identifiers, and forwards to the aggregator. An unresolvable
// identifier is a hard failure; funds are never routed to a default
// address.
func (s *Service) ResolveSwapCall(ctx context.Context, req SwapRequest) (*SwapCallResult, error) {
	if req.TokenSrc == "" || req.TokenDst == "" {
		return nil, invalidRequest("missing token identifier")
	}
	if req.From == "" {
		return nil, invalidRequest("missing from address")
	}
	if req.ChainID == 0 {
		return nil, invalidRequest("missing chain id")
	}
	if _, errV := parseBaseUnits(req.Amount); errV != nil {
		return nil, errV
	}

	srcAddress, err := s.directory.Resolve(req.TokenSrc)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}
	dstAddress, err := s.directory.Resolve(req.TokenDst)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}

	if req.Slippage < 0 || req.Slippage > 50 {
		return nil, invalidRequest("slippage must be between 0 and 50 percent, got %d", req.Slippage)
	}

	resp, err := s.client.GetSwap(ctx, oneinch.SwapParams{
		ChainID:         req.ChainID,
		Src:             srcAddress.Hex(),
		Dst:             dstAddress.Hex(),
		Amount:          req.Amount,
		From:            req.From,
		SlippagePercent: req.Slippage,
	})
	if err != nil {
		s.logger.WithError(err).WithField("pkg", "dex.Service").Error("swap call failed upstream")
		return nil, classify(err)
	}

	return &SwapCallResult{DstAmount: resp.DstAmount, Tx: resp.Tx}, nil
}

// QuotationRequest is the inbound query of GET /dex/quotation. Token
// fields accept directory identifiers or raw addresses.
type QuotationRequest struct {
	From       string
	TokenSrc   string
	TokenDst   string
	Amount     string
	SrcChainID int
	DstChainID int
}

// Quotation is a best-effort passthrough to the quoter. Upstream
// failures are returned as a classified error, never a panic or raw
// transport error.
func (s *Service) Quotation(ctx context.Context, req QuotationRequest) (*oneinch.QuotationResponse, error) {
	if req.SrcChainID == 0 {
		req.SrcChainID = DefaultChainID
	}
	if req.DstChainID == 0 {
		req.DstChainID = req.SrcChainID
	}

	srcAddress, err := s.directory.Resolve(req.TokenSrc)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}
	dstAddress, err := s.directory.Resolve(req.TokenDst)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}

	resp, err := s.client.GetQuotation(ctx, oneinch.QuotationParams{
		SrcChain:        req.SrcChainID,
		DstChain:        req.DstChainID,
		SrcTokenAddress: srcAddress.Hex(),
		DstTokenAddress: dstAddress.Hex(),
		Amount:          req.Amount,
		WalletAddress:   req.From,
	})
	if err != nil {
		s.logger.WithError(err).WithField("pkg", "dex.Service").Warn("quotation failed upstream")
		return nil, classify(err)
	}
	return resp, nil
}
