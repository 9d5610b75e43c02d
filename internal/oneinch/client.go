// Package oneinch wraps the upstream swap-aggregator HTTP API.
package oneinch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/bizk/ERC20-gasless-swap/internal/httpx"
)

const (
	APIVersion             = "v6.1"
	QuoterVersion          = "v1.1"
	DefaultBaseURL         = "https://api.1inch.com"
	DefaultSlippagePercent = 1
)

// Config carries the upstream endpoint and credential. The credential is
// injected here once, never read from the environment at call time.
type Config struct {
	BaseURL string `envconfig:"ONEINCH_BASE_URL" default:"https://api.1inch.com"`
	APIKey  string `envconfig:"ONEINCH_API_KEY" required:"true"`
}

type Client struct {
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// StatusError is an upstream aggregator failure, normalized to the status
// code and the message extracted from the upstream error body.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("aggregator returned status %d: %s", e.Status, e.Message)
}

// ApprovalTransaction is the unsigned ERC-20 approve call returned by the
// aggregator. It is submitted verbatim, never inspected.
type ApprovalTransaction struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

type SwapParams struct {
	ChainID         int
	Src             string
	Dst             string
	Amount          string
	From            string
	SlippagePercent int
}

type SwapResponse struct {
	DstAmount string `json:"dstAmount"`
	Tx        TxData `json:"tx"`
}

type TxData struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      int64  `json:"gas"`
	GasPrice string `json:"gasPrice"`
}

type QuotationParams struct {
	SrcChain        int
	DstChain        int
	SrcTokenAddress string
	DstTokenAddress string
	Amount          string
	WalletAddress   string
}

// QuotationResponse is the quoter's estimate for a pair. Amounts are in
// base units of the respective tokens.
type QuotationResponse struct {
	QuoteID           string `json:"quoteId"`
	SrcTokenAmount    string `json:"srcTokenAmount"`
	DstTokenAmount    string `json:"dstTokenAmount"`
	RecommendedPreset string `json:"recommendedPreset"`
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}
}

// GetApprovalTransaction fetches approve call data for the given token and
// amount in base units.
func (c *Client) GetApprovalTransaction(ctx context.Context, chainID int, tokenAddress, amount string) (*ApprovalTransaction, error) {
	endpoint := fmt.Sprintf("%s/swap/%s/%d/approve/transaction", c.baseURL, APIVersion, chainID)

	resp, err := httpx.Call[ApprovalTransaction](
		ctx,
		http.MethodGet,
		endpoint,
		c.headers(),
		nil,
		map[string]string{
			"tokenAddress": tokenAddress,
			"amount":       amount,
		},
	)
	if err != nil {
		return nil, normalize(err)
	}

	return &resp, nil
}

// GetSwap fetches executable swap call data for the resolved token pair.
func (c *Client) GetSwap(ctx context.Context, req SwapParams) (*SwapResponse, error) {
	endpoint := fmt.Sprintf("%s/swap/%s/%d/swap", c.baseURL, APIVersion, req.ChainID)

	slippage := req.SlippagePercent
	if slippage == 0 {
		slippage = DefaultSlippagePercent
	}

	resp, err := httpx.Call[SwapResponse](
		ctx,
		http.MethodGet,
		endpoint,
		c.headers(),
		nil,
		map[string]string{
			"src":      req.Src,
			"dst":      req.Dst,
			"amount":   req.Amount,
			"from":     req.From,
			"slippage": fmt.Sprintf("%d", slippage),
		},
	)
	if err != nil {
		return nil, normalize(err)
	}

	return &resp, nil
}

// GetQuotation fetches a cross-pair estimate from the quoter. The
// estimate is advisory; execution pricing comes from GetSwap.
func (c *Client) GetQuotation(ctx context.Context, req QuotationParams) (*QuotationResponse, error) {
	endpoint := fmt.Sprintf("%s/fusion-plus/quoter/%s/quote/receive", c.baseURL, QuoterVersion)

	resp, err := httpx.Call[QuotationResponse](
		ctx,
		http.MethodGet,
		endpoint,
		c.headers(),
		nil,
		map[string]string{
			"srcChain":        fmt.Sprintf("%d", req.SrcChain),
			"dstChain":        fmt.Sprintf("%d", req.DstChain),
			"srcTokenAddress": req.SrcTokenAddress,
			"dstTokenAddress": req.DstTokenAddress,
			"amount":          req.Amount,
			"walletAddress":   req.WalletAddress,
			"enableEstimate":  "false",
			"fee":             "0",
		},
	)
	if err != nil {
		return nil, normalize(err)
	}

	return &resp, nil
}

// normalize converts transport-level status failures into StatusError,
// extracting the upstream message from the error body when present.
func normalize(err error) error {
	var statusErr *httpx.StatusError
	if !errors.As(err, &statusErr) {
		return fmt.Errorf("failed to call aggregator: %w", err)
	}

	msg := string(statusErr.Body)
	var parsed struct {
		Message     string `json:"message"`
		Description string `json:"description"`
		Error       string `json:"error"`
	}
	if jsonErr := json.Unmarshal(statusErr.Body, &parsed); jsonErr == nil {
		switch {
		case parsed.Description != "":
			msg = parsed.Description
		case parsed.Message != "":
			msg = parsed.Message
		case parsed.Error != "":
			msg = parsed.Error
		}
	}

	return &StatusError{Status: statusErr.Status, Message: msg}
}
