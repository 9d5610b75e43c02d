package dex

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bizk/ERC20-gasless-swap/internal/httpx"
)

// Client calls the proxy surface over HTTP, for deployments where the
// orchestrator runs out of process from the proxy.
type Client struct {
	baseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL}
}

func (c *Client) GetApprovalData(ctx context.Context, tokenAddress, amount string) (*CallData, error) {
	callData, err := httpx.Call[CallData](
		ctx,
		http.MethodGet,
		c.baseURL+"/dex/approval",
		nil,
		nil,
		map[string]string{
			"tokenAddress": tokenAddress,
			"amount":       amount,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get approval data: %w", err)
	}
	return &callData, nil
}

func (c *Client) GetSwapData(ctx context.Context, req SwapRequest) (*SwapCallResult, error) {
	result, err := httpx.Call[SwapCallResult](
		ctx,
		http.MethodPost,
		c.baseURL+"/dex/swap",
		nil,
		req,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get swap data: %w", err)
	}
	return &result, nil
}
