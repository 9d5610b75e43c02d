package dex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/bizk/ERC20-gasless-swap/internal/oneinch"
	"github.com/bizk/ERC20-gasless-swap/internal/tokens"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// newTestService wires a Service against a stub aggregator and returns
// a counter of upstream hits.
func newTestService(t *testing.T, upstream http.HandlerFunc) (*Service, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		upstream(w, r)
	}))
	t.Cleanup(srv.Close)

	client := oneinch.NewClient(oneinch.Config{BaseURL: srv.URL, APIKey: "test"}, testLogger())
	return NewService(tokens.Default(), client, testLogger()), &hits
}

func stubApproval(w http.ResponseWriter, _ *http.Request) {
	json.NewEncoder(w).Encode(oneinch.ApprovalTransaction{
		To:    "0x514910771AF9Ca656af840dff83E8264EcF986CA",
		Data:  "0x095ea7b3",
		Value: "0",
	})
}

func stubSwap(w http.ResponseWriter, _ *http.Request) {
	json.NewEncoder(w).Encode(oneinch.SwapResponse{
		DstAmount: "223876",
		Tx: oneinch.TxData{
			To:    "0x1111111254EEB25477B68fb85Ed929f73A960582",
			Data:  "0x12aa3caf",
			Value: "0",
		},
	})
}

func TestResolveApprovalCall(t *testing.T) {
	svc, hits := newTestService(t, stubApproval)

	callData, err := svc.ResolveApprovalCall(context.Background(), "usdc", "100000")
	require.NoError(t, err)
	require.Equal(t, "0x095ea7b3", callData.Data)
	require.Equal(t, int64(1), hits.Load())
}

func TestResolveApprovalCallValidation(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		amount string
	}{
		{name: "empty token", token: "", amount: "100"},
		{name: "unknown token", token: "doge", amount: "100"},
		{name: "empty amount", token: "usdc", amount: ""},
		{name: "non-integer amount", token: "usdc", amount: "1.5"},
		{name: "negative amount", token: "usdc", amount: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, hits := newTestService(t, stubApproval)

			_, err := svc.ResolveApprovalCall(context.Background(), tt.token, tt.amount)
			require.Error(t, err)

			typed, ok := err.(*Error)
			require.True(t, ok, "expected *Error, got %T", err)
			require.Equal(t, InvalidRequest, typed.Kind)
			require.Equal(t, int64(0), hits.Load(), "validation failures must not reach upstream")
		})
	}
}

func TestResolveSwapCall(t *testing.T) {
	svc, hits := newTestService(t, stubSwap)

	result, err := svc.ResolveSwapCall(context.Background(), SwapRequest{
		From:     "0x742d35Cc6634C0532925a3b844Bc9e7595f2bD42",
		TokenSrc: "eth",
		TokenDst: "dai",
		Amount:   "100000000000000",
		ChainID:  1,
	})
	require.NoError(t, err)
	require.Equal(t, "223876", result.DstAmount)
	require.Equal(t, "0x12aa3caf", result.Tx.Data)
	require.Equal(t, int64(1), hits.Load())
}

func TestResolveSwapCallRejectsMissingFields(t *testing.T) {
	valid := SwapRequest{
		From:     "0x742d35Cc6634C0532925a3b844Bc9e7595f2bD42",
		TokenSrc: "eth",
		TokenDst: "dai",
		Amount:   "100000000000000",
		ChainID:  1,
	}

	tests := []struct {
		name   string
		mutate func(*SwapRequest)
	}{
		{name: "missing from", mutate: func(r *SwapRequest) { r.From = "" }},
		{name: "missing tokenSrc", mutate: func(r *SwapRequest) { r.TokenSrc = "" }},
		{name: "missing tokenDst", mutate: func(r *SwapRequest) { r.TokenDst = "" }},
		{name: "missing chainId", mutate: func(r *SwapRequest) { r.ChainID = 0 }},
		{name: "missing amount", mutate: func(r *SwapRequest) { r.Amount = "" }},
		{name: "unknown tokenSrc", mutate: func(r *SwapRequest) { r.TokenSrc = "doge" }},
		{name: "unknown tokenDst", mutate: func(r *SwapRequest) { r.TokenDst = "doge" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, hits := newTestService(t, stubSwap)

			req := valid
			tt.mutate(&req)

			_, err := svc.ResolveSwapCall(context.Background(), req)
			require.Error(t, err)

			typed, ok := err.(*Error)
			require.True(t, ok, "expected *Error, got %T", err)
			require.Equal(t, InvalidRequest, typed.Kind)
			require.Equal(t, int64(0), hits.Load(), "validation failures must not reach upstream")
		})
	}
}

func TestResolveSwapCallResolvesIdentifiers(t *testing.T) {
	var gotSrc, gotDst string
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotSrc = r.URL.Query().Get("src")
		gotDst = r.URL.Query().Get("dst")
		stubSwap(w, r)
	})

	_, err := svc.ResolveSwapCall(context.Background(), SwapRequest{
		From:     "0x742d35Cc6634C0532925a3b844Bc9e7595f2bD42",
		TokenSrc: "eth",
		TokenDst: "dai",
		Amount:   "1000",
		ChainID:  1,
	})
	require.NoError(t, err)
	require.Equal(t, "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE", gotSrc)
	require.Equal(t, "0x6B175474E89094C44Da98b954EedeAC495271d0F", gotDst)
}

func TestResolveSwapCallForwardsSlippage(t *testing.T) {
	var gotSlippage string
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotSlippage = r.URL.Query().Get("slippage")
		stubSwap(w, r)
	})

	req := SwapRequest{
		From:     "0x742d35Cc6634C0532925a3b844Bc9e7595f2bD42",
		TokenSrc: "usdc",
		TokenDst: "dai",
		Amount:   "1000",
		ChainID:  1,
		Slippage: 5,
	}

	_, err := svc.ResolveSwapCall(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "5", gotSlippage, "a caller's tolerance must reach the aggregator")

	// Zero means the aggregator default, not zero tolerance.
	req.Slippage = 0
	_, err = svc.ResolveSwapCall(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "1", gotSlippage)

	req.Slippage = 51
	_, err = svc.ResolveSwapCall(context.Background(), req)
	require.Error(t, err)
}

func TestUpstreamFailureIsClassified(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"message": "aggregator down"})
	})

	_, err := svc.ResolveSwapCall(context.Background(), SwapRequest{
		From:     "0x742d35Cc6634C0532925a3b844Bc9e7595f2bD42",
		TokenSrc: "eth",
		TokenDst: "dai",
		Amount:   "1000",
		ChainID:  1,
	})
	require.Error(t, err)

	typed, ok := err.(*Error)
	require.True(t, ok, "expected *Error, got %T", err)
	require.Equal(t, UpstreamError, typed.Kind)
	require.Equal(t, http.StatusServiceUnavailable, typed.Status)
	require.Equal(t, "aggregator down", typed.Message)
}
