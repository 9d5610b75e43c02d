package dex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, upstream http.HandlerFunc) *httptest.Server {
	t.Helper()

	svc, _ := newTestService(t, upstream)
	e := echo.New()
	NewHandler(svc, testLogger()).Register(e)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthRoute(t *testing.T) {
	srv := newTestServer(t, stubApproval)

	resp, err := http.Get(srv.URL + "/dex")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApprovalRoute(t *testing.T) {
	srv := newTestServer(t, stubApproval)

	resp, err := http.Get(srv.URL + "/dex/approval?tokenAddress=usdc&amount=100000")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var callData CallData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&callData))
	require.Equal(t, "0x095ea7b3", callData.Data)
	require.Equal(t, "0", callData.Value)
}

func TestSwapRouteRejectsMissingFields(t *testing.T) {
	srv := newTestServer(t, stubSwap)

	body := `{"from":"","tokenSrc":"eth","tokenDst":"dai","amount":"1000","chainId":1}`
	resp, err := http.Post(srv.URL+"/dex/swap", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, string(InvalidRequest), payload["kind"])
}

func TestSwapRoute(t *testing.T) {
	srv := newTestServer(t, stubSwap)

	body := `{"from":"0x742d35Cc6634C0532925a3b844Bc9e7595f2bD42","tokenSrc":"eth","tokenDst":"dai","amount":"100000000000000","chainId":1}`
	resp, err := http.Post(srv.URL+"/dex/swap", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result SwapCallResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, "223876", result.DstAmount)
	require.Equal(t, "0x1111111254EEB25477B68fb85Ed929f73A960582", result.Tx.To)
}

func TestQuotationRouteDegradesToErrorObject(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "upstream broke"})
	})

	resp, err := http.Get(srv.URL + "/dex/quotation?from=0x1&chain=1&amount=10&tokenAddress=usdc&dstTokenAddress=dai")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Best-effort endpoint: the failure is a structured object, not a 5xx.
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "upstream broke", payload["error"])
	require.Equal(t, float64(http.StatusInternalServerError), payload["status"])
}

func TestClientAgainstHandler(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "approve") {
			stubApproval(w, r)
			return
		}
		stubSwap(w, r)
	})

	client := NewClient(srv.URL)

	callData, err := client.GetApprovalData(context.Background(), "usdc", "100000")
	require.NoError(t, err)
	require.Equal(t, "0x095ea7b3", callData.Data)

	result, err := client.GetSwapData(context.Background(), SwapRequest{
		From:     "0x742d35Cc6634C0532925a3b844Bc9e7595f2bD42",
		TokenSrc: "eth",
		TokenDst: "dai",
		Amount:   "100000000000000",
		ChainID:  1,
	})
	require.NoError(t, err)
	require.Equal(t, "223876", result.DstAmount)
}
