package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/bizk/ERC20-gasless-swap/internal/aa"
	"github.com/bizk/ERC20-gasless-swap/internal/logging"
	"github.com/bizk/ERC20-gasless-swap/internal/metrics"
)

type config struct {
	LogFormat logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	// DexURL points at the running aggregator proxy.
	DexURL string `envconfig:"DEX_URL" default:"http://localhost:8080"`
	// RPCURL enables the pre-flight allowance check when set.
	RPCURL string `envconfig:"RPC_URL"`
	// Spender checked by the pre-flight allowance read.
	Spender string `envconfig:"SPENDER" default:"0x111111125421cA6dc452d289314280a0f8842A65"`
	// WalletAddress binds the owner when the -owner flag is absent.
	WalletAddress  string        `envconfig:"WALLET_ADDRESS"`
	ChainID        int           `envconfig:"CHAIN_ID" default:"1"`
	ReceiptTimeout time.Duration `envconfig:"RECEIPT_TIMEOUT" default:"2m"`
	Bundler        aa.Config
	Metrics        metrics.Config
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
