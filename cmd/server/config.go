package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/bizk/ERC20-gasless-swap/internal/logging"
	"github.com/bizk/ERC20-gasless-swap/internal/metrics"
	"github.com/bizk/ERC20-gasless-swap/internal/oneinch"
)

type config struct {
	Port      string            `envconfig:"PORT" default:"8080"`
	LogFormat logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	OneInch   oneinch.Config
	Metrics   metrics.Config
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
