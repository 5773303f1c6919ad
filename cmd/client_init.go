package main

import (
	"github.com/sells-group/captrades/internal/adapter"
	"github.com/sells-group/captrades/internal/cache"
	"github.com/sells-group/captrades/internal/client"
	"github.com/sells-group/captrades/internal/config"
	"github.com/sells-group/captrades/internal/resilience"
)

func adapterConfig(u config.UpstreamConfig) adapter.Config {
	return adapter.Config{
		BaseURL:   u.BaseURL,
		APIKey:    u.APIKey,
		UserAgent: cfg.UserAgent,
		Timeout:   u.Timeout(),
		RPS:       u.RPS,
	}
}

// initClient builds the cached client from loaded config. Callers should
// defer c.Close().
func initClient() (*client.Client, error) {
	return client.New(client.Options{
		Disclosure:     adapterConfig(cfg.Disclosure),
		PrimaryPrices:  adapterConfig(cfg.Prices.Primary),
		FallbackPrices: adapterConfig(cfg.Prices.Fallback),
		FEC:            adapterConfig(cfg.FEC),
		Cache: cache.Config{
			Root:             cfg.Cache.Root,
			MemoryMaxEntries: cfg.Cache.MemoryMaxEntries,
			DiskMaxBytes:     cfg.Cache.DiskMaxMB * 1024 * 1024,
		},
		Retry: resilience.FromRetryConfig(
			cfg.Retry.MaxAttempts,
			cfg.Retry.InitialBackoffMs,
			cfg.Retry.MaxBackoffMs,
			cfg.Retry.Multiplier,
			cfg.Retry.JitterFraction,
		),
	})
}
