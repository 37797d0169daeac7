package config

import (
	"crypto/tls"
	"time"
)

// BaseHTTPConfig holds common HTTP client configuration settings.
type BaseHTTPConfig struct {
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	Timeout          time.Duration
	TLSClientConfig  *tls.Config
	Proxy            string
}

// RestyHTTPClientConfig holds additional configuration settings for the resty http client.
type RestyHTTPClientConfig struct {
	BaseHTTPConfig
	Debug bool
}

// DefaultHTTPConfig returns the base configuration applicable to all HTTP clients.
func DefaultHTTPConfig() BaseHTTPConfig {
	return BaseHTTPConfig{
		RetryCount:       3,
		RetryWaitTime:    1 * time.Second,
		RetryMaxWaitTime: 5 * time.Second,
		Timeout:          60 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12, // Enforce a minimum TLS version
		},
		Proxy: "",
	}
}

// DefaultRestyConfig returns a specific http config for resty.
func DefaultRestyConfig() RestyHTTPClientConfig {
	return RestyHTTPClientConfig{
		BaseHTTPConfig: DefaultHTTPConfig(),
		Debug:          false,
	}
}

// DefaultScanConfig returns the default analysis pipeline parameters.
func DefaultScanConfig() Scan {
	return Scan{
		ChunkLines:      500,
		ChunkOverlap:    20,
		MaxFileSize:     1 << 20, // 1 MiB
		Threads:         4,
		ModelThreads:    2,
		ReviewThreshold: 0.6,
		GitTimeout:      5 * time.Minute,
	}
}

// DefaultReconcileConfig returns the default weighting table for finding reconciliation.
func DefaultReconcileConfig() Reconcile {
	return Reconcile{
		OverlapFraction: 0.5,
		ConfidenceFloor: 0.25,
		PatternWeight:   0.4,
		ReviewerWeight:  0.6,
		VerifierWeight:  1.0,
	}
}

// DefaultModelEndpoint returns an Ollama-compatible endpoint with the given model name.
func DefaultModelEndpoint(model string) ModelEndpoint {
	return ModelEndpoint{
		BaseURL:    "http://localhost:11434",
		Model:      model,
		Timeout:    120 * time.Second,
		MaxRetries: 2,
	}
}
