package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidateConfig checks if the global configurations have valid values and
// fills unset scan parameters with defaults.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := validateScanConfig(&cfg.Scan); err != nil {
		return fmt.Errorf("YAML global config: scan directive is invalid: %w", err)
	}
	if err := validateReconcileConfig(&cfg.Reconcile); err != nil {
		return fmt.Errorf("YAML global config: reconcile directive is invalid: %w", err)
	}
	applyModelDefaults(&cfg.Models)
	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 10*time.Minute); err != nil {
			return err
		}
	}

	return validateProxy(&httpConfig.Proxy)
}

func validateScanConfig(scan *Scan) error {
	defaults := DefaultScanConfig()

	scan.ChunkLines = SetThen(scan.ChunkLines, defaults.ChunkLines)
	scan.ChunkOverlap = SetThen(scan.ChunkOverlap, defaults.ChunkOverlap)
	scan.MaxFileSize = SetThen(scan.MaxFileSize, defaults.MaxFileSize)
	scan.Threads = SetThen(scan.Threads, defaults.Threads)
	scan.ModelThreads = SetThen(scan.ModelThreads, defaults.ModelThreads)
	scan.ReviewThreshold = SetThen(scan.ReviewThreshold, defaults.ReviewThreshold)
	scan.GitTimeout = SetThen(scan.GitTimeout, defaults.GitTimeout)

	if scan.ChunkLines < 1 {
		return fmt.Errorf("chunk_lines must be positive: %d", scan.ChunkLines)
	}
	if scan.ChunkOverlap < 0 || scan.ChunkOverlap >= scan.ChunkLines {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_lines): %d", scan.ChunkOverlap)
	}
	if scan.Threads < 1 || scan.ModelThreads < 1 {
		return fmt.Errorf("threads and model_threads must be positive")
	}
	if scan.ReviewThreshold < 0 || scan.ReviewThreshold > 1 {
		return fmt.Errorf("review_threshold must be in [0,1]: %f", scan.ReviewThreshold)
	}
	return nil
}

func validateReconcileConfig(rec *Reconcile) error {
	defaults := DefaultReconcileConfig()

	rec.OverlapFraction = SetThen(rec.OverlapFraction, defaults.OverlapFraction)
	rec.ConfidenceFloor = SetThen(rec.ConfidenceFloor, defaults.ConfidenceFloor)
	rec.PatternWeight = SetThen(rec.PatternWeight, defaults.PatternWeight)
	rec.ReviewerWeight = SetThen(rec.ReviewerWeight, defaults.ReviewerWeight)
	rec.VerifierWeight = SetThen(rec.VerifierWeight, defaults.VerifierWeight)

	for name, v := range map[string]float64{
		"overlap_fraction": rec.OverlapFraction,
		"confidence_floor": rec.ConfidenceFloor,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1]: %f", name, v)
		}
	}
	if rec.VerifierWeight < rec.ReviewerWeight || rec.VerifierWeight < rec.PatternWeight {
		return fmt.Errorf("verifier_weight must dominate pattern and reviewer weights")
	}
	return nil
}

func applyModelDefaults(models *Models) {
	reviewerDefaults := DefaultModelEndpoint("qwen2.5-coder:7b")
	verifierDefaults := DefaultModelEndpoint("deepseek-r1:14b")
	applyEndpointDefaults(&models.Reviewer, reviewerDefaults)
	applyEndpointDefaults(&models.Verifier, verifierDefaults)
}

func applyEndpointDefaults(ep *ModelEndpoint, defaults ModelEndpoint) {
	ep.BaseURL = SetThen(ep.BaseURL, defaults.BaseURL)
	ep.Model = SetThen(ep.Model, defaults.Model)
	ep.Timeout = SetThen(ep.Timeout, defaults.Timeout)
	ep.MaxRetries = SetThen(ep.MaxRetries, defaults.MaxRetries)
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if err := validateHost(&proxy.Host); err != nil {
		return err
	}
	return validatePort(proxy.Port)
}

// validateHost checks if the host part of the proxy configuration is valid.
// It ensures the host includes a scheme; adds "http" if missing.
func validateHost(host *string) error {
	if host == nil {
		return fmt.Errorf("host string pointer is nil")
	}

	if !strings.Contains(*host, "://") {
		*host = "http://" + *host
	}
	*host = strings.TrimRight(*host, "/")

	if _, err := url.Parse(*host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	return nil
}

// validatePort checks if the port part of the proxy configuration is valid.
func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}
