package config

import (
	"time"
)

// Config is the root of the YAML configuration file.
type Config struct {
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Models     Models     `yaml:"models"`
	Scan       Scan       `yaml:"scan"`
	Reconcile  Reconcile  `yaml:"reconcile"`
}

type Logger struct {
	Level string `yaml:"level"`
}

// HTTPClient holds tuning for the shared resty client used for model-serving calls.
type HTTPClient struct {
	Debug            bool            `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Models configures the two model identities of the review pipeline.
type Models struct {
	Reviewer ModelEndpoint `yaml:"reviewer"`
	Verifier ModelEndpoint `yaml:"verifier"`
}

// ModelEndpoint describes one model identity at the model-serving boundary.
type ModelEndpoint struct {
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// Scan holds the knobs of the analysis pipeline itself.
type Scan struct {
	ChunkLines      int     `yaml:"chunk_lines"`       // target chunk size in lines
	ChunkOverlap    int     `yaml:"chunk_overlap"`     // overlap margin between adjacent chunks
	MaxFileSize     int64   `yaml:"max_file_size"`     // files above this are skipped
	Threads         int     `yaml:"threads"`           // bounded goroutines across files
	ModelThreads    int     `yaml:"model_threads"`     // concurrency cap for model calls
	ReviewThreshold float64 `yaml:"review_threshold"`  // reviewer confidence below this escalates to the verifier
	GitTimeout      time.Duration `yaml:"git_timeout"` // remote fetch timeout
}

// Reconcile holds the weighting table used when merging candidate findings.
// The verifier weight must dominate: a confirmed verifier opinion overrides
// reviewer-only confidence, a rejection suppresses the group.
type Reconcile struct {
	OverlapFraction float64 `yaml:"overlap_fraction"` // span overlap required to group candidates
	ConfidenceFloor float64 `yaml:"confidence_floor"` // groups below this are dropped
	PatternWeight   float64 `yaml:"pattern_weight"`
	ReviewerWeight  float64 `yaml:"reviewer_weight"`
	VerifierWeight  float64 `yaml:"verifier_weight"`
}
