package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

const (
	EnvPipelineWorkers             = "DOCAI_PIPELINE_WORKERS"
	EnvPipelineQueueSize           = "DOCAI_PIPELINE_QUEUE_SIZE"
	EnvPipelinePatternTimeout      = "DOCAI_PIPELINE_PATTERN_TIMEOUT"
	EnvPipelineMaxSummarySentences = "DOCAI_PIPELINE_MAX_SUMMARY_SENTENCES"
	EnvPipelineDefaultConfidence   = "DOCAI_PIPELINE_DEFAULT_CONFIDENCE"
	EnvPipelineFallback            = "DOCAI_PIPELINE_FALLBACK_CLASSIFICATION"
	EnvPipelineAutoProcess         = "DOCAI_PIPELINE_AUTO_PROCESS"
	EnvPipelineStaleAfter          = "DOCAI_PIPELINE_STALE_AFTER"
	EnvPipelineRecoveryAction      = "DOCAI_PIPELINE_RECOVERY_ACTION"
	EnvPipelineMaxBatchSize        = "DOCAI_PIPELINE_MAX_BATCH_SIZE"
)

// Recovery actions applied to documents left in processing after a restart.
const (
	RecoveryRequeue = "requeue"
	RecoveryFail    = "fail"
)

// PipelineConfig holds document processing settings.
type PipelineConfig struct {
	Workers                int     `toml:"workers"`
	QueueSize              int     `toml:"queue_size"`
	PatternTimeout         string  `toml:"pattern_timeout"`
	MaxSummarySentences    int     `toml:"max_summary_sentences"`
	DefaultConfidence      float64 `toml:"default_confidence"`
	FallbackClassification string  `toml:"fallback_classification"`
	AutoProcess            *bool   `toml:"auto_process"`
	StaleAfter             string  `toml:"stale_after"`
	RecoveryAction         string  `toml:"recovery_action"`
	MaxBatchSize           int     `toml:"max_batch_size"`
}

// PatternTimeoutDuration returns PatternTimeout as a time.Duration.
func (c *PipelineConfig) PatternTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PatternTimeout)
	return d
}

// StaleAfterDuration returns StaleAfter as a time.Duration.
func (c *PipelineConfig) StaleAfterDuration() time.Duration {
	d, _ := time.ParseDuration(c.StaleAfter)
	return d
}

// AutoProcessEnabled reports whether uploads are queued for processing immediately.
func (c *PipelineConfig) AutoProcessEnabled() bool {
	return c.AutoProcess == nil || *c.AutoProcess
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.QueueSize != 0 {
		c.QueueSize = overlay.QueueSize
	}
	if overlay.PatternTimeout != "" {
		c.PatternTimeout = overlay.PatternTimeout
	}
	if overlay.MaxSummarySentences != 0 {
		c.MaxSummarySentences = overlay.MaxSummarySentences
	}
	if overlay.DefaultConfidence != 0 {
		c.DefaultConfidence = overlay.DefaultConfidence
	}
	if overlay.FallbackClassification != "" {
		c.FallbackClassification = overlay.FallbackClassification
	}
	if overlay.AutoProcess != nil {
		c.AutoProcess = overlay.AutoProcess
	}
	if overlay.StaleAfter != "" {
		c.StaleAfter = overlay.StaleAfter
	}
	if overlay.RecoveryAction != "" {
		c.RecoveryAction = overlay.RecoveryAction
	}
	if overlay.MaxBatchSize != 0 {
		c.MaxBatchSize = overlay.MaxBatchSize
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.PatternTimeout == "" {
		c.PatternTimeout = "250ms"
	}
	if c.MaxSummarySentences <= 0 {
		c.MaxSummarySentences = 5
	}
	if c.DefaultConfidence == 0 {
		c.DefaultConfidence = 0.9
	}
	if c.FallbackClassification == "" {
		c.FallbackClassification = "undefined"
	}
	if c.StaleAfter == "" {
		c.StaleAfter = "15m"
	}
	if c.RecoveryAction == "" {
		c.RecoveryAction = RecoveryRequeue
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = 100
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvPipelineQueueSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueSize = n
		}
	}
	if v := os.Getenv(EnvPipelinePatternTimeout); v != "" {
		c.PatternTimeout = v
	}
	if v := os.Getenv(EnvPipelineMaxSummarySentences); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxSummarySentences = n
		}
	}
	if v := os.Getenv(EnvPipelineDefaultConfidence); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.DefaultConfidence = f
		}
	}
	if v := os.Getenv(EnvPipelineFallback); v != "" {
		c.FallbackClassification = v
	}
	if v := os.Getenv(EnvPipelineAutoProcess); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AutoProcess = &b
		}
	}
	if v := os.Getenv(EnvPipelineStaleAfter); v != "" {
		c.StaleAfter = v
	}
	if v := os.Getenv(EnvPipelineRecoveryAction); v != "" {
		c.RecoveryAction = v
	}
	if v := os.Getenv(EnvPipelineMaxBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxBatchSize = n
		}
	}
}

func (c *PipelineConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be positive")
	}
	if d, err := time.ParseDuration(c.PatternTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid pattern_timeout: %q", c.PatternTimeout)
	}
	if c.MaxSummarySentences < 1 {
		return fmt.Errorf("max_summary_sentences must be positive")
	}
	if c.DefaultConfidence < 0 || c.DefaultConfidence > 1 {
		return fmt.Errorf("default_confidence must be within [0,1]")
	}
	if d, err := time.ParseDuration(c.StaleAfter); err != nil || d <= 0 {
		return fmt.Errorf("invalid stale_after: %q", c.StaleAfter)
	}
	if c.RecoveryAction != RecoveryRequeue && c.RecoveryAction != RecoveryFail {
		return fmt.Errorf("invalid recovery_action: %q", c.RecoveryAction)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	return nil
}
