// Package workflow runs the document processing pipeline: raw text capture,
// rule-based classification, data point extraction, and summarization.
// A Runner executes the pipeline on a bounded worker pool.
package workflow

import "errors"

// Sentinel errors for workflow operations.
var (
	ErrProcessingFailed = errors.New("document processing failed")
	ErrTextExtraction   = errors.New("text extraction failed")
	ErrUndefinedMissing = errors.New("fallback classification missing")
	ErrQueueFull        = errors.New("processing queue is full")
	ErrRunnerStopped    = errors.New("processing runner is stopped")
)
