package api

import (
	"github.com/JaimeStill/docai/internal/classifications"
	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/internal/extraction"
	"github.com/JaimeStill/docai/internal/parsing"
	"github.com/JaimeStill/docai/internal/rules"
	"github.com/JaimeStill/docai/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Classifications classifications.System
	Documents       documents.System
	Runner          *workflow.Runner
}

// NewDomain creates all domain systems from the API runtime. The pipeline
// runner reads rules from the classification system and records results
// through the document system.
func NewDomain(runtime *Runtime) *Domain {
	classificationsSystem := classifications.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	docsSystem := documents.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	pipeline := runtime.Pipeline
	rt := &workflow.Runtime{
		Text:         parsing.New(runtime.Storage, runtime.Logger),
		Config:       classificationsSystem,
		Store:        docsSystem,
		Compiler:     rules.NewCompiler(pipeline.PatternTimeoutDuration()),
		Extractor:    extraction.New(pipeline.PatternTimeoutDuration(), pipeline.DefaultConfidence),
		Fallback:     pipeline.FallbackClassification,
		MaxSentences: pipeline.MaxSummarySentences,
		Logger:       runtime.Logger.With("workflow", "process"),
	}

	runner := workflow.NewRunner(rt, workflow.RunnerConfig{
		Workers:        pipeline.Workers,
		QueueSize:      pipeline.QueueSize,
		StaleAfter:     pipeline.StaleAfterDuration(),
		RecoveryAction: pipeline.RecoveryAction,
	})

	return &Domain{
		Classifications: classificationsSystem,
		Documents:       docsSystem,
		Runner:          runner,
	}
}
