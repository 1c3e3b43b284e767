package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/classifications"
	"github.com/JaimeStill/docai/internal/classifier"
	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/internal/extraction"
	"github.com/JaimeStill/docai/internal/summarize"
)

// Decision is the classification applied to a document after the threshold gate.
// Candidate holds the best-scoring classification even when it was rejected.
type Decision struct {
	Classification classifications.Classification `json:"classification"`
	Score          float64                        `json:"score"`
	Fallback       bool                           `json:"fallback"`
	Candidate      *classifier.Result             `json:"candidate,omitempty"`
}

// RuleFailure reports a definition whose rule could not be evaluated.
type RuleFailure struct {
	DefinitionID uuid.UUID `json:"definition_id"`
	Key          string    `json:"key"`
	Reason       string    `json:"reason"`
}

// Evaluation is the outcome of running every definition of a classification.
type Evaluation struct {
	DataPoints []extraction.DataPoint `json:"data_points"`
	Missing    []string               `json:"missing"`
	Failures   []RuleFailure          `json:"failures"`
}

// Result summarizes a completed processing run.
type Result struct {
	DocumentID     uuid.UUID        `json:"document_id"`
	Status         documents.Status `json:"status"`
	Decision       Decision         `json:"decision"`
	DataPoints     int              `json:"data_points"`
	Failures       []RuleFailure    `json:"failures,omitempty"`
	DroppedPattern int              `json:"dropped_patterns"`
	Summary        string           `json:"summary"`
	CompletedAt    time.Time        `json:"completed_at"`
}

// Analysis is a processing run over supplied text with nothing persisted.
type Analysis struct {
	Decision       Decision               `json:"decision"`
	DataPoints     []extraction.DataPoint `json:"data_points"`
	Missing        []string               `json:"missing"`
	Failures       []RuleFailure          `json:"failures"`
	DroppedPattern int                    `json:"dropped_patterns"`
	Summary        string                 `json:"summary"`
}

// Execute claims a document and runs the full pipeline over it.
// Claim failures are returned as-is. Once claimed, any stage error marks the
// document failed on a context detached from ctx and is returned wrapped in
// ErrProcessingFailed.
func Execute(ctx context.Context, rt *Runtime, documentID uuid.UUID) (*Result, error) {
	doc, err := rt.Store.Claim(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("claim document %s: %w", documentID, err)
	}

	logger := rt.Logger.With("document_id", documentID)
	logger.InfoContext(ctx, "processing started", "filename", doc.Filename)

	result, err := run(ctx, rt, doc)
	if err != nil {
		failCtx := context.WithoutCancel(ctx)
		if saveErr := rt.Store.SaveState(failCtx, documentID, documents.StatusFailed, rt.now()); saveErr != nil {
			logger.ErrorContext(failCtx, "failed to record failed status", "error", saveErr)
		}

		logger.ErrorContext(failCtx, "processing failed", "error", err)
		return nil, fmt.Errorf("%w: document %s: %w", ErrProcessingFailed, documentID, err)
	}

	logger.InfoContext(
		ctx, "processing complete",
		"classification", result.Decision.Classification.Name,
		"score", result.Decision.Score,
		"data_points", result.DataPoints,
	)
	return result, nil
}

func run(ctx context.Context, rt *Runtime, doc *documents.Document) (*Result, error) {
	text, err := rt.Text.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTextExtraction, err)
	}

	if err := rt.Store.SaveRawText(ctx, doc.ID, text); err != nil {
		return nil, fmt.Errorf("save raw text: %w", err)
	}

	decision, dropped, err := Classify(ctx, rt, text)
	if err != nil {
		return nil, err
	}

	if err := rt.Store.SaveClassification(ctx, doc.ID, decision.Classification.ID, decision.Score); err != nil {
		return nil, fmt.Errorf("save classification: %w", err)
	}

	if err := rt.Store.ClearDataPoints(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("clear data points: %w", err)
	}

	eval, err := Evaluate(ctx, rt, decision.Classification, text)
	if err != nil {
		return nil, err
	}

	for _, dp := range eval.DataPoints {
		if err := rt.Store.SaveDataPoint(ctx, doc.ID, dp); err != nil {
			return nil, fmt.Errorf("save data point %s: %w", dp.Key, err)
		}
	}

	summary := summarize.Summarize(text, rt.MaxSentences)
	if err := rt.Store.SaveSummary(ctx, doc.ID, summary); err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}

	completedAt := rt.now()
	if err := rt.Store.SaveState(ctx, doc.ID, documents.StatusCompleted, completedAt); err != nil {
		return nil, fmt.Errorf("save completed status: %w", err)
	}

	return &Result{
		DocumentID:     doc.ID,
		Status:         documents.StatusCompleted,
		Decision:       decision,
		DataPoints:     len(eval.DataPoints),
		Failures:       eval.Failures,
		DroppedPattern: dropped,
		Summary:        summary,
		CompletedAt:    completedAt,
	}, nil
}

// Preview runs classification, extraction, and summarization over text
// without touching any document.
func Preview(ctx context.Context, rt *Runtime, text string) (*Analysis, error) {
	decision, dropped, err := Classify(ctx, rt, text)
	if err != nil {
		return nil, err
	}

	eval, err := Evaluate(ctx, rt, decision.Classification, text)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		Decision:       decision,
		DataPoints:     eval.DataPoints,
		Missing:        eval.Missing,
		Failures:       eval.Failures,
		DroppedPattern: dropped,
		Summary:        summarize.Summarize(text, rt.MaxSentences),
	}, nil
}

// Classify compiles the current rule configuration, scores text against it,
// and applies the threshold gate. A rejected or absent winner resolves to the
// fallback classification with a zero score. The returned count is the number
// of patterns dropped at compile time.
func Classify(ctx context.Context, rt *Runtime, text string) (Decision, int, error) {
	snap, err := rt.Compiler.Load(ctx, rt.Config)
	if err != nil {
		return Decision{}, 0, err
	}

	dropped := snap.Dropped()
	for _, d := range dropped {
		rt.Logger.WarnContext(
			ctx, "pattern dropped",
			"classification_id", d.ClassificationID,
			"pattern_id", d.PatternID,
			"error", d.Err,
		)
	}

	best, ok := classifier.Classify(text, snap.Candidates())
	if ok && best.Accepts() {
		return Decision{
			Classification: best.Classification,
			Score:          best.Score,
			Candidate:      &best,
		}, len(dropped), nil
	}

	fallback, err := rt.Config.ResolveByName(ctx, rt.fallback())
	if err != nil {
		if errors.Is(err, classifications.ErrNotFound) {
			return Decision{}, len(dropped), fmt.Errorf("%w: %q", ErrUndefinedMissing, rt.fallback())
		}
		return Decision{}, len(dropped), fmt.Errorf("resolve fallback classification: %w", err)
	}

	d := Decision{Classification: *fallback, Fallback: true}
	if ok {
		d.Candidate = &best
	}
	return d, len(dropped), nil
}

// Evaluate runs every definition of c against text. Rule failures and
// unmatched definitions are reported, never returned as errors.
func Evaluate(ctx context.Context, rt *Runtime, c classifications.Classification, text string) (*Evaluation, error) {
	defs, err := rt.Config.LoadDefinitions(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load data point definitions: %w", err)
	}

	eval := &Evaluation{
		DataPoints: make([]extraction.DataPoint, 0, len(defs)),
		Missing:    []string{},
		Failures:   []RuleFailure{},
	}

	if len(defs) == 0 {
		return eval, nil
	}

	ectx := extraction.NewContext(text)

	for _, def := range defs {
		switch out := rt.Extractor.Extract(def, ectx).(type) {
		case extraction.Matched:
			eval.DataPoints = append(eval.DataPoints, extraction.Coerce(def, out.Value))
		case extraction.InvalidRule:
			rt.Logger.WarnContext(ctx, "invalid data point rule", "key", def.Key, "reason", out.Reason)
			eval.Failures = append(eval.Failures, RuleFailure{
				DefinitionID: def.ID,
				Key:          def.Key,
				Reason:       out.Reason,
			})
		case extraction.NoMatch:
			if def.Required {
				rt.Logger.DebugContext(ctx, "required data point not found", "key", def.Key)
				eval.Missing = append(eval.Missing, def.Key)
			}
		}
	}

	return eval, nil
}
