package workflow_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/classifications"
	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/internal/extraction"
	"github.com/JaimeStill/docai/internal/rules"
	"github.com/JaimeStill/docai/internal/workflow"
)

type mockText struct {
	extractFn func(ctx context.Context, doc *documents.Document) (string, error)
}

func (m *mockText) Extract(ctx context.Context, doc *documents.Document) (string, error) {
	return m.extractFn(ctx, doc)
}

type mockConfig struct {
	classifications []classifications.Classification
	patterns        map[uuid.UUID][]classifications.Pattern
	definitions     map[uuid.UUID][]classifications.Definition
}

func newMockConfig() *mockConfig {
	return &mockConfig{
		patterns:    make(map[uuid.UUID][]classifications.Pattern),
		definitions: make(map[uuid.UUID][]classifications.Definition),
	}
}

func (m *mockConfig) add(name string, priority int, threshold float64, patterns ...string) classifications.Classification {
	id, _ := uuid.NewV7()
	c := classifications.Classification{ID: id, Name: name, Priority: priority, Threshold: threshold}
	m.classifications = append(m.classifications, c)

	for _, p := range patterns {
		pid, _ := uuid.NewV7()
		m.patterns[id] = append(m.patterns[id], classifications.Pattern{ID: pid, ClassificationID: id, Pattern: p})
	}
	return c
}

func (m *mockConfig) define(c classifications.Classification, key string, typ classifications.DataType, expr string) {
	id, _ := uuid.NewV7()
	m.definitions[c.ID] = append(m.definitions[c.ID], classifications.Definition{
		ID:               id,
		ClassificationID: c.ID,
		Key:              key,
		Type:             typ,
		RuleType:         classifications.RuleRegex,
		Expression:       expr,
	})
}

func (m *mockConfig) LoadClassifications(context.Context) ([]classifications.Classification, error) {
	return m.classifications, nil
}

func (m *mockConfig) LoadPatterns(_ context.Context, id uuid.UUID) ([]classifications.Pattern, error) {
	return m.patterns[id], nil
}

func (m *mockConfig) LoadDefinitions(_ context.Context, id uuid.UUID) ([]classifications.Definition, error) {
	return m.definitions[id], nil
}

func (m *mockConfig) ResolveByName(_ context.Context, name string) (*classifications.Classification, error) {
	for _, c := range m.classifications {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, classifications.ErrNotFound
}

type savedClassification struct {
	ClassificationID uuid.UUID
	Score            float64
}

type mockStore struct {
	mu sync.Mutex

	claimFn     func(ctx context.Context, id uuid.UUID) (*documents.Document, error)
	saveStateFn func(ctx context.Context, id uuid.UUID, status documents.Status) error
	listStaleFn func(ctx context.Context, before time.Time) ([]uuid.UUID, error)

	states          map[uuid.UUID][]documents.Status
	texts           map[uuid.UUID]string
	classifications map[uuid.UUID]savedClassification
	points          map[uuid.UUID][]extraction.DataPoint
	summaries       map[uuid.UUID]string
	cleared         map[uuid.UUID]int
}

func newMockStore() *mockStore {
	return &mockStore{
		states:          make(map[uuid.UUID][]documents.Status),
		texts:           make(map[uuid.UUID]string),
		classifications: make(map[uuid.UUID]savedClassification),
		points:          make(map[uuid.UUID][]extraction.DataPoint),
		summaries:       make(map[uuid.UUID]string),
		cleared:         make(map[uuid.UUID]int),
	}
}

func (m *mockStore) Claim(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	if m.claimFn != nil {
		return m.claimFn(ctx, id)
	}
	m.mu.Lock()
	m.states[id] = append(m.states[id], documents.StatusProcessing)
	m.mu.Unlock()
	return &documents.Document{ID: id, Filename: "doc.txt", Status: documents.StatusProcessing}, nil
}

func (m *mockStore) SaveState(ctx context.Context, id uuid.UUID, status documents.Status, _ time.Time) error {
	if m.saveStateFn != nil {
		if err := m.saveStateFn(ctx, id, status); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = append(m.states[id], status)
	return nil
}

func (m *mockStore) SaveRawText(_ context.Context, id uuid.UUID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[id] = text
	return nil
}

func (m *mockStore) SaveClassification(_ context.Context, id, classificationID uuid.UUID, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classifications[id] = savedClassification{ClassificationID: classificationID, Score: score}
	return nil
}

func (m *mockStore) ClearDataPoints(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared[id]++
	delete(m.points, id)
	return nil
}

func (m *mockStore) SaveDataPoint(_ context.Context, id uuid.UUID, p extraction.DataPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[id] = append(m.points[id], p)
	return nil
}

func (m *mockStore) SaveSummary(_ context.Context, id uuid.UUID, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[id] = summary
	return nil
}

func (m *mockStore) ListStale(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	if m.listStaleFn != nil {
		return m.listStaleFn(ctx, before)
	}
	return nil, nil
}

func (m *mockStore) lastState(id uuid.UUID) documents.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.states[id]
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

func staticText(text string) *mockText {
	return &mockText{
		extractFn: func(context.Context, *documents.Document) (string, error) {
			return text, nil
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRuntime(text workflow.TextExtractor, cfg *mockConfig, store *mockStore) *workflow.Runtime {
	return &workflow.Runtime{
		Text:         text,
		Config:       cfg,
		Store:        store,
		Compiler:     rules.NewCompiler(time.Second),
		Extractor:    extraction.New(time.Second, 0.9),
		Fallback:     classifications.UndefinedName,
		MaxSentences: 5,
		Logger:       discardLogger(),
	}
}
