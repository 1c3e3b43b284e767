// Package rules compiles stored classification patterns into an immutable
// snapshot of ready-to-evaluate matchers.
//
// Patterns come from administrators and are treated as untrusted: every
// compiled expression carries a match timeout, and patterns that fail to
// compile are dropped rather than reported as errors to the caller.
package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/classifications"
)

// Compile builds a regular expression with multiline mode always enabled.
// A positive timeout bounds the duration of each match call.
func Compile(expr, flags string, timeout time.Duration) (*regexp2.Regexp, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, ErrEmptyPattern
	}

	opts, err := ParseFlags(flags)
	if err != nil {
		return nil, err
	}

	re, err := regexp2.Compile(expr, opts|regexp2.Multiline)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	return re, nil
}

// Matcher is a compiled classification pattern.
type Matcher struct {
	PatternID uuid.UUID
	Source    string
	re        *regexp2.Regexp
}

// NewMatcher compiles a single pattern.
func NewMatcher(p classifications.Pattern, timeout time.Duration) (Matcher, error) {
	var flags string
	if p.Flags != nil {
		flags = *p.Flags
	}

	re, err := Compile(p.Pattern, flags, timeout)
	if err != nil {
		return Matcher{}, err
	}

	return Matcher{PatternID: p.ID, Source: p.Pattern, re: re}, nil
}

// Match reports whether the pattern matches anywhere in text.
// A match that exceeds the time budget returns an error.
func (m Matcher) Match(text string) (bool, error) {
	return m.re.MatchString(text)
}

// Candidate is a classification with at least one compiled pattern.
type Candidate struct {
	Classification classifications.Classification
	Matchers       []Matcher
}

// Dropped records a pattern that failed to compile.
type Dropped struct {
	ClassificationID uuid.UUID
	PatternID        uuid.UUID
	Pattern          string
	Err              error
}

// Source pairs a classification with its stored patterns.
type Source struct {
	Classification classifications.Classification
	Patterns       []classifications.Pattern
}

// Snapshot is an immutable set of candidates in source order.
// It is safe for concurrent use.
type Snapshot struct {
	candidates []Candidate
	dropped    []Dropped
	excluded   []uuid.UUID
}

// Candidates returns the candidates in the order their sources were given.
func (s *Snapshot) Candidates() []Candidate {
	out := make([]Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Dropped returns the patterns that failed to compile.
func (s *Snapshot) Dropped() []Dropped {
	out := make([]Dropped, len(s.dropped))
	copy(out, s.dropped)
	return out
}

// Excluded returns the ids of classifications left with no compiled pattern.
func (s *Snapshot) Excluded() []uuid.UUID {
	out := make([]uuid.UUID, len(s.excluded))
	copy(out, s.excluded)
	return out
}

// Store loads classification configuration.
type Store interface {
	LoadClassifications(ctx context.Context) ([]classifications.Classification, error)
	LoadPatterns(ctx context.Context, classificationID uuid.UUID) ([]classifications.Pattern, error)
}

// Compiler turns stored configuration into snapshots.
type Compiler struct {
	timeout time.Duration
}

// NewCompiler creates a Compiler whose matchers are bounded by timeout per match.
func NewCompiler(timeout time.Duration) *Compiler {
	return &Compiler{timeout: timeout}
}

// Timeout returns the per-match time budget.
func (c *Compiler) Timeout() time.Duration {
	return c.timeout
}

// Compile builds a snapshot from sources. Candidate order follows source order;
// classifications whose patterns all fail to compile are excluded.
func (c *Compiler) Compile(sources []Source) *Snapshot {
	snap := &Snapshot{
		candidates: make([]Candidate, 0, len(sources)),
	}

	for _, src := range sources {
		matchers := make([]Matcher, 0, len(src.Patterns))

		for _, p := range src.Patterns {
			m, err := NewMatcher(p, c.timeout)
			if err != nil {
				snap.dropped = append(snap.dropped, Dropped{
					ClassificationID: src.Classification.ID,
					PatternID:        p.ID,
					Pattern:          p.Pattern,
					Err:              err,
				})
				continue
			}
			matchers = append(matchers, m)
		}

		if len(matchers) == 0 {
			snap.excluded = append(snap.excluded, src.Classification.ID)
			continue
		}

		snap.candidates = append(snap.candidates, Candidate{
			Classification: src.Classification,
			Matchers:       matchers,
		})
	}

	return snap
}

// Load reads every classification and its patterns from store and compiles them.
func (c *Compiler) Load(ctx context.Context, store Store) (*Snapshot, error) {
	items, err := store.LoadClassifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("load classifications: %w", err)
	}

	sources := make([]Source, 0, len(items))
	for _, item := range items {
		patterns, err := store.LoadPatterns(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("load patterns for %s: %w", item.Name, err)
		}
		sources = append(sources, Source{Classification: item, Patterns: patterns})
	}

	return c.Compile(sources), nil
}
