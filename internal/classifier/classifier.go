// Package classifier scores raw document text against compiled classification
// patterns and selects the best-scoring candidate.
package classifier

import (
	"github.com/JaimeStill/docai/internal/classifications"
	"github.com/JaimeStill/docai/internal/rules"
)

// Result is the winning classification and its score.
type Result struct {
	Classification classifications.Classification `json:"classification"`
	Score          float64                        `json:"score"`
	Hits           int                            `json:"hits"`
	Total          int                            `json:"total"`
}

// Accepts reports whether the result meets its classification's threshold.
func (r Result) Accepts() bool {
	return r.Score >= r.Classification.Threshold
}

// Score computes hits/total plus the priority weight.
// A zero total scores zero.
func Score(hits, total, priority int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(hits)/float64(total) + float64(priority)/100.0
}

// Classify returns the highest-scoring candidate. Candidates without a
// matching pattern are not scored; equal scores keep the earlier candidate.
// The boolean is false when no candidate matched.
//
// A pattern whose match exceeds its time budget counts as no match.
func Classify(text string, candidates []rules.Candidate) (Result, bool) {
	var (
		best  Result
		found bool
	)

	for _, c := range candidates {
		total := len(c.Matchers)
		if total == 0 {
			continue
		}

		hits := 0
		for _, m := range c.Matchers {
			if ok, err := m.Match(text); err == nil && ok {
				hits++
			}
		}

		if hits == 0 {
			continue
		}

		score := Score(hits, total, c.Classification.Priority)
		if !found || score > best.Score {
			best = Result{
				Classification: c.Classification,
				Score:          score,
				Hits:           hits,
				Total:          total,
			}
			found = true
		}
	}

	return best, found
}
