// Package summarize produces deterministic extractive summaries by ranking
// sentences with a TF-IDF score and a bias toward the opening sentences.
package summarize

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

const (
	// DefaultMaxSentences is used when a non-positive limit is requested.
	DefaultMaxSentences = 5
	// MaxSentences caps how many sentences are considered.
	MaxSentences = 500

	leadSentences = 3
	leadBonus     = 0.5
	minTokenLen   = 3
)

type scored struct {
	index int
	score float64
}

// Summarize returns up to maxSentences sentences of text, highest scoring
// first by selection and in original order in the output.
func Summarize(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}

	sentences := Sentences(text)
	if len(sentences) == 0 {
		return ""
	}
	if len(sentences) <= maxSentences {
		return strings.Join(sentences, " ")
	}

	docs := make([][]string, len(sentences))
	df := make(map[string]int)

	for i, s := range sentences {
		docs[i] = Tokenize(s)

		seen := make(map[string]bool, len(docs[i]))
		for _, tok := range docs[i] {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	n := float64(len(sentences))
	ranked := make([]scored, len(sentences))

	for i, tokens := range docs {
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}

		var score float64
		for _, tok := range tokens {
			tf := float64(counts[tok]) / float64(len(tokens))
			score += tf * math.Log(n/float64(df[tok]))
		}
		if i < leadSentences {
			score += leadBonus
		}

		ranked[i] = scored{index: i, score: score}
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	top := ranked[:maxSentences]
	slices.SortFunc(top, func(a, b scored) int {
		return cmp.Compare(a.index, b.index)
	})

	out := make([]string, len(top))
	for i, s := range top {
		out[i] = sentences[s.index]
	}
	return strings.Join(out, " ")
}

// Sentences splits text on whitespace runs that follow '.', '!' or '?'.
// Blank sentences are dropped and at most MaxSentences are returned.
// Sentences are not trimmed.
func Sentences(text string) []string {
	var out []string

	appendSentence := func(s string) {
		if strings.TrimSpace(s) != "" && len(out) < MaxSentences {
			out = append(out, s)
		}
	}

	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminal(text[i]) {
			continue
		}

		j := i + 1
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		if j == i+1 {
			continue
		}

		appendSentence(text[start : i+1])
		start = j
		i = j - 1
	}
	appendSentence(text[start:])

	return out
}

// Tokenize lower-cases s, replaces anything outside [a-z0-9] and ASCII
// whitespace with a space, and keeps tokens of at least three characters.
func Tokenize(s string) []string {
	normalized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r < 0x80 && isSpace(byte(r)):
			return r
		default:
			return ' '
		}
	}, strings.ToLower(s))

	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return r < 0x80 && isSpace(byte(r))
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
