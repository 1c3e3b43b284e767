package summarize_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/JaimeStill/docai/internal/summarize"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "   \n ", nil},
		{"single", "Just one sentence", []string{"Just one sentence"}},
		{"terminals", "One. Two! Three? Four", []string{"One.", "Two!", "Three?", "Four"}},
		{"whitespace runs", "One.\n\n  Two.", []string{"One.", "Two."}},
		{"no space after dot", "v1.2 is out. Yes", []string{"v1.2 is out.", "Yes"}},
		{"leading whitespace kept", "  Lead. Next", []string{"  Lead.", "Next"}},
		{"trailing whitespace", "End.  ", []string{"End."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarize.Sentences(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sentences(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSentencesCap(t *testing.T) {
	text := strings.Repeat("Word here. ", summarize.MaxSentences+20)
	if got := len(summarize.Sentences(text)); got != summarize.MaxSentences {
		t.Errorf("sentences = %d, want %d", got, summarize.MaxSentences)
	}
}

func TestTokenize(t *testing.T) {
	got := summarize.Tokenize("The Invoice #4521, due 2024-03-01: PAY now!")
	want := []string{"the", "invoice", "4521", "due", "2024", "pay", "now"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %q, want %q", got, want)
	}
}

func TestSummarizeShortText(t *testing.T) {
	text := "First line.\n\nSecond line!   Third?"
	got := summarize.Summarize(text, 5)
	want := "First line. Second line! Third?"
	if got != want {
		t.Errorf("Summarize = %q, want %q", got, want)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := summarize.Summarize("", 5); got != "" {
		t.Errorf("Summarize(\"\") = %q, want empty", got)
	}
}

func TestSummarizeSelectsTopSentences(t *testing.T) {
	text := strings.Join([]string{
		"Alpha opening statement.",
		"Beta second statement.",
		"Gamma third statement.",
		"Common words statement.",
		"Unique zebra quokka narwhal.",
		"Common words statement.",
	}, " ")

	got := summarize.Summarize(text, 4)
	want := "Alpha opening statement. Beta second statement. Gamma third statement. Unique zebra quokka narwhal."
	if got != want {
		t.Errorf("Summarize = %q, want %q", got, want)
	}
}

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	text := "One one. Two two. Three three. Rare distinct words here. Common. Common."
	got := summarize.Summarize(text, 2)

	sentences := summarize.Sentences(got)
	if len(sentences) != 2 {
		t.Fatalf("sentences = %d, want 2", len(sentences))
	}
	if strings.Index(text, sentences[0]) > strings.Index(text, sentences[1]) {
		t.Errorf("summary %q is not in original order", got)
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	text := strings.Repeat("Revenue grew in the third quarter. Costs fell sharply. Analysts expect more growth! ", 4)

	first := summarize.Summarize(text, 3)
	second := summarize.Summarize(text, 3)
	if first != second {
		t.Errorf("Summarize is not deterministic: %q vs %q", first, second)
	}
	if again := summarize.Summarize(first, 3); again != first {
		t.Errorf("Summarize(summary) = %q, want %q", again, first)
	}
}

func TestSummarizeDefaultLimit(t *testing.T) {
	text := "A one. B two. C three. D four. E five. F six. G seven."
	got := summarize.Sentences(summarize.Summarize(text, 0))
	if len(got) != summarize.DefaultMaxSentences {
		t.Errorf("sentences = %d, want %d", len(got), summarize.DefaultMaxSentences)
	}
}
