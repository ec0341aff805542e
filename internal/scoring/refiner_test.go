package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// stubEmbedder returns fixed vectors per text so similarity outcomes are
// controlled exactly. Unknown texts get a vector orthogonal to the query.
type stubEmbedder struct {
	vectors map[string][]float32
	failOn  string
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.failOn != "" && text == e.failOn {
		return nil, errors.New("embed failed")
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 1}, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int { return 2 }
func (e *stubEmbedder) Close() error    { return nil }

// queryVec pairs with relevantVec (similarity 1) and irrelevantVec (similarity 0).
var (
	queryVec      = []float32{1, 0}
	relevantVec   = []float32{1, 0}
	irrelevantVec = []float32{0, 1}
)

func TestRefineKeepsDocumentOrder(t *testing.T) {
	// Eight sentences; positions 2, 5, and 7 are relevant.
	sentences := make([]string, 8)
	vectors := map[string][]float32{}
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Sentence number %d.", i)
		vectors[sentences[i]] = irrelevantVec
	}
	for _, i := range []int{2, 5, 7} {
		vectors[sentences[i]] = relevantVec
	}

	r := NewRefiner(&stubEmbedder{vectors: vectors}, 0.6, 10)
	got, err := r.Refine(context.Background(), strings.Join(sentences, " "), queryVec, "Title")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	want := sentences[2] + " " + sentences[5] + " " + sentences[7]
	if got != want {
		t.Errorf("Refine:\n got %q\nwant %q", got, want)
	}
}

func TestRefineCapsSentences(t *testing.T) {
	sentences := make([]string, 20)
	vectors := map[string][]float32{}
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Relevant sentence %d.", i)
		vectors[sentences[i]] = relevantVec
	}
	r := NewRefiner(&stubEmbedder{vectors: vectors}, 0.6, 10)
	got, err := r.Refine(context.Background(), strings.Join(sentences, " "), queryVec, "Title")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	want := strings.Join(sentences[:10], " ")
	if got != want {
		t.Errorf("excerpt not capped at 10 sentences:\n got %q\nwant %q", got, want)
	}
}

func TestRefineFallsBackToTitle(t *testing.T) {
	r := NewRefiner(&stubEmbedder{vectors: map[string][]float32{}}, 0.6, 10)
	ctx := context.Background()

	got, err := r.Refine(ctx, "Nothing relevant here. Still nothing.", queryVec, "Budget Overview")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if got != "Budget Overview" {
		t.Errorf("no qualifying sentences: got %q, want title", got)
	}

	got, err = r.Refine(ctx, "", queryVec, "Budget Overview")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if got != "Budget Overview" {
		t.Errorf("empty page: got %q, want title", got)
	}

	got, err = r.Refine(ctx, "   \n\t ", queryVec, "Budget Overview")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if got != "Budget Overview" {
		t.Errorf("whitespace page: got %q, want title", got)
	}
}

func TestRefinePropagatesEmbedFailure(t *testing.T) {
	r := NewRefiner(&stubEmbedder{failOn: "Bad sentence."}, 0.6, 10)
	if _, err := r.Refine(context.Background(), "Bad sentence.", queryVec, "Title"); err == nil {
		t.Fatal("expected embedding error to propagate")
	}
}

func TestNewRefinerDefaults(t *testing.T) {
	r := NewRefiner(&stubEmbedder{}, 0, 0)
	if r.threshold != DefaultRelevanceThreshold {
		t.Errorf("threshold: got %v, want %v", r.threshold, DefaultRelevanceThreshold)
	}
	if r.maxSentences != DefaultMaxSentences {
		t.Errorf("maxSentences: got %v, want %v", r.maxSentences, DefaultMaxSentences)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"simple",
			"First one. Second one! Third one?",
			[]string{"First one.", "Second one!", "Third one?"},
		},
		{
			"unterminated tail kept",
			"Complete sentence. Trailing fragment",
			[]string{"Complete sentence.", "Trailing fragment"},
		},
		{"empty", "", nil},
		{"whitespace only", "  \n\t  ", nil},
		{"no terminators", "just a heading line", []string{"just a heading line"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d sentences %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
