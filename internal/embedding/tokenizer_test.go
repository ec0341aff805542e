package embedding

import "testing"

func TestSimpleTokenizer(t *testing.T) {
	tok := &SimpleTokenizer{}
	inputIDs, attentionMask, tokenTypeIDs := tok.Tokenize("hello world", 8)
	if len(inputIDs) != 8 || len(attentionMask) != 8 || len(tokenTypeIDs) != 8 {
		t.Fatalf("lengths: %d %d %d, want 8", len(inputIDs), len(attentionMask), len(tokenTypeIDs))
	}
	if inputIDs[0] != 101 {
		t.Errorf("expected [CLS] at 0, got %d", inputIDs[0])
	}
	if attentionMask[0] != 1 || attentionMask[1] != 1 || attentionMask[2] != 1 {
		t.Errorf("attention mask not set for tokens: %v", attentionMask)
	}
	if inputIDs[3] != 102 {
		t.Errorf("expected [SEP] after words, got %d", inputIDs[3])
	}
}

func TestSimpleTokenizerTruncates(t *testing.T) {
	tok := &SimpleTokenizer{}
	inputIDs, _, _ := tok.Tokenize("a b c d e f g h i j", 4)
	if len(inputIDs) != 4 {
		t.Fatalf("length: got %d, want 4", len(inputIDs))
	}
}

func TestHashStringNonNegative(t *testing.T) {
	for _, s := range []string{"", "a", "hello world", "日本語"} {
		if HashString(s) < 0 {
			t.Errorf("HashString(%q) negative", s)
		}
	}
	if HashString("abc") != HashString("abc") {
		t.Error("HashString not deterministic")
	}
}
