package chunker

import (
	"strings"
	"testing"
)

func TestSplitRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"short text", "A single short sentence."},
		{"sentence boundaries", strings.Repeat("This is a sentence that ends cleanly. ", 40)},
		{"no boundaries", strings.Repeat("wordswithoutanybreaksatall", 30)},
		{"whitespace only breaks", strings.Repeat("many plain words with no terminators at all ", 25)},
		{"multibyte runes", strings.Repeat("héllo wörld with ünïcode çontent. ", 30)},
	}

	c := New(80, 200)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := c.Split(tt.text)
			if len(chunks) == 0 {
				t.Fatal("non-empty input must produce at least one chunk")
			}

			var b strings.Builder
			for i, chunk := range chunks {
				if chunk.Index != i {
					t.Errorf("chunk %d has index %d", i, chunk.Index)
				}
				if chunk.Text == "" {
					t.Errorf("chunk %d is empty", i)
				}
				if len(chunk.Text) > c.MaxChars {
					t.Errorf("chunk %d length %d exceeds max %d", i, len(chunk.Text), c.MaxChars)
				}
				if chunk.Text != tt.text[chunk.CharStart:chunk.CharEnd] {
					t.Errorf("chunk %d offsets do not match its text", i)
				}
				b.WriteString(chunk.Text)
			}

			if b.String() != tt.text {
				t.Error("concatenated chunks do not reconstruct the input")
			}
		})
	}
}

func TestSplitEmpty(t *testing.T) {
	if chunks := New(80, 200).Split(""); chunks != nil {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	// Two sentences, the first ending well inside the max bound
	text := strings.Repeat("x", 100) + ". " + strings.Repeat("y", 150)
	chunks := New(20, 200).Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, ".") {
		t.Errorf("first chunk should end at the sentence boundary, got %q tail", chunks[0].Text[len(chunks[0].Text)-5:])
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("Deterministic chunking keeps identical spans across runs. ", 20)
	c := New(80, 200)

	first := c.Split(text)
	second := c.Split(text)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
