package plagiarism

import "testing"

func TestSimilarityIdentical(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog near the river bank"
	if got := Similarity(text, text, 3); got != 100 {
		t.Errorf("identical text should score 100, got %v", got)
	}
}

func TestSimilarityContainedSnippet(t *testing.T) {
	chunk := "Climate change is a pressing global issue and scientists have documented " +
		"a steady rise in global average temperatures since the late nineteenth century"
	snippet := "scientists have documented a steady rise in global average temperatures"

	if got := Similarity(chunk, snippet, 3); got < 90 {
		t.Errorf("verbatim snippet inside a longer chunk should score at least 90, got %v", got)
	}
}

func TestSimilarityUnrelated(t *testing.T) {
	a := "quantum entanglement describes correlated particle states across distance"
	b := "the recipe calls for flour butter sugar and three fresh eggs"

	if got := Similarity(a, b, 3); got > 10 {
		t.Errorf("unrelated text should score near zero, got %v", got)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a := "machine learning models require large training datasets to generalize"
	b := "large training datasets help machine learning models generalize well"

	if Similarity(a, b, 3) != Similarity(b, a, 3) {
		t.Error("similarity should be symmetric")
	}
}

func TestSimilarityEmpty(t *testing.T) {
	if got := Similarity("", "some text", 3); got != 0 {
		t.Errorf("empty input should score 0, got %v", got)
	}
	if got := Similarity("some text", "", 3); got != 0 {
		t.Errorf("empty input should score 0, got %v", got)
	}
}

func TestSimilarityShortTextFallsBackToUnigrams(t *testing.T) {
	// Both sides shorter than the n-gram size
	if got := Similarity("hello world", "hello world", 3); got != 100 {
		t.Errorf("identical short text should still score 100, got %v", got)
	}
}

func TestSimilarityRange(t *testing.T) {
	pairs := [][2]string{
		{"one two three four five", "three four five six seven"},
		{"alpha beta gamma delta epsilon zeta", "alpha beta gamma"},
		{"completely different words here", "nothing shared at all"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1], 3)
		if got < 0 || got > 100 {
			t.Errorf("Similarity(%q, %q) = %v, out of range", p[0], p[1], got)
		}
	}
}
