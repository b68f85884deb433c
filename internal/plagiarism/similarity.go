package plagiarism

import (
	"math"

	"github.com/BNTiyan/ai-checker/internal/textstats"
)

// Similarity scores two text fragments on a 0-100 scale. The measure blends
// word-trigram overlap with unigram token overlap, both as overlap
// coefficients (intersection over the smaller set), so a snippet contained
// verbatim in a longer chunk still scores high. Symmetric; identical text
// scores 100.
func Similarity(a, b string, ngram int) float64 {
	wordsA := textstats.ExtractWords(a)
	wordsB := textstats.ExtractWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	unigram := overlapCoefficient(tokenSet(wordsA), tokenSet(wordsB))

	if len(wordsA) < ngram || len(wordsB) < ngram {
		return round2(unigram * 100)
	}

	tri := overlapCoefficient(ngramSet(wordsA, ngram), ngramSet(wordsB, ngram))
	return round2((0.5*tri + 0.5*unigram) * 100)
}

func tokenSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func ngramSet(words []string, n int) map[string]bool {
	set := make(map[string]bool)
	for i := 0; i+n <= len(words); i++ {
		key := words[i]
		for j := 1; j < n; j++ {
			key += " " + words[i+j]
		}
		set[key] = true
	}
	return set
}

func overlapCoefficient(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for k := range small {
		if large[k] {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
