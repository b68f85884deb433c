package textstats

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/BNTiyan/ai-checker/internal/models"
)

// InsufficientTextError indicates the input has too few words to analyze
type InsufficientTextError struct {
	Words    int
	Required int
}

func (e *InsufficientTextError) Error() string {
	return fmt.Sprintf("insufficient text: %d words, minimum %d required", e.Words, e.Required)
}

var (
	nonWordRe  = regexp.MustCompile(`[^\w\s]`)
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
)

// Compute derives corpus-level statistics from normalized text. Deterministic,
// no side effects. Fails when the word count is below minWords.
func Compute(text string, minWords int) (models.TextMetrics, error) {
	words := ExtractWords(text)
	if len(words) < minWords {
		return models.TextMetrics{}, &InsufficientTextError{Words: len(words), Required: minWords}
	}

	sentences := SplitSentences(text)

	m := models.TextMetrics{
		TotalWords:      len(words),
		TotalCharacters: len(text),
		TotalSentences:  len(sentences),
	}

	lengths := make([]float64, 0, len(sentences))
	for _, s := range sentences {
		lengths = append(lengths, float64(len(strings.Fields(s))))
	}
	m.AvgSentenceLength = round2(mean(lengths))
	m.SentenceLengthVariance = round2(variance(lengths))
	m.UniqueWordRatio = round2(uniqueRatio(words))
	m.FleschReadingEase = fleschReadingEase(text, len(words), len(sentences))
	m.FleschKincaidGrade = fleschKincaidGrade(text, len(words), len(sentences))

	return m, nil
}

// ExtractWords extracts all words from text, lowercased, punctuation stripped
func ExtractWords(text string) []string {
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, " ")
	return strings.Fields(text)
}

// SplitSentences splits text into sentences on terminal punctuation. Always
// returns at least one sentence for non-blank input.
func SplitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, strings.TrimSpace(s))
		}
	}
	if len(sentences) == 0 && strings.TrimSpace(text) != "" {
		sentences = []string{strings.TrimSpace(text)}
	}
	return sentences
}

// fleschReadingEase calculates the Flesch Reading Ease score
func fleschReadingEase(text string, wordCount, sentenceCount int) float64 {
	if wordCount == 0 || sentenceCount == 0 {
		return 0
	}

	syllableCount := countSyllables(text)
	avgWordsPerSentence := float64(wordCount) / float64(sentenceCount)
	avgSyllablesPerWord := float64(syllableCount) / float64(wordCount)

	score := 206.835 - 1.015*avgWordsPerSentence - 84.6*avgSyllablesPerWord
	return round2(score)
}

// fleschKincaidGrade calculates the Flesch-Kincaid grade level
func fleschKincaidGrade(text string, wordCount, sentenceCount int) float64 {
	if wordCount == 0 || sentenceCount == 0 {
		return 0
	}

	syllableCount := countSyllables(text)
	avgWordsPerSentence := float64(wordCount) / float64(sentenceCount)
	avgSyllablesPerWord := float64(syllableCount) / float64(wordCount)

	grade := 0.39*avgWordsPerSentence + 11.8*avgSyllablesPerWord - 15.59
	return round2(grade)
}

// countSyllables counts syllables in text (simplified approximation)
func countSyllables(text string) int {
	count := 0
	for _, word := range ExtractWords(text) {
		count += countSyllablesInWord(word)
	}
	return count
}

// countSyllablesInWord counts syllables in a single word
func countSyllablesInWord(word string) int {
	word = strings.ToLower(word)
	if len(word) == 0 {
		return 0
	}

	count := 0
	vowels := "aeiouy"
	prevWasVowel := false

	for _, char := range word {
		isVowel := strings.ContainsRune(vowels, char)
		if isVowel && !prevWasVowel {
			count++
		}
		prevWasVowel = isVowel
	}

	// Adjust for silent e
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}

	if count == 0 {
		count = 1
	}

	return count
}

func uniqueRatio(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	unique := make(map[string]bool, len(words))
	for _, w := range words {
		unique[w] = true
	}
	return float64(len(unique)) / float64(len(words))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	total := 0.0
	for _, x := range xs {
		total += (x - m) * (x - m)
	}
	return total / float64(len(xs))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
