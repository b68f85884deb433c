package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/BNTiyan/ai-checker/internal/models"
)

// Chunker splits normalized text into ordered, non-overlapping spans bounded
// by [MinChars, MaxChars]. Breaks happen preferentially at sentence
// boundaries, then at whitespace, then at the byte limit. Concatenating all
// chunk texts in order reconstructs the input exactly.
type Chunker struct {
	MinChars int
	MaxChars int
}

// New creates a Chunker with the given size bounds
func New(minChars, maxChars int) *Chunker {
	if minChars < 1 {
		minChars = 1
	}
	if maxChars < minChars {
		maxChars = minChars
	}
	return &Chunker{MinChars: minChars, MaxChars: maxChars}
}

// Split produces the chunk sequence for text. Any non-empty input yields at
// least one chunk; trailing text is never dropped. The final chunk may be
// shorter than MinChars.
func (c *Chunker) Split(text string) []models.Chunk {
	if text == "" {
		return nil
	}

	var chunks []models.Chunk
	pos := 0
	for pos < len(text) {
		remaining := len(text) - pos
		size := remaining
		if remaining > c.MaxChars {
			size = c.cutPoint(text[pos : pos+c.MaxChars])
		}

		chunks = append(chunks, models.Chunk{
			Index:     len(chunks),
			Text:      text[pos : pos+size],
			CharStart: pos,
			CharEnd:   pos + size,
		})
		pos += size
	}
	return chunks
}

// cutPoint picks where to end the next chunk within window, which is exactly
// MaxChars long. Prefers the last sentence terminator at or past MinChars,
// then the last whitespace, then a rune-aligned hard cut.
func (c *Chunker) cutPoint(window string) int {
	for i := len(window) - 1; i >= c.MinChars-1; i-- {
		if isTerminator(window[i]) && !isTerminator(byteAt(window, i+1)) {
			return i + 1
		}
	}

	if ws := strings.LastIndexFunc(window, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}); ws >= c.MinChars-1 {
		return ws + 1
	}

	// No boundary inside the bound; hard cut on a rune boundary
	cut := len(window)
	for cut > 1 && !utf8.RuneStart(window[cut-1]) {
		cut--
	}
	return cut
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// byteAt returns the byte at i or 0 past the end, so a run of terminators
// ("...", "?!") is never split in the middle.
func byteAt(s string, i int) byte {
	if i >= len(s) {
		return 0
	}
	return s[i]
}
