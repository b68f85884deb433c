// Package extract turns raw document bytes into normalized UTF-8 text. The
// pipeline itself only ever sees the resulting text.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractionError indicates the document bytes could not be turned into text
// (empty, unsupported, or corrupt input)
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PDFText extracts plain text from PDF bytes, page by page. Pages without
// extractable text are skipped; a document with no extractable text at all
// fails with ExtractionError (scanned-image PDFs land here — OCR is out of
// scope).
func PDFText(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", &ExtractionError{Reason: "empty input"}
	}

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", &ExtractionError{Reason: "corrupt or unsupported PDF", Err: err}
	}

	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	text := Normalize(b.String())
	if text == "" {
		return "", &ExtractionError{Reason: "no extractable text found in PDF"}
	}
	return text, nil
}

// Normalize collapses runs of whitespace and trims blank lines, yielding the
// normalized form the pipeline fingerprints and analyzes
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, strings.Join(strings.Fields(line), " "))
	}
	return strings.Join(out, "\n")
}
