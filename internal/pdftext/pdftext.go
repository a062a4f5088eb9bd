package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/gemtrack/bid-tracker/internal/common"
)

// Extractor pulls the text layer out of bid PDFs. It satisfies the batch
// coordinator's TextExtractor contract.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// ExtractFile reads the file at path and extracts its text layer.
func (e *Extractor) ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	return Extract(data)
}

// Extract extracts the text layer from in-memory PDF data. Pages that fail
// to decode are skipped; a document with no extractable text at all is an
// error (unreadable source).
func Extract(data []byte) (string, error) {
	reader := bytes.NewReader(data)

	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	extractedText := strings.TrimSpace(textBuilder.String())

	if extractedText == "" {
		return "", fmt.Errorf("no text could be extracted from PDF: %w", common.ErrUnreadable)
	}

	return extractedText, nil
}
