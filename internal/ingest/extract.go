package ingest

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"proprag/internal/util"

	"github.com/ledongthuc/pdf"
)

// scannedTextFloor is the extracted-character count below which a PDF is
// assumed to be a scanned image without an OCR layer.
const scannedTextFloor = 50

// ExtractTextFromFile reads a document file and returns sanitized plain text.
// PDFs go through the pdf library; everything else is treated as UTF-8 text.
func ExtractTextFromFile(path string) (string, error) {
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return extractTextFromPDF(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	text := util.SanitizeText(string(data))
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}

func extractTextFromPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(buf.String())
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	if utf8.RuneCountInString(text) < scannedTextFloor {
		return "", util.ErrScannedDocument
	}
	return text, nil
}
