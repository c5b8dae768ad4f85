// Package pdf provides utilities for reading and extracting text from PDF files.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts all text from a PDF reader, one page per line block.
// Pages whose text cannot be decoded contribute an empty string.
func ExtractText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty pdf")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	n := reader.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, pageText(reader.Page(i)))
	}
	return strings.Join(pages, "\n"), nil
}

func pageText(page pdf.Page) (text string) {
	if page.V.IsNull() {
		return ""
	}
	// ledongthuc/pdf panics on some malformed content streams.
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}
