// Package extract turns raw uploaded files into plain text, recording
// which provider produced the text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"code.sajari.com/docconv"

	"github.com/azeez-d3v/docqa/internal/docid"
)

// Method identifies the provider that produced the extracted text.
type Method string

const (
	MethodAzure    Method = "azure"
	MethodTextract Method = "textract"
	MethodPDFParse Method = "pdf-parse"
	MethodMammoth  Method = "mammoth"
	MethodText     Method = "text"
)

// Result carries extracted text plus its provenance.
type Result struct {
	Text   string
	Method Method
}

// CapabilityError marks a provider failure caused by missing
// permissions or subscriptions rather than by the document itself.
// The chain skips past these silently.
type CapabilityError struct {
	Code string
	Err  error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("provider unavailable (%s): %v", e.Code, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// LayoutAnalyzer extracts structured text from a PDF byte stream.
// Implemented by the document-intelligence adapter.
type LayoutAnalyzer interface {
	Configured() bool
	Analyze(ctx context.Context, data []byte) (string, error)
}

// TextDetector runs managed OCR against an object already in storage.
type TextDetector interface {
	Configured() bool
	DetectText(ctx context.Context, bucket, key string) (string, error)
}

// Extractor dispatches on file extension and, for PDFs, walks the
// provider chain.
type Extractor struct {
	layout LayoutAnalyzer
	ocr    TextDetector
	log    *slog.Logger
}

func NewExtractor(layout LayoutAnalyzer, ocr TextDetector, log *slog.Logger) *Extractor {
	return &Extractor{layout: layout, ocr: ocr, log: log}
}

// Extract converts the file at bucket/key into plain text. The raw
// bytes are passed in so the object is only fetched once; bucket and
// key are still needed for providers that read from storage directly.
// Unknown extensions are treated as plain text rather than rejected.
func (e *Extractor) Extract(ctx context.Context, bucket, key, filename string, data []byte) (Result, error) {
	switch docid.Ext(filename) {
	case ".pdf":
		return e.extractPDF(ctx, bucket, key, data)
	case ".docx":
		return e.extractDOCX(data)
	default:
		return Result{Text: string(data), Method: MethodText}, nil
	}
}

func (e *Extractor) extractDOCX(data []byte) (Result, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("docx extraction: %w", err)
	}
	return Result{Text: text, Method: MethodMammoth}, nil
}

// CleanText normalizes extracted text before chunking.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
