package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dslipak/pdf"
)

// extractPDF walks the provider chain: layout analysis first when
// configured, then managed OCR, then local parsing. Layout-analysis
// failures fall through without comment. OCR capability errors fall
// through silently as well; any other OCR error is remembered and
// re-surfaced if local parsing also fails, since it names the real
// problem.
func (e *Extractor) extractPDF(ctx context.Context, bucket, key string, data []byte) (Result, error) {
	if e.layout != nil && e.layout.Configured() {
		text, err := e.layout.Analyze(ctx, data)
		if err == nil {
			return Result{Text: text, Method: MethodAzure}, nil
		}
		e.log.Warn("layout analysis failed, falling back to OCR", "key", key, "error", err)
	}

	var ocrErr error
	if e.ocr != nil && e.ocr.Configured() {
		text, err := e.ocr.DetectText(ctx, bucket, key)
		if err == nil {
			return Result{Text: text, Method: MethodTextract}, nil
		}

		var capErr *CapabilityError
		if errors.As(err, &capErr) {
			e.log.Info("ocr unavailable, falling back to local parse", "key", key, "code", capErr.Code)
		} else {
			e.log.Warn("ocr failed, attempting local parse", "key", key, "error", err)
			ocrErr = err
		}
	}

	text, err := parsePDF(data)
	if err == nil {
		return Result{Text: text, Method: MethodPDFParse}, nil
	}
	if ocrErr != nil {
		return Result{}, ocrErr
	}
	return Result{}, err
}

// parsePDF extracts text locally without calling any provider.
func parsePDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf parse: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return buf.String(), nil
}
