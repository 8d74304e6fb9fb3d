// Package tesseract provides the default OCR engine. It links against
// libtesseract through cgo, so it lives apart from the pure Go engines.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/Arturleone/wa-financas/internal/scanning"
)

// Tesseract implements scanning.Recognizer with a local Tesseract install
type Tesseract struct {
	tessdataPrefix string
}

// New creates a Tesseract recognizer. tessdataPrefix may be empty to use the
// system default language data.
func New(tessdataPrefix string) *Tesseract {
	return &Tesseract{tessdataPrefix: tessdataPrefix}
}

// Recognize runs OCR on the image at imagePath. A fresh client is used per call
// because gosseract clients are not safe for reuse across goroutines.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string, opts scanning.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataPrefix != "" {
		client.TessdataPrefix = t.tessdataPrefix
	}
	if opts.Language != "" {
		if err := client.SetLanguage(opts.Language); err != nil {
			return "", fmt.Errorf("setting language %q: %w", opts.Language, err)
		}
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			return "", fmt.Errorf("setting whitelist: %w", err)
		}
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("loading image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return text, nil
}

// Close is a no-op; clients are released after every call
func (t *Tesseract) Close() error {
	return nil
}
