package scanning

import "context"

// Options are the OCR parameters for one image
type Options struct {
	// Language is the OCR language code, e.g. "por"
	Language string
	// Whitelist restricts recognized characters; empty means no restriction
	Whitelist string
}

// Recognizer defines the interface for OCR engines
type Recognizer interface {
	// Recognize converts the image at imagePath into text
	Recognize(ctx context.Context, imagePath string, opts Options) (string, error)
	// Close releases engine resources
	Close() error
}
