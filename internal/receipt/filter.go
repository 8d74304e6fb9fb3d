package receipt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoMedia   = errors.New("attachment data is absent")
	ErrSticker   = errors.New("attachment is a sticker")
	ErrMediaType = errors.New("attachment type is not accepted")
	ErrTooSmall  = errors.New("attachment is too small to be a receipt")
)

// imageTypes are matched by substring so variants such as "image/jpg" pass
var imageTypes = []string{"image/jpeg", "image/jpg", "image/png"}

var documentTypes = []string{"application/pdf", "image/heic", "image/heif"}

// Filter rejects attachments that cannot be receipts before any OCR work is done.
// It only inspects metadata.
type Filter struct {
	minBytes int
	types    []string
}

// NewFilter creates a Filter from the pipeline configuration
func NewFilter(cfg Config) Filter {
	types := append([]string(nil), imageTypes...)
	if cfg.AcceptDocuments {
		types = append(types, documentTypes...)
	}
	return Filter{
		minBytes: cfg.MinImageBytes,
		types:    types,
	}
}

// Check returns nil when the candidate may be a receipt, otherwise the reason it was rejected
func (f Filter) Check(c Candidate) error {
	if len(c.Data) == 0 {
		return ErrNoMedia
	}
	if c.Kind == KindSticker {
		return ErrSticker
	}

	mediaType := strings.ToLower(c.MediaType)
	accepted := false
	for _, t := range f.types {
		if strings.Contains(mediaType, t) {
			accepted = true
			break
		}
	}
	if !accepted {
		return fmt.Errorf("%w: %q", ErrMediaType, c.MediaType)
	}

	if c.ByteSize() < f.minBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooSmall, c.ByteSize())
	}
	return nil
}

// Valid reports whether the candidate passes the filter
func (f Filter) Valid(c Candidate) bool {
	return f.Check(c) == nil
}
