package receipt

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Detector decides whether recognized text plausibly came from a payment confirmation.
// All keywords are matched in a single pass over the lower-cased text.
type Detector struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	min      int
}

// NewDetector builds the keyword automaton. min is the number of distinct
// keywords required to call the text a receipt.
func NewDetector(keywords []string, min int) *Detector {
	d := &Detector{min: min}
	for _, k := range keywords {
		k = strings.ToLower(k)
		if k != "" {
			d.keywords = append(d.keywords, k)
		}
	}
	if len(d.keywords) > 0 {
		d.matcher = ahocorasick.NewStringMatcher(d.keywords)
	}
	return d
}

// Matches returns the distinct keywords present in text, in vocabulary order
func (d *Detector) Matches(text string) []string {
	if d.matcher == nil {
		return nil
	}
	hits := d.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
	found := make([]bool, len(d.keywords))
	for _, idx := range hits {
		if idx >= 0 && idx < len(found) {
			found[idx] = true
		}
	}
	var out []string
	for i, ok := range found {
		if ok {
			out = append(out, d.keywords[i])
		}
	}
	return out
}

// IsReceipt reports whether at least min distinct keywords appear in text
func (d *Detector) IsReceipt(text string) bool {
	return len(d.Matches(text)) >= d.min
}
