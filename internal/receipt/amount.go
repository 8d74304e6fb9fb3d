package receipt

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Source identifies which pattern family produced an amount match
type Source int

const (
	SourceGeneric Source = iota
	SourceBare
	SourceCurrency
	SourceDirection
)

func (s Source) String() string {
	switch s {
	case SourceBare:
		return "bare"
	case SourceCurrency:
		return "currency"
	case SourceDirection:
		return "direction"
	}
	return "generic"
}

// AmountMatch is one in-range monetary value found in recognized text
type AmountMatch struct {
	Value  decimal.Decimal
	Raw    string
	Source Source
	Offset int
}

var maxAmount = decimal.NewFromInt(1_000_000)

var errNoDigits = errors.New("no digits in amount")

// lookalikes undoes the letter/digit confusions OCR makes on receipt photos
var lookalikes = strings.NewReplacer(
	"o", "0", "O", "0",
	"l", "1", "L", "1", "I", "1",
	"s", "5", "S", "5",
	"g", "6", "G", "6",
	"z", "2", "Z", "2",
)

// Normalize returns a copy of text with lookalike letters replaced by digits.
// The result is only meant for numeric matching.
func Normalize(text string) string {
	return lookalikes.Replace(text)
}

// tolerantClasses mirror lookalikes so phrases still match after Normalize
var tolerantClasses = map[rune]string{
	'o': "[o0]",
	'l': "[l1]",
	'i': "[i1]",
	's': "[s5]",
	'g': "[g6]",
	'z': "[z2]",
}

// tolerant turns a literal phrase into a pattern that survives Normalize
func tolerant(phrase string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(phrase)) {
		switch {
		case tolerantClasses[r] != "":
			b.WriteString(tolerantClasses[r])
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteString(`\s+`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// numberExpr prefers thousands-grouped amounts so "1.234,56" is not cut at "1.23"
const numberExpr = `(\d{1,3}(?:[.,]\d{3})+[.,]\d{2}|\d+[.,]\d{2})`

type amountPattern struct {
	source Source
	re     *regexp.Regexp
}

// Extractor finds the transaction amount in noisy recognized text
type Extractor struct {
	patterns []amountPattern
	selector Selector
}

// NewExtractor compiles the pattern families for the configured currency and vocabulary
func NewExtractor(cfg Config) *Extractor {
	symbol := tolerant(cfg.CurrencySymbol)
	if symbol == "" {
		symbol = `\$`
	}

	var phrases []string
	for _, p := range append(append([]string(nil), cfg.Vocabulary.SentPhrases...), cfg.Vocabulary.ReceivedPhrases...) {
		if t := tolerant(p); t != "" {
			phrases = append(phrases, t)
		}
	}

	patterns := []amountPattern{
		{SourceCurrency, regexp.MustCompile(`(?i)` + symbol + `\s*` + numberExpr)},
	}
	if len(phrases) > 0 {
		patterns = append(patterns, amountPattern{
			SourceDirection,
			regexp.MustCompile(`(?i)(?:` + strings.Join(phrases, "|") + `)[\s\S]{0,50}?` + symbol + `\s*` + numberExpr),
		})
	}
	patterns = append(patterns,
		amountPattern{SourceBare, regexp.MustCompile(`(?i)` + numberExpr + `[ \t]*(?:\r?\n|$|` + symbol + `)`)},
		amountPattern{SourceGeneric, regexp.MustCompile(`(\d{1,3}(?:[.,]\d{3})*[.,]\d{2})`)},
	)

	selector := cfg.Selector
	if selector == nil {
		selector = SmallestAmount{}
	}
	return &Extractor{patterns: patterns, selector: selector}
}

// Candidates returns every in-range amount found by any pattern family.
// Families do not short-circuit each other.
func (e *Extractor) Candidates(text string) []AmountMatch {
	clean := Normalize(text)
	var out []AmountMatch
	for _, p := range e.patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(clean, -1) {
			start, end := loc[2], loc[3]
			if start < 0 || !standalone(clean, start, end) {
				continue
			}
			raw := clean[start:end]
			value, err := ParseAmount(raw)
			if err != nil || !InRange(value) {
				continue
			}
			out = append(out, AmountMatch{Value: value, Raw: raw, Source: p.source, Offset: start})
		}
	}
	return out
}

// Extract returns the selected amount, or false when no valid amount survives
func (e *Extractor) Extract(text string) (decimal.Decimal, bool) {
	match, ok := e.selector.Select(e.Candidates(text))
	if !ok {
		return decimal.Zero, false
	}
	return match.Value, true
}

// standalone rejects numbers that are a fragment of a longer digit run
func standalone(text string, start, end int) bool {
	if start > 0 {
		prev := text[start-1]
		if isDigit(prev) {
			return false
		}
		if (prev == '.' || prev == ',') && start > 1 && isDigit(text[start-2]) {
			return false
		}
	}
	if end < len(text) && isDigit(text[end]) {
		return false
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ParseAmount keeps only digits and separators, strips thousands separators and
// treats a final separator followed by exactly two digits as the decimal point.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, raw)

	intPart, frac := cleaned, ""
	if sep := strings.LastIndexAny(cleaned, ".,"); sep >= 0 && len(cleaned)-sep-1 == 2 {
		intPart, frac = cleaned[:sep], cleaned[sep+1:]
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" && frac == "" {
		return decimal.Zero, errNoDigits
	}
	if intPart == "" {
		intPart = "0"
	}
	if frac != "" {
		intPart += "." + frac
	}
	return decimal.NewFromString(intPart)
}

// InRange reports whether v is a plausible transaction amount: 0 < v < 1,000,000
func InRange(v decimal.Decimal) bool {
	return v.IsPositive() && v.LessThan(maxAmount)
}

// Values returns the distinct matched values in ascending order
func Values(matches []AmountMatch) []decimal.Decimal {
	var out []decimal.Decimal
	for _, m := range matches {
		dup := false
		for _, v := range out {
			if v.Equal(m.Value) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, m.Value)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	return out
}

// Selector picks the transaction amount among the matches
type Selector interface {
	Select(matches []AmountMatch) (AmountMatch, bool)
}

// SmallestAmount picks the smallest value. On typical receipt layouts the
// larger numbers that survive the range filter are ids, codes or account numbers.
type SmallestAmount struct{}

func (SmallestAmount) Select(matches []AmountMatch) (AmountMatch, bool) {
	if len(matches) == 0 {
		return AmountMatch{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Value.LessThan(best.Value) {
			best = m
		}
	}
	return best, true
}

// ContextualAmount prefers the match found closest to a transfer phrase or
// currency marker and falls back to the smallest value on ties.
type ContextualAmount struct{}

func (ContextualAmount) Select(matches []AmountMatch) (AmountMatch, bool) {
	if len(matches) == 0 {
		return AmountMatch{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		switch {
		case m.Source > best.Source:
			best = m
		case m.Source == best.Source && m.Value.LessThan(best.Value):
			best = m
		}
	}
	return best, true
}
