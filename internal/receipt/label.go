package receipt

import "strings"

// Labeler maps receipt text to a short category label.
// Rules are checked in order and the first phrase found wins.
type Labeler struct {
	rules    []LabelRule
	fallback string
}

// NewLabeler creates a Labeler from a vocabulary
func NewLabeler(v Vocabulary) Labeler {
	return Labeler{rules: v.Labels, fallback: v.Fallback}
}

// Infer returns the label and transfer direction for text
func (l Labeler) Infer(text string) (string, Direction) {
	lower := strings.ToLower(text)
	for _, rule := range l.rules {
		if rule.Phrase != "" && strings.Contains(lower, strings.ToLower(rule.Phrase)) {
			return rule.Label, rule.Direction
		}
	}
	return l.fallback, DirectionUnknown
}
