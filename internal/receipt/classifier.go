package receipt

import "log/slog"

// Classifier runs the text stages of the pipeline: receipt detection,
// amount extraction and label inference.
type Classifier struct {
	detector  *Detector
	extractor *Extractor
	labeler   Labeler
}

// NewClassifier creates a Classifier from the pipeline configuration
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		detector:  NewDetector(cfg.keywords(), cfg.MinKeywords),
		extractor: NewExtractor(cfg),
		labeler:   NewLabeler(cfg.Vocabulary),
	}
}

// Classify decides what recognized text represents. Keyword detection runs
// on the original text, amount matching on the normalized copy.
func (c *Classifier) Classify(text string) Outcome {
	keywords := c.detector.Matches(text)
	if len(keywords) < c.detector.min {
		return Outcome{Status: StatusNotReceipt, Keywords: keywords}
	}

	candidates := c.extractor.Candidates(text)
	slog.Debug("Amount candidates", "values", Values(candidates), "count", len(candidates))

	match, ok := c.extractor.selector.Select(candidates)
	if !ok {
		return Outcome{Status: StatusNoAmount, Keywords: keywords}
	}

	label, direction := c.labeler.Infer(text)
	return Outcome{
		Status:    StatusClassified,
		Amount:    match.Value,
		Label:     label,
		Direction: direction,
		Keywords:  keywords,
	}
}
