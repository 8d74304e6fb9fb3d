package receipt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Arturleone/wa-financas/internal/scanning"
)

// NameGenerator generates scratch file names for images awaiting OCR
type NameGenerator interface {
	Generate() string
}

// defaultNameGenerator names files with a random UUID
type defaultNameGenerator struct{}

func (g *defaultNameGenerator) Generate() string {
	return "comprovante_" + uuid.NewString()
}

// Pipeline turns a media attachment into a classification outcome.
// Stages run strictly in order and stop at the first one that rejects.
type Pipeline struct {
	filter     Filter
	classifier *Classifier
	recognizer scanning.Recognizer
	storage    Storage
	options    scanning.Options
	names      NameGenerator
}

// NewPipeline creates a new Pipeline with the default name generator
func NewPipeline(cfg Config, recognizer scanning.Recognizer, storage Storage) *Pipeline {
	return NewPipelineWithDeps(cfg, recognizer, storage, &defaultNameGenerator{})
}

// NewPipelineWithDeps creates a new Pipeline with custom dependencies for testing
func NewPipelineWithDeps(cfg Config, recognizer scanning.Recognizer, storage Storage, names NameGenerator) *Pipeline {
	return &Pipeline{
		filter:     NewFilter(cfg),
		classifier: NewClassifier(cfg),
		recognizer: recognizer,
		storage:    storage,
		options: scanning.Options{
			Language:  cfg.Language,
			Whitelist: cfg.Whitelist,
		},
		names: names,
	}
}

// Process runs the candidate through filter, OCR and classification.
// It never returns an error directly: failures come back as StatusFailed.
func (p *Pipeline) Process(ctx context.Context, c Candidate) Outcome {
	if err := p.filter.Check(c); err != nil {
		slog.Debug("Media ignored", "message_id", c.MessageID, "reason", err)
		return Outcome{Status: StatusRejected, Err: err}
	}

	text, err := p.recognize(ctx, c)
	if err != nil {
		slog.Error("Failed to recognize receipt",
			"message_id", c.MessageID,
			"media_type", c.MediaType,
			"file_size", c.ByteSize(),
			"error", err,
		)
		return Outcome{Status: StatusFailed, Err: err}
	}
	slog.Debug("Recognized text", "message_id", c.MessageID, "text", text)

	out := p.classifier.Classify(text)
	slog.Info("Receipt classified",
		"message_id", c.MessageID,
		"status", out.Status,
		"keywords", len(out.Keywords),
	)
	return out
}

// recognize writes the image to scratch storage, runs OCR and removes the file
func (p *Pipeline) recognize(ctx context.Context, c Candidate) (string, error) {
	data, ext, err := scanning.Prepare(c.Data, c.MediaType)
	if err != nil {
		return "", fmt.Errorf("preparing image: %w", err)
	}

	path, err := p.storage.Save(p.names.Generate()+ext, data)
	if err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}
	defer func() {
		if err := p.storage.Delete(path); err != nil {
			slog.Warn("Failed to delete scratch image", "path", path, "error", err)
		}
	}()

	text, err := p.recognizer.Recognize(ctx, path, p.options)
	if err != nil {
		return "", fmt.Errorf("running OCR: %w", err)
	}
	return text, nil
}
