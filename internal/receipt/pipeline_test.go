package receipt

import (
	"bytes"
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Arturleone/wa-financas/internal/scanning"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockRecognizer struct {
	text     string
	err      error
	calls    int
	lastPath string
	lastOpts scanning.Options
}

func (m *mockRecognizer) Recognize(ctx context.Context, imagePath string, opts scanning.Options) (string, error) {
	m.calls++
	m.lastPath = imagePath
	m.lastOpts = opts
	return m.text, m.err
}

func (m *mockRecognizer) Close() error {
	return nil
}

type mockStorage struct {
	files   map[string][]byte
	saveErr error
	deleted []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: make(map[string][]byte)}
}

func (m *mockStorage) Save(filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	path := "/scratch/" + filename
	m.files[path] = data
	return path, nil
}

func (m *mockStorage) Delete(path string) error {
	delete(m.files, path)
	m.deleted = append(m.deleted, path)
	return nil
}

type mockNameGenerator struct {
	name string
}

func (m *mockNameGenerator) Generate() string {
	return m.name
}

var _ = Describe("Pipeline", func() {
	var (
		cfg        Config
		recognizer *mockRecognizer
		storage    *mockStorage
		pipeline   *Pipeline
		candidate  Candidate
		outcome    Outcome
	)

	BeforeEach(func() {
		cfg = DefaultConfig()
		recognizer = &mockRecognizer{text: "Comprovante Pix\nValor R$ 45,90"}
		storage = newMockStorage()
		candidate = Candidate{
			MessageID: "msg-1",
			MediaType: "image/jpeg",
			Data:      bytes.Repeat([]byte("x"), 6000),
			Kind:      KindImage,
		}
	})

	JustBeforeEach(func() {
		pipeline = NewPipelineWithDeps(cfg, recognizer, storage, &mockNameGenerator{name: "comprovante_test"})
		outcome = pipeline.Process(context.Background(), candidate)
	})

	When("the image is a readable receipt", func() {
		It("should classify it", func() {
			Expect(outcome.Status).To(Equal(StatusClassified))
			Expect(outcome.Amount.Equal(decimal.RequireFromString("45.90"))).To(BeTrue())
			Expect(outcome.Label).To(Equal("Comprovante automático"))
		})

		It("should run OCR on the scratch file", func() {
			Expect(recognizer.calls).To(Equal(1))
			Expect(recognizer.lastPath).To(Equal("/scratch/comprovante_test.jpg"))
		})

		It("should pass the language and whitelist to the engine", func() {
			Expect(recognizer.lastOpts.Language).To(Equal("por"))
			Expect(recognizer.lastOpts.Whitelist).To(Equal(DefaultWhitelist))
		})

		It("should remove the scratch file afterwards", func() {
			Expect(storage.files).To(BeEmpty())
			Expect(storage.deleted).To(ConsistOf("/scratch/comprovante_test.jpg"))
		})
	})

	When("the attachment is a sticker", func() {
		BeforeEach(func() {
			candidate.Kind = KindSticker
			candidate.Data = bytes.Repeat([]byte("x"), 120)
		})

		It("should reject it without running OCR", func() {
			Expect(outcome.Status).To(Equal(StatusRejected))
			Expect(outcome.Err).To(MatchError(ErrSticker))
			Expect(recognizer.calls).To(Equal(0))
		})
	})

	When("the image is too small", func() {
		BeforeEach(func() {
			candidate.Data = bytes.Repeat([]byte("x"), 120)
		})

		It("should reject it without running OCR", func() {
			Expect(outcome.Status).To(Equal(StatusRejected))
			Expect(outcome.Err).To(MatchError(ErrTooSmall))
			Expect(recognizer.calls).To(Equal(0))
		})
	})

	When("the attachment is a GIF", func() {
		BeforeEach(func() {
			candidate.MediaType = "image/gif"
		})

		It("should reject it", func() {
			Expect(outcome.Status).To(Equal(StatusRejected))
			Expect(outcome.Err).To(MatchError(ErrMediaType))
		})
	})

	When("the OCR engine fails", func() {
		BeforeEach(func() {
			recognizer.err = errors.New("engine crashed")
		})

		It("should report a failure", func() {
			Expect(outcome.Status).To(Equal(StatusFailed))
			Expect(outcome.Err).To(MatchError(ContainSubstring("engine crashed")))
		})

		It("should still remove the scratch file", func() {
			Expect(storage.files).To(BeEmpty())
			Expect(storage.deleted).To(HaveLen(1))
		})
	})

	When("the scratch file cannot be written", func() {
		BeforeEach(func() {
			storage.saveErr = errors.New("disk full")
		})

		It("should report a failure without running OCR", func() {
			Expect(outcome.Status).To(Equal(StatusFailed))
			Expect(recognizer.calls).To(Equal(0))
		})
	})

	When("the recognized text is not a receipt", func() {
		BeforeEach(func() {
			recognizer.text = "foto do almoço"
		})

		It("should report not_receipt", func() {
			Expect(outcome.Status).To(Equal(StatusNotReceipt))
		})
	})

	When("the receipt has no amount", func() {
		BeforeEach(func() {
			recognizer.text = "Comprovante de pagamento Pix"
		})

		It("should report no_amount", func() {
			Expect(outcome.Status).To(Equal(StatusNoAmount))
		})
	})

	When("the declared type is PNG", func() {
		BeforeEach(func() {
			candidate.MediaType = "image/png"
		})

		It("should keep the PNG extension", func() {
			Expect(recognizer.lastPath).To(Equal("/scratch/comprovante_test.png"))
		})
	})
})
