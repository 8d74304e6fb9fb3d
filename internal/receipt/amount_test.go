package receipt

import (
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Amount extraction", func() {
	var (
		cfg       Config
		extractor *Extractor
		text      string
		amount    decimal.Decimal
		found     bool
	)

	BeforeEach(func() {
		cfg = DefaultConfig()
	})

	JustBeforeEach(func() {
		extractor = NewExtractor(cfg)
		amount, found = extractor.Extract(text)
	})

	When("the amount follows the currency symbol", func() {
		BeforeEach(func() {
			text = "Valor: R$ 45,90"
		})

		It("should extract it", func() {
			Expect(found).To(BeTrue())
			Expect(amount.String()).To(Equal("45.9"))
		})
	})

	When("the amount uses thousands separators", func() {
		BeforeEach(func() {
			text = "Valor R$ 1.234,56"
		})

		It("should keep the whole number", func() {
			Expect(found).To(BeTrue())
			Expect(amount.Equal(decimal.RequireFromString("1234.56"))).To(BeTrue())
		})
	})

	When("OCR read zeros as the letter O", func() {
		BeforeEach(func() {
			text = "R$ O,O1"
		})

		It("should normalize before matching", func() {
			Expect(found).To(BeTrue())
			Expect(amount.Equal(decimal.RequireFromString("0.01"))).To(BeTrue())
		})
	})

	When("several amounts are in range", func() {
		BeforeEach(func() {
			text = "Tarifa R$ 10,00\nValor R$ 45,90"
		})

		It("should pick the smallest", func() {
			Expect(found).To(BeTrue())
			Expect(amount.Equal(decimal.RequireFromString("10.00"))).To(BeTrue())
		})
	})

	When("the only number is too large", func() {
		BeforeEach(func() {
			text = "Protocolo 1234567,00"
		})

		It("should find nothing", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("a large id sits next to the real amount", func() {
		BeforeEach(func() {
			text = "Valor R$ 45,90\nID 1.234.567,00"
		})

		It("should discard the id", func() {
			Expect(found).To(BeTrue())
			Expect(amount.Equal(decimal.RequireFromString("45.90"))).To(BeTrue())
		})
	})

	When("the only amount is zero", func() {
		BeforeEach(func() {
			text = "R$ 0,00"
		})

		It("should find nothing", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("the text has no amount at all", func() {
		BeforeEach(func() {
			text = "Comprovante Pix sem valor"
		})

		It("should find nothing", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("the contextual strategy is used", func() {
		BeforeEach(func() {
			cfg.Selector = ContextualAmount{}
			text = "Pix enviado\nR$ 23,75\nTarifa 1,50\n"
		})

		It("should prefer the amount near the transfer phrase", func() {
			Expect(found).To(BeTrue())
			Expect(amount.Equal(decimal.RequireFromString("23.75"))).To(BeTrue())
		})

		When("the smallest strategy is used on the same text", func() {
			BeforeEach(func() {
				cfg.Selector = SmallestAmount{}
			})

			It("should pick the fee", func() {
				Expect(amount.Equal(decimal.RequireFromString("1.50"))).To(BeTrue())
			})
		})
	})

	Describe("Candidates", func() {
		It("should tag matches near a transfer phrase", func() {
			matches := NewExtractor(DefaultConfig()).Candidates("Pix recebido R$ 23,75")
			sources := make([]Source, 0, len(matches))
			for _, m := range matches {
				sources = append(sources, m.Source)
			}
			Expect(sources).To(ContainElement(SourceDirection))
			Expect(sources).To(ContainElement(SourceCurrency))
		})

		It("should not match fragments of a longer digit run", func() {
			matches := NewExtractor(DefaultConfig()).Candidates("1234567,00")
			Expect(matches).To(BeEmpty())
		})
	})

	Describe("Normalize", func() {
		It("should replace lookalike letters with digits", func() {
			Expect(Normalize("R$ O,O1")).To(Equal("R$ 0,01"))
			Expect(Normalize("l2,S0")).To(Equal("12,50"))
		})
	})

	Describe("ParseAmount", func() {
		DescribeTable("parsing raw amounts",
			func(raw, expected string) {
				value, err := ParseAmount(raw)
				Expect(err).NotTo(HaveOccurred())
				Expect(value.Equal(decimal.RequireFromString(expected))).To(BeTrue())
			},
			Entry("comma decimal", "45,90", "45.90"),
			Entry("dot decimal", "45.90", "45.90"),
			Entry("dot thousands, comma decimal", "1.234,56", "1234.56"),
			Entry("comma thousands, dot decimal", "1,234.56", "1234.56"),
			Entry("no decimals", "1.234", "1234"),
			Entry("currency prefix", "R$ 10,00", "10.00"),
		)

		It("should fail without digits", func() {
			_, err := ParseAmount("R$")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("InRange", func() {
		It("should accept values between zero and one million", func() {
			Expect(InRange(decimal.RequireFromString("0.01"))).To(BeTrue())
			Expect(InRange(decimal.RequireFromString("999999.99"))).To(BeTrue())
		})

		It("should reject zero, negatives and one million or more", func() {
			Expect(InRange(decimal.Zero)).To(BeFalse())
			Expect(InRange(decimal.NewFromInt(-5))).To(BeFalse())
			Expect(InRange(decimal.NewFromInt(1_000_000))).To(BeFalse())
		})
	})
})
