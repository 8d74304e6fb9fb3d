package receipt

import (
	"fmt"
	"strings"
)

// DefaultMinImageBytes is the size below which an attachment is treated as a sticker
const DefaultMinImageBytes = 5000

// DefaultMinKeywords is how many distinct keywords make text look like a receipt
const DefaultMinKeywords = 2

// DefaultWhitelist restricts OCR output to characters that appear on receipts
const DefaultWhitelist = "0123456789R$abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ,.: /-"

// Config holds everything the pipeline needs at construction time
type Config struct {
	MinImageBytes   int
	AcceptDocuments bool
	MinKeywords     int
	CurrencySymbol  string
	Vocabulary      Vocabulary
	Selector        Selector
	Language        string
	Whitelist       string
}

// DefaultConfig returns the configuration for Brazilian Pix receipts
func DefaultConfig() Config {
	return Config{
		MinImageBytes:  DefaultMinImageBytes,
		MinKeywords:    DefaultMinKeywords,
		CurrencySymbol: "R$",
		Vocabulary:     Portuguese,
		Selector:       SmallestAmount{},
		Language:       "por",
		Whitelist:      DefaultWhitelist,
	}
}

// LabelRule maps a phrase found in the receipt text to a fixed label
type LabelRule struct {
	Phrase    string
	Label     string
	Direction Direction
}

// Vocabulary is the banking wording of one market
type Vocabulary struct {
	Keywords        []string
	SentPhrases     []string
	ReceivedPhrases []string
	Labels          []LabelRule
	Fallback        string
}

var Portuguese = Vocabulary{
	Keywords: []string{
		"comprovante", "transferência", "pix", "pagamento", "recebido",
		"valor", "realizado", "favorecido", "pagador", "banco",
		"data", "hora", "cpf", "cnpj", "autenticação", "código",
		// the default OCR whitelist has no accented letters
		"transferencia", "autenticacao", "codigo",
	},
	SentPhrases:     []string{"pix enviado"},
	ReceivedPhrases: []string{"pix recebido"},
	Labels: []LabelRule{
		{Phrase: "pix enviado", Label: "Pix enviado", Direction: DirectionSent},
		{Phrase: "pix recebido", Label: "Pix recebido", Direction: DirectionReceived},
		{Phrase: "transferência", Label: "Transferência", Direction: DirectionUnknown},
		{Phrase: "transferencia", Label: "Transferência", Direction: DirectionUnknown},
	},
	Fallback: "Comprovante automático",
}

var English = Vocabulary{
	Keywords: []string{
		"receipt", "transfer", "pix", "payment", "received",
		"value", "completed", "payee", "payer", "bank",
		"date", "time", "taxpayer id", "authentication", "code",
	},
	SentPhrases:     []string{"pix sent"},
	ReceivedPhrases: []string{"pix received"},
	Labels: []LabelRule{
		{Phrase: "pix sent", Label: "Pix sent", Direction: DirectionSent},
		{Phrase: "pix received", Label: "Pix received", Direction: DirectionReceived},
		{Phrase: "transfer", Label: "Transfer", Direction: DirectionUnknown},
	},
	Fallback: "Automatic receipt",
}

// VocabularyFor resolves a locale tag such as "pt-BR" or "en"
func VocabularyFor(locale string) (Vocabulary, error) {
	switch strings.ToLower(locale) {
	case "pt", "pt-br", "pt_br":
		return Portuguese, nil
	case "en", "en-us", "en_us":
		return English, nil
	}
	return Vocabulary{}, fmt.Errorf("unsupported locale %q", locale)
}

// SelectorFor resolves an amount strategy name
func SelectorFor(name string) (Selector, error) {
	switch strings.ToLower(name) {
	case "", "smallest":
		return SmallestAmount{}, nil
	case "context":
		return ContextualAmount{}, nil
	}
	return nil, fmt.Errorf("unsupported amount strategy %q", name)
}

// keywords returns the vocabulary keywords plus the currency symbol, lower-cased and distinct
func (c Config) keywords() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(c.Vocabulary.Keywords)+1)
	all := append(append([]string(nil), c.Vocabulary.Keywords...), c.CurrencySymbol)
	for _, k := range all {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
