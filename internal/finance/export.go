package finance

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// CSVLayout describes the localized shape of an export file
type CSVLayout struct {
	Header  []string
	Income  string
	Expense string
}

var PortugueseCSV = CSVLayout{
	Header:  []string{"ID", "Data", "Tipo", "Valor", "Descrição", "Autor"},
	Income:  "Entrada",
	Expense: "Saída",
}

var EnglishCSV = CSVLayout{
	Header:  []string{"ID", "Date", "Type", "Amount", "Label", "Author"},
	Income:  "Income",
	Expense: "Expense",
}

// CSVLayoutFor resolves a locale tag such as "pt-BR" or "en"
func CSVLayoutFor(locale string) (CSVLayout, error) {
	switch strings.ToLower(locale) {
	case "pt", "pt-br", "pt_br":
		return PortugueseCSV, nil
	case "en", "en-us", "en_us":
		return EnglishCSV, nil
	}
	return CSVLayout{}, fmt.Errorf("unsupported locale %q", locale)
}

// WriteCSV writes records as semicolon separated values. Amounts use a comma
// decimal separator and the label and author columns are always quoted.
func WriteCSV(w io.Writer, records []Record, layout CSVLayout) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(layout.Header, ";") + "\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range records {
		kind := layout.Expense
		if r.Kind() == KindIncome {
			kind = layout.Income
		}
		fields := []string{
			r.ID,
			exportDate(r),
			kind,
			strings.Replace(r.Amount.StringFixed(2), ".", ",", 1),
			quote(r.Label),
			quote(r.Author),
		}
		if _, err := bw.WriteString(strings.Join(fields, ";") + "\n"); err != nil {
			return fmt.Errorf("writing record %s: %w", r.ID, err)
		}
	}

	return bw.Flush()
}

func exportDate(r Record) string {
	if r.Date.IsZero() {
		return r.RawDate
	}
	return r.Date.In(time.Local).Format("02/01/2006")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
