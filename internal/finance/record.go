package finance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of a financial event
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Wire returns the value the backend stores for the kind
func (k Kind) Wire() string {
	if k == KindIncome {
		return "ganho"
	}
	return "gasto"
}

// KindFromWire maps a stored type back to a Kind. Anything that is not
// income is treated as an expense.
func KindFromWire(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ganho", "income", "entrada":
		return KindIncome
	}
	return KindExpense
}

// Event is one entry sent to the backend
type Event struct {
	Kind      Kind
	Amount    decimal.Decimal
	Label     string
	Timestamp time.Time
	Author    string
	Source    string
}

// timestampLayout matches JavaScript's Date.toISOString
const timestampLayout = "2006-01-02T15:04:05.000Z"

type insertRequest struct {
	Type      string      `json:"tipo"`
	Amount    json.Number `json:"valor"`
	Label     string      `json:"descricao"`
	Timestamp string      `json:"data"`
	Author    string      `json:"autor"`
	Source    string      `json:"wa_from"`
}

func newInsertRequest(e Event) insertRequest {
	return insertRequest{
		Type:      e.Kind.Wire(),
		Amount:    amountNumber(e.Amount),
		Label:     e.Label,
		Timestamp: e.Timestamp.UTC().Format(timestampLayout),
		Author:    e.Author,
		Source:    e.Source,
	}
}

func amountNumber(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// Record is one entry returned by the backend list endpoint
type Record struct {
	ID     string
	Type   string
	Amount decimal.Decimal
	Label  string
	Date   time.Time
	// RawDate keeps the stored value when it is not a recognizable timestamp
	RawDate string
	Author  string
}

// Kind reports whether the record is income or expense
func (r Record) Kind() Kind {
	return KindFromWire(r.Type)
}

type recordWire struct {
	ID     json.RawMessage `json:"id"`
	Type   string          `json:"tipo"`
	Amount json.RawMessage `json:"valor"`
	Label  string          `json:"descricao"`
	Date   string          `json:"data"`
	Author string          `json:"autor"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	timestampLayout,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts ids and amounts both as JSON numbers and strings
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	amount, err := looseDecimal(w.Amount)
	if err != nil {
		return fmt.Errorf("parsing amount of record %s: %w", scalar(w.ID), err)
	}

	*r = Record{
		ID:      scalar(w.ID),
		Type:    w.Type,
		Amount:  amount,
		Label:   w.Label,
		RawDate: w.Date,
		Author:  w.Author,
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, w.Date); err == nil {
			r.Date = t
			break
		}
	}
	return nil
}

// scalar renders a JSON string or number as plain text
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// looseDecimal parses a number that may arrive quoted, null or with a comma decimal
func looseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(scalar(raw))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.Replace(s, ",", ".", 1))
}
