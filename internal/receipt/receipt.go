package receipt

import "github.com/shopspring/decimal"

// MessageKind is the attachment kind reported by the chat transport
type MessageKind string

const (
	KindImage    MessageKind = "image"
	KindSticker  MessageKind = "sticker"
	KindDocument MessageKind = "document"
)

// Candidate is one incoming media attachment that may be a payment receipt.
// It lives for the duration of a single message and is never persisted.
type Candidate struct {
	MessageID string
	MediaType string
	Data      []byte
	Kind      MessageKind
}

// ByteSize returns the size of the raw attachment payload
func (c Candidate) ByteSize() int {
	return len(c.Data)
}

// Status is the terminal state of one pass through the pipeline
type Status string

const (
	StatusRejected   Status = "rejected"
	StatusNotReceipt Status = "not_receipt"
	StatusNoAmount   Status = "no_amount"
	StatusClassified Status = "classified"
	StatusFailed     Status = "failed"
)

// Direction is the transfer direction inferred from the receipt wording
type Direction string

const (
	DirectionUnknown  Direction = "unknown"
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Outcome reports what the pipeline decided about a candidate.
// Amount, Label and Direction are only meaningful when Status is StatusClassified.
type Outcome struct {
	Status    Status
	Amount    decimal.Decimal
	Label     string
	Direction Direction
	Keywords  []string
	Err       error
}
