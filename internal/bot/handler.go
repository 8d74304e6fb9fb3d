// Package bot reacts to messages in the finance group: it runs text commands
// against the finance backend and turns photographed receipts into entries.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Arturleone/wa-financas/internal/chat"
	"github.com/Arturleone/wa-financas/internal/finance"
	"github.com/Arturleone/wa-financas/internal/receipt"
)

// ReceiptKind decides how classified receipts are booked
type ReceiptKind string

const (
	// ReceiptAlwaysIncome books every receipt as income
	ReceiptAlwaysIncome ReceiptKind = "income"
	// ReceiptByDirection books outgoing transfers as expenses
	ReceiptByDirection ReceiptKind = "direction"
)

// ParseReceiptKind validates a receipt kind name
func ParseReceiptKind(s string) (ReceiptKind, error) {
	switch ReceiptKind(strings.ToLower(s)) {
	case "", ReceiptAlwaysIncome:
		return ReceiptAlwaysIncome, nil
	case ReceiptByDirection:
		return ReceiptByDirection, nil
	}
	return "", fmt.Errorf("unsupported receipt kind %q", s)
}

const (
	defaultCurrency     = "BRL"
	defaultCleanupDelay = 10 * time.Second
	unknownAuthor       = "Desconhecido"
	listLimit           = 10
)

// status markers the bot starts its own replies with
var echoMarkers = []string{"✅", "❌", "🔍"}

// Backend is the finance backend as seen by the handler
type Backend interface {
	Insert(ctx context.Context, event finance.Event) error
	Balance(ctx context.Context) (decimal.Decimal, error)
	List(ctx context.Context) ([]finance.Record, error)
	Remove(ctx context.Context, id int64) (bool, error)
	Edit(ctx context.Context, id int64, amount decimal.Decimal, label string) (bool, error)
}

// Receipts runs the receipt pipeline
type Receipts interface {
	Process(ctx context.Context, c receipt.Candidate) receipt.Outcome
}

// Files stores export files until they are sent
type Files interface {
	Save(filename string, data []byte) (string, error)
	Delete(path string) error
}

// Ledger remembers which messages were already handled
type Ledger interface {
	MarkSeen(messageID, chatID string) (bool, error)
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// Timer schedules delayed work
type Timer interface {
	AfterFunc(d time.Duration, f func())
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

type defaultTimer struct{}

func (defaultTimer) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// Config holds the handler settings fixed at startup
type Config struct {
	Group              string
	ReceiptKind        ReceiptKind
	Currency           string
	ExportCleanupDelay time.Duration
	CSVLayout          finance.CSVLayout
}

// Dependencies are the collaborators of a Handler. Ledger and Metrics may be nil.
type Dependencies struct {
	Session  chat.Session
	Backend  Backend
	Receipts Receipts
	Files    Files
	Ledger   Ledger
	Metrics  *Metrics
}

// Handler implements chat.Handler for the finance group
type Handler struct {
	cfg   Config
	deps  Dependencies
	clock TimeSource
	timer Timer
}

// NewHandler creates a new Handler with the default clock and timer
func NewHandler(cfg Config, deps Dependencies) *Handler {
	return NewHandlerWithDeps(cfg, deps, defaultTimeSource{}, defaultTimer{})
}

// NewHandlerWithDeps creates a new Handler with custom dependencies for testing
func NewHandlerWithDeps(cfg Config, deps Dependencies, clock TimeSource, timer Timer) *Handler {
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.ExportCleanupDelay <= 0 {
		cfg.ExportCleanupDelay = defaultCleanupDelay
	}
	if cfg.CSVLayout.Header == nil {
		cfg.CSVLayout = finance.PortugueseCSV
	}
	if cfg.ReceiptKind == "" {
		cfg.ReceiptKind = ReceiptAlwaysIncome
	}
	return &Handler{cfg: cfg, deps: deps, clock: clock, timer: timer}
}

// HandleMessage processes one chat event to completion
func (h *Handler) HandleMessage(ctx context.Context, msg chat.Message) {
	if !h.relevant(msg) {
		return
	}

	if h.deps.Ledger != nil {
		fresh, err := h.deps.Ledger.MarkSeen(msg.ID, msg.ChatID())
		if err != nil {
			slog.Warn("Failed to record delivery", "message_id", msg.ID, "error", err)
		} else if !fresh {
			slog.Debug("Duplicate message ignored", "message_id", msg.ID)
			return
		}
	}

	author := resolveAuthor(msg)

	if msg.HasMedia {
		slog.Info("Media received", "message_id", msg.ID, "author", author, "type", msg.Type)
		h.handleMedia(ctx, msg, author)
		return
	}

	text := strings.TrimSpace(msg.Body)
	if text == "" || isEcho(text) {
		return
	}
	slog.Debug("Message received", "message_id", msg.ID, "author", author, "from_me", msg.FromMe, "body", text)

	h.handleText(ctx, msg, text, author)
}

// relevant accepts other members' messages in the group and the operator's
// own messages sent to it
func (h *Handler) relevant(msg chat.Message) bool {
	if msg.FromMe {
		return msg.To == h.cfg.Group
	}
	return msg.From == h.cfg.Group
}

func resolveAuthor(msg chat.Message) string {
	switch {
	case msg.NotifyName != "":
		return msg.NotifyName
	case msg.Author != "":
		return msg.Author
	}
	return unknownAuthor
}

func isEcho(text string) bool {
	for _, marker := range echoMarkers {
		if strings.HasPrefix(text, marker) {
			return true
		}
	}
	return false
}

// handleMedia runs the receipt pipeline and books a classified receipt.
// Only an unreadable amount and the booking result reach the chat.
func (h *Handler) handleMedia(ctx context.Context, msg chat.Message, author string) {
	download, err := h.deps.Session.DownloadMedia(ctx, msg)
	if err != nil {
		slog.Error("Failed to download media", "message_id", msg.ID, "error", err)
		h.deps.Metrics.receipt(string(receipt.StatusFailed))
		return
	}

	candidate := receipt.Candidate{MessageID: msg.ID, Kind: messageKind(msg.Type)}
	if download != nil {
		candidate.MediaType = download.MimeType
		candidate.Data = download.Data
	}

	outcome := h.deps.Receipts.Process(ctx, candidate)
	h.deps.Metrics.receipt(string(outcome.Status))

	switch outcome.Status {
	case receipt.StatusNoAmount:
		h.reply(ctx, msg, "❌ Comprovante detectado, mas não consegui identificar o valor")

	case receipt.StatusClassified:
		kind := h.receiptKind(outcome)
		event := finance.Event{
			Kind:      kind,
			Amount:    outcome.Amount,
			Label:     outcome.Label,
			Timestamp: h.clock.Now(),
			Author:    author,
			Source:    msg.From,
		}
		if !h.insert(ctx, msg, event) {
			return
		}
		h.reply(ctx, msg, fmt.Sprintf("✅ Comprovante processado automaticamente!\n💵 Valor: %s\n📊 Tipo: %s\n📝: %s",
			h.format(outcome.Amount), h.kindName(kind), outcome.Label))
	}
}

func (h *Handler) receiptKind(outcome receipt.Outcome) finance.Kind {
	if h.cfg.ReceiptKind == ReceiptByDirection && outcome.Direction == receipt.DirectionSent {
		return finance.KindExpense
	}
	return finance.KindIncome
}

func messageKind(t chat.MessageType) receipt.MessageKind {
	switch t {
	case chat.TypeSticker:
		return receipt.KindSticker
	case chat.TypeDocument:
		return receipt.KindDocument
	}
	return receipt.KindImage
}

// insert books event and confirms it in the chat. It reports whether the
// backend accepted the event.
func (h *Handler) insert(ctx context.Context, msg chat.Message, event finance.Event) bool {
	err := h.deps.Backend.Insert(ctx, event)
	switch {
	case errors.Is(err, finance.ErrUnexpectedStatus):
		slog.Error("Backend rejected event", "message_id", msg.ID, "error", err)
		h.deps.Metrics.backendCall("insert", resultRejected)
		h.reply(ctx, msg, "❌ Erro ao enviar para o servidor financeiro!")
		return false
	case err != nil:
		slog.Error("Failed to reach backend", "message_id", msg.ID, "error", err)
		h.deps.Metrics.backendCall("insert", resultError)
		h.reply(ctx, msg, "❌ Falha ao conectar com o servidor financeiro.")
		return false
	}

	h.deps.Metrics.backendCall("insert", resultOK)
	slog.Info("Event recorded", "message_id", msg.ID, "kind", event.Kind, "amount", event.Amount.StringFixed(2))
	h.reply(ctx, msg, fmt.Sprintf("✅ %s de %s registrado: %s",
		strings.ToUpper(event.Kind.Wire()), h.format(event.Amount), event.Label))
	return true
}

func (h *Handler) reply(ctx context.Context, msg chat.Message, text string) {
	if err := h.deps.Session.Reply(ctx, msg, text); err != nil {
		slog.Error("Failed to send reply", "message_id", msg.ID, "error", err)
	}
}

func (h *Handler) format(d decimal.Decimal) string {
	return formatAmount(d, h.cfg.Currency)
}

func (h *Handler) kindName(k finance.Kind) string {
	if k == finance.KindIncome {
		return h.cfg.CSVLayout.Income
	}
	return h.cfg.CSVLayout.Expense
}
