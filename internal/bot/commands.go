package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Arturleone/wa-financas/internal/chat"
	"github.com/Arturleone/wa-financas/internal/command"
	"github.com/Arturleone/wa-financas/internal/finance"
)

func (h *Handler) handleText(ctx context.Context, msg chat.Message, text, author string) {
	cmd, ok, err := command.Parse(text)
	if !ok {
		slog.Debug("Message ignored", "message_id", msg.ID)
		return
	}

	var usage *command.UsageError
	if errors.As(err, &usage) {
		h.deps.Metrics.command(string(cmd.Name), resultUsage)
		h.reply(ctx, msg, "❌ Exemplo: "+usage.Example)
		return
	}

	slog.Info("Command received", "message_id", msg.ID, "command", cmd.Name, "author", author)

	result := resultOK
	switch cmd.Name {
	case command.Balance:
		result = h.balance(ctx, msg)
	case command.List:
		result = h.list(ctx, msg)
	case command.Expense:
		result = h.record(ctx, msg, finance.KindExpense, cmd, author)
	case command.Income:
		result = h.record(ctx, msg, finance.KindIncome, cmd, author)
	case command.Remove:
		result = h.remove(ctx, msg, cmd.ID)
	case command.Edit:
		result = h.edit(ctx, msg, cmd)
	case command.Export:
		result = h.export(ctx, msg)
	}
	h.deps.Metrics.command(string(cmd.Name), result)
}

func (h *Handler) balance(ctx context.Context, msg chat.Message) string {
	balance, err := h.deps.Backend.Balance(ctx)
	if err != nil {
		slog.Error("Failed to fetch balance", "error", err)
		h.deps.Metrics.backendCall("balance", resultError)
		h.reply(ctx, msg, "❌ Não consegui buscar o saldo agora.")
		return resultError
	}
	h.deps.Metrics.backendCall("balance", resultOK)
	h.reply(ctx, msg, "💰 Saldo atual: "+h.format(balance))
	return resultOK
}

func (h *Handler) list(ctx context.Context, msg chat.Message) string {
	records, err := h.deps.Backend.List(ctx)
	if err != nil {
		slog.Error("Failed to list records", "error", err)
		h.deps.Metrics.backendCall("list", resultError)
		h.reply(ctx, msg, "❌ Não consegui listar agora.")
		return resultError
	}
	h.deps.Metrics.backendCall("list", resultOK)

	if len(records) == 0 {
		h.reply(ctx, msg, "📭 Nenhum lançamento encontrado.")
		return resultOK
	}

	if len(records) > listLimit {
		records = records[:listLimit]
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%s | %s | %s | %s", r.ID, r.Type, h.format(r.Amount), r.Label))
	}
	h.reply(ctx, msg, "🧾 Últimos lançamentos:\n"+strings.Join(lines, "\n"))
	return resultOK
}

func (h *Handler) record(ctx context.Context, msg chat.Message, kind finance.Kind, cmd command.Command, author string) string {
	event := finance.Event{
		Kind:      kind,
		Amount:    cmd.Amount,
		Label:     cmd.Label,
		Timestamp: h.clock.Now(),
		Author:    author,
		Source:    msg.From,
	}
	if !h.insert(ctx, msg, event) {
		return resultError
	}
	return resultOK
}

func (h *Handler) remove(ctx context.Context, msg chat.Message, id int64) string {
	ok, err := h.deps.Backend.Remove(ctx, id)
	if err != nil {
		slog.Error("Failed to remove record", "id", id, "error", err)
		h.deps.Metrics.backendCall("remove", resultError)
		h.reply(ctx, msg, "❌ Erro ao remover registro.")
		return resultError
	}
	if !ok {
		h.deps.Metrics.backendCall("remove", resultRejected)
		h.reply(ctx, msg, fmt.Sprintf("❌ Erro ao remover ID %d.", id))
		return resultRejected
	}
	h.deps.Metrics.backendCall("remove", resultOK)
	h.reply(ctx, msg, fmt.Sprintf("🗑️ Registro %d removido com sucesso.", id))
	return resultOK
}

func (h *Handler) edit(ctx context.Context, msg chat.Message, cmd command.Command) string {
	ok, err := h.deps.Backend.Edit(ctx, cmd.ID, cmd.Amount, cmd.Label)
	if err != nil {
		slog.Error("Failed to edit record", "id", cmd.ID, "error", err)
		h.deps.Metrics.backendCall("edit", resultError)
		h.reply(ctx, msg, "❌ Erro ao editar registro.")
		return resultError
	}
	if !ok {
		h.deps.Metrics.backendCall("edit", resultRejected)
		h.reply(ctx, msg, fmt.Sprintf("❌ Erro ao editar ID %d.", cmd.ID))
		return resultRejected
	}
	h.deps.Metrics.backendCall("edit", resultOK)
	h.reply(ctx, msg, fmt.Sprintf("✏️ Registro %d atualizado com sucesso.", cmd.ID))
	return resultOK
}

// export sends the full record list as a CSV attachment. The file is
// deleted after the cleanup delay so the bridge can finish reading it.
func (h *Handler) export(ctx context.Context, msg chat.Message) string {
	records, err := h.deps.Backend.List(ctx)
	if err != nil {
		slog.Error("Failed to list records for export", "error", err)
		h.deps.Metrics.backendCall("list", resultError)
		h.reply(ctx, msg, "❌ Erro ao exportar dados. Verifique se o servidor financeiro está rodando.")
		return resultError
	}
	h.deps.Metrics.backendCall("list", resultOK)

	if len(records) == 0 {
		h.reply(ctx, msg, "📭 Nenhum registro encontrado para exportar.")
		return resultOK
	}

	var buf bytes.Buffer
	if err := finance.WriteCSV(&buf, records, h.cfg.CSVLayout); err != nil {
		slog.Error("Failed to write export", "error", err)
		h.reply(ctx, msg, "❌ Erro ao exportar dados.")
		return resultError
	}

	name := fmt.Sprintf("registros_financeiros_%d.csv", h.clock.Now().Unix())
	path, err := h.deps.Files.Save(name, buf.Bytes())
	if err != nil {
		slog.Error("Failed to save export", "error", err)
		h.reply(ctx, msg, "❌ Erro ao exportar dados.")
		return resultError
	}
	slog.Info("Exporting records", "count", len(records), "path", path)

	h.timer.AfterFunc(h.cfg.ExportCleanupDelay, func() {
		if err := h.deps.Files.Delete(path); err != nil {
			slog.Warn("Failed to delete export", "path", path, "error", err)
			return
		}
		slog.Debug("Export removed", "path", path)
	})

	caption := fmt.Sprintf("📊 Exportação financeira - %d registros", len(records))
	if err := h.deps.Session.ReplyFile(ctx, msg, path, caption); err != nil {
		slog.Error("Failed to send export", "error", err)
		h.reply(ctx, msg, "❌ Erro ao enviar o arquivo de exportação.")
		return resultError
	}
	return resultOK
}
