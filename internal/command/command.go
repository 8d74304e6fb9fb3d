// Package command parses the slash commands typed in the finance group.
package command

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Name identifies a command independently of the alias used to type it
type Name string

const (
	Balance Name = "balance"
	List    Name = "list"
	Expense Name = "expense"
	Income  Name = "income"
	Remove  Name = "remove"
	Edit    Name = "edit"
	Export  Name = "export"
)

const (
	// DefaultLabel is used when an expense or edit carries no label
	DefaultLabel = "(sem descrição)"
	// IncomeLabel is the fixed label of /income entries
	IncomeLabel = "(entrada)"
)

// ErrUsage is wrapped by every argument error
var ErrUsage = errors.New("invalid command arguments")

// UsageError carries an example of the correct syntax for the command
type UsageError struct {
	Name    Name
	Example string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: expected %s", e.Name, e.Example)
}

func (e *UsageError) Unwrap() error {
	return ErrUsage
}

// Command is a parsed text command
type Command struct {
	Name   Name
	Alias  string
	Amount decimal.Decimal
	Label  string
	ID     int64
}

type alias struct {
	prefix  string
	name    Name
	example string
}

var aliases = []alias{
	{"/balance", Balance, "/balance"},
	{"/saldo", Balance, "/saldo"},
	{"/list", List, "/list"},
	{"/listar", List, "/listar"},
	{"/expense", Expense, "/expense 10 lunch"},
	{"/saiu", Expense, "/saiu 10 almoço"},
	{"/income", Income, "/income 25"},
	{"/entrou", Income, "/entrou 25"},
	{"/remove", Remove, "/remove 5"},
	{"/remover", Remove, "/remover 5"},
	{"/edit", Edit, "/edit 5 20 snack"},
	{"/editar", Edit, "/editar 5 20 lanche"},
	{"/export", Export, "/export"},
	{"/exportar", Export, "/exportar"},
}

func init() {
	// longest prefix first so "/editar" is not taken for "/edit"
	sort.SliceStable(aliases, func(i, j int) bool {
		return len(aliases[i].prefix) > len(aliases[j].prefix)
	})
}

// Parse recognizes a command by case-insensitive prefix. It returns false
// when text is not a command. Argument problems come back as *UsageError
// together with the recognized name.
func Parse(text string) (Command, bool, error) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	var match *alias
	for i := range aliases {
		if strings.HasPrefix(lower, aliases[i].prefix) {
			match = &aliases[i]
			break
		}
	}
	if match == nil {
		return Command{}, false, nil
	}

	cmd := Command{Name: match.name, Alias: match.prefix}
	usage := &UsageError{Name: match.name, Example: match.example}
	args := strings.Fields(text)[1:]

	switch match.name {
	case Expense:
		amount, ok := parseAmount(args, 0)
		if !ok {
			return cmd, true, usage
		}
		cmd.Amount = amount
		cmd.Label = labelFrom(args, 1)

	case Income:
		amount, ok := parseAmount(args, 0)
		if !ok {
			return cmd, true, usage
		}
		cmd.Amount = amount
		cmd.Label = IncomeLabel

	case Remove:
		id, ok := parseID(args, 0)
		if !ok {
			return cmd, true, usage
		}
		cmd.ID = id

	case Edit:
		id, ok := parseID(args, 0)
		if !ok {
			return cmd, true, usage
		}
		amount, ok := parseAmount(args, 1)
		if !ok {
			return cmd, true, usage
		}
		cmd.ID = id
		cmd.Amount = amount
		cmd.Label = labelFrom(args, 2)
	}

	return cmd, true, nil
}

// parseAmount reads a positive amount written with a comma or a period
func parseAmount(args []string, i int) (decimal.Decimal, bool) {
	if i >= len(args) {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(strings.Replace(args[i], ",", ".", 1))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

func parseID(args []string, i int) (int64, bool) {
	if i >= len(args) {
		return 0, false
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func labelFrom(args []string, i int) string {
	if i >= len(args) {
		return DefaultLabel
	}
	return strings.Join(args[i:], " ")
}
