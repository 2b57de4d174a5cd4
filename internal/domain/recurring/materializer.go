package recurring

import (
	"strings"
	"time"

	"Recurra/internal/domain/transaction"
	"Recurra/internal/pkg"
)

const recurringNoteSuffix = " (recorrente)"

// Materialize monta o lançamento de despesa correspondente a definição na data informada.
// Não grava nada; o Id fica vazio e é atribuído pelo repositório.
func Materialize(def *RecurringExpense, generationDate time.Time) *transaction.Transaction {
	id := def.Id
	return &transaction.Transaction{
		Type:               transaction.TypeExpense,
		Amount:             def.Amount,
		Category:           def.Category,
		Note:               strings.TrimSpace(def.Name) + recurringNoteSuffix,
		Date:               pkg.DateOf(generationDate),
		RecurringExpenseId: &id,
	}
}
