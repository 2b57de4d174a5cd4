package recurring_test

import (
	"testing"
	"time"

	"Recurra/internal/domain/recurring"
	"Recurra/internal/domain/transaction"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

func TestMaterialize(t *testing.T) {
	t.Parallel()

	def := &recurring.RecurringExpense{
		Id:       ulid.Make(),
		Name:     "  Aluguel ",
		Category: "Moradia",
		Amount:   decimal.RequireFromString("1500.00"),
	}

	tx := recurring.Materialize(def, time.Date(2026, time.April, 15, 9, 0, 0, 0, time.UTC))

	if tx.Type != transaction.TypeExpense {
		t.Fatalf("expected expense, got %s", tx.Type)
	}
	if !tx.Amount.Equal(def.Amount) {
		t.Fatalf("expected amount %s, got %s", def.Amount, tx.Amount)
	}
	if tx.Category != "Moradia" {
		t.Fatalf("expected category Moradia, got %s", tx.Category)
	}
	if tx.Note != "Aluguel (recorrente)" {
		t.Fatalf("unexpected note %q", tx.Note)
	}
	if !tx.Date.Equal(date(2026, time.April, 15)) {
		t.Fatalf("expected date-only value, got %s", tx.Date)
	}
	if tx.RecurringExpenseId == nil || *tx.RecurringExpenseId != def.Id {
		t.Fatalf("expected back-reference to definition")
	}
	if tx.Id.Compare(ulid.ULID{}) != 0 {
		t.Fatalf("expected id to be left for the repository")
	}

	// Alterar a definição depois não altera o lançamento já montado.
	def.Id = ulid.Make()
	if *tx.RecurringExpenseId == def.Id {
		t.Fatalf("transaction must not alias the definition id")
	}
}
