package infrastructure

import (
	"time"

	"Recurra/internal/domain/transaction"
	"Recurra/internal/pkg"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

type transactionDB struct {
	Id                 string          `gorm:"type:varchar(26);primaryKey;column:id"`
	Type               string          `gorm:"type:varchar(10);not null;column:type"`
	Amount             decimal.Decimal `gorm:"type:decimal(15,2);not null;column:amount"`
	Category           string          `gorm:"type:varchar(100);not null;index;column:category"`
	Note               string          `gorm:"size:255;column:note"`
	Date               time.Time       `gorm:"type:date;not null;index;column:date"`
	RecurringExpenseId *string         `gorm:"type:varchar(26);index;column:recurring_expense_id"`
	CreatedAt          time.Time       `gorm:"not null;column:created_at"`
	UpdatedAt          time.Time       `gorm:"not null;column:updated_at"`
}

func (transactionDB) TableName() string {
	return "transactions"
}

func toDomainTransaction(tdb *transactionDB) (*transaction.Transaction, error) {
	id, err := pkg.ParseULID(tdb.Id)
	if err != nil {
		return nil, err
	}

	var recurringID *ulid.ULID
	if tdb.RecurringExpenseId != nil && *tdb.RecurringExpenseId != "" {
		parsed, err := pkg.ParseULID(*tdb.RecurringExpenseId)
		if err != nil {
			return nil, err
		}
		recurringID = &parsed
	}

	return &transaction.Transaction{
		Id:                 id,
		Type:               transaction.Types(tdb.Type),
		Amount:             tdb.Amount,
		Category:           tdb.Category,
		Note:               tdb.Note,
		Date:               pkg.DateOf(tdb.Date),
		RecurringExpenseId: recurringID,
		CreatedAt:          tdb.CreatedAt,
		UpdatedAt:          tdb.UpdatedAt,
	}, nil
}

func toDBTransaction(tx *transaction.Transaction) *transactionDB {
	now := time.Now()
	createdAt, updatedAt := tx.CreatedAt, tx.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return &transactionDB{
		Id:                 tx.Id.String(),
		Type:               string(tx.Type),
		Amount:             tx.Amount,
		Category:           tx.Category,
		Note:               tx.Note,
		Date:               pkg.DateOf(tx.Date),
		RecurringExpenseId: ulidStringOrNil(tx.RecurringExpenseId),
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}
}
