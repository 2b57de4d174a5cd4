package transaction

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

type Types string

const (
	TypeExpense Types = "EXPENSE"
	TypeReceipt Types = "RECEIPT"
)

type Transaction struct {
	Id                 ulid.ULID       `gorm:"type:varchar(26);primaryKey" json:"id"`
	Type               Types           `gorm:"type:varchar(10);not null;index:idx_transactions_type" json:"type"`
	Amount             decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Category           string          `gorm:"type:varchar(100);not null;index:idx_transactions_category" json:"category"`
	Note               string          `gorm:"type:varchar(255)" json:"note"`
	Date               time.Time       `gorm:"type:date;not null;index:idx_transactions_date" json:"date"`
	RecurringExpenseId *ulid.ULID      `gorm:"type:varchar(26);index:idx_transactions_recurring_expense_id" json:"recurringExpenseId,omitempty"`
	CreatedAt          time.Time       `gorm:"autoCreateTime;not null" json:"createdAt"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime;not null" json:"updatedAt"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t Types) IsValid() bool {
	return t == TypeExpense || t == TypeReceipt
}
