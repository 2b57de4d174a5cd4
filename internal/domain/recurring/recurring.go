package recurring

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

type RecurringExpense struct {
	Id              ulid.ULID       `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Amount          decimal.Decimal `json:"amount"`
	Frequency       FrequencyType   `json:"frequency"`
	FrequencyConfig FrequencyConfig `json:"frequencyConfig"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         *time.Time      `json:"endDate,omitempty"`
	IsActive        bool            `json:"isActive"`
	LastGenerated   *time.Time      `json:"lastGenerated,omitempty"`
	NextGenerate    *time.Time      `json:"nextGenerate,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// IsDueOn informa se a definição deve gerar em today. Com includeOverdue=false
// apenas o cursor igual a today conta; atrasados aguardam uma execução de recuperação.
func (r *RecurringExpense) IsDueOn(today time.Time, includeOverdue bool) bool {
	if !r.IsActive || r.NextGenerate == nil {
		return false
	}
	if includeOverdue {
		return !r.NextGenerate.After(today)
	}
	return r.NextGenerate.Equal(today)
}

func (r *RecurringExpense) PastEnd(date time.Time) bool {
	return r.EndDate != nil && date.After(*r.EndDate)
}

type ScheduleUpdate struct {
	LastGenerated *time.Time
	NextGenerate  *time.Time
	IsActive      bool
}

func (r *RecurringExpense) apply(update ScheduleUpdate) {
	if update.LastGenerated != nil {
		r.LastGenerated = update.LastGenerated
	}
	r.NextGenerate = update.NextGenerate
	r.IsActive = update.IsActive
}
