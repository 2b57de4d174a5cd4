package contracts

import (
	"Recurra/internal/domain/recurring"

	"github.com/shopspring/decimal"
)

type RecurringCreateRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Category    string          `json:"category" binding:"required,max=100"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   string          `json:"frequency" binding:"required,oneof=DAILY WEEKLY MONTHLY YEARLY"`
	DaysOfWeek  []int           `json:"days_of_week" binding:"omitempty,dive,min=0,max=6"`
	DayOfMonth  int             `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	MonthOfYear int             `json:"month_of_year" binding:"omitempty,min=1,max=12"`
	StartDate   string          `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate     *string         `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

type RecurringUpdateRequest struct {
	Name         *string          `json:"name" binding:"omitempty,max=255"`
	Category     *string          `json:"category" binding:"omitempty,max=100"`
	Amount       *decimal.Decimal `json:"amount"`
	Frequency    *string          `json:"frequency" binding:"omitempty,oneof=DAILY WEEKLY MONTHLY YEARLY"`
	DaysOfWeek   []int            `json:"days_of_week" binding:"omitempty,dive,min=0,max=6"`
	DayOfMonth   *int             `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	MonthOfYear  *int             `json:"month_of_year" binding:"omitempty,min=1,max=12"`
	EndDate      *string          `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	ClearEndDate bool             `json:"clear_end_date"`
}

func (r *RecurringUpdateRequest) HasFrequencyParams() bool {
	return r.DaysOfWeek != nil || r.DayOfMonth != nil || r.MonthOfYear != nil
}

type RecurringGenerateRequest struct {
	IncludeOverdue bool    `json:"include_overdue"`
	Date           *string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

type RecurringGenerateResponse struct {
	Count  int                  `json:"count"`
	Result *recurring.RunResult `json:"result,omitempty"`
}

type RecurringResponse struct {
	Recurring *recurring.RecurringExpense `json:"recurring"`
}

type RecurringCreateResponse struct {
	Message   string                      `json:"message"`
	Recurring *recurring.RecurringExpense `json:"recurring"`
}

type RecurringUpcomingResponse struct {
	Days        int                            `json:"days"`
	Occurrences []recurring.UpcomingOccurrence `json:"occurrences"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
