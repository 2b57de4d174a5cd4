package routes

import (
	"net/http"
	"time"

	"Recurra/internal/contracts"
	"Recurra/internal/domain/recurring"
	appErrors "Recurra/internal/errors"
	"Recurra/internal/pkg"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateRecurring(c *gin.Context) {
	var body contracts.RecurringCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, h.bindError(err))
		return
	}

	startDate, err := pkg.ParseDate(body.StartDate)
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("start_date", "formato inválido"))
		return
	}

	endDate, err := parseOptionalDate("end_date", body.EndDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	req := &recurring.CreateRecurringRequest{
		Name:      body.Name,
		Category:  body.Category,
		Amount:    body.Amount,
		Frequency: recurring.FrequencyType(body.Frequency),
		Params: recurring.FrequencyParams{
			DaysOfWeek:  body.DaysOfWeek,
			DayOfMonth:  body.DayOfMonth,
			MonthOfYear: body.MonthOfYear,
		},
		StartDate: startDate,
		EndDate:   endDate,
	}

	rec, err := h.RecurringService.CreateRecurring(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contracts.RecurringCreateResponse{
		Message:   "Despesa recorrente criada com sucesso",
		Recurring: rec,
	})
}

func (h *Handler) ListRecurrings(c *gin.Context) {
	pagination := h.parsePagination(c)

	items, total, err := h.RecurringService.ListRecurring(c.Request.Context(), pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pkg.NewPaginatedResponse(items, pagination.Page, pagination.Limit, total))
}

func (h *Handler) GetRecurring(c *gin.Context) {
	recurringID, err := h.parseID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	rec, err := h.RecurringService.GetRecurringByID(c.Request.Context(), recurringID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.RecurringResponse{Recurring: rec})
}

func (h *Handler) UpdateRecurring(c *gin.Context) {
	recurringID, err := h.parseID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body contracts.RecurringUpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, h.bindError(err))
		return
	}

	endDate, err := parseOptionalDate("end_date", body.EndDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	req := &recurring.UpdateRecurringRequest{
		Name:         body.Name,
		Category:     body.Category,
		Amount:       body.Amount,
		EndDate:      endDate,
		ClearEndDate: body.ClearEndDate,
	}
	if body.Frequency != nil {
		frequency := recurring.FrequencyType(*body.Frequency)
		req.Frequency = &frequency
	}
	if body.HasFrequencyParams() {
		params := recurring.FrequencyParams{DaysOfWeek: body.DaysOfWeek}
		if body.DayOfMonth != nil {
			params.DayOfMonth = *body.DayOfMonth
		}
		if body.MonthOfYear != nil {
			params.MonthOfYear = *body.MonthOfYear
		}
		req.Params = &params
	}

	rec, err := h.RecurringService.UpdateRecurring(c.Request.Context(), recurringID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.RecurringResponse{Recurring: rec})
}

func (h *Handler) DeleteRecurring(c *gin.Context) {
	recurringID, err := h.parseID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.RecurringService.DeleteRecurring(c.Request.Context(), recurringID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Despesa recorrente removida com sucesso"})
}

func (h *Handler) PauseRecurring(c *gin.Context) {
	recurringID, err := h.parseID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	rec, err := h.RecurringService.PauseRecurring(c.Request.Context(), recurringID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.RecurringResponse{Recurring: rec})
}

func (h *Handler) ResumeRecurring(c *gin.Context) {
	recurringID, err := h.parseID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	rec, err := h.RecurringService.ResumeRecurring(c.Request.Context(), recurringID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.RecurringResponse{Recurring: rec})
}

func (h *Handler) ListGenerationLogs(c *gin.Context) {
	recurringID, err := h.parseID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	pagination := h.parsePagination(c)
	entries, total, err := h.RecurringService.History(c.Request.Context(), recurringID, pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pkg.NewPaginatedResponse(entries, pagination.Page, pagination.Limit, total))
}

func (h *Handler) ListGeneratedTransactions(c *gin.Context) {
	recurringID, err := h.parseID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	pagination := h.parsePagination(c)
	items, total, err := h.RecurringService.GeneratedTransactions(c.Request.Context(), recurringID, pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pkg.NewPaginatedResponse(items, pagination.Page, pagination.Limit, total))
}

func (h *Handler) UpcomingRecurrings(c *gin.Context) {
	days, err := pkg.ParseInt(c.DefaultQuery("days", "30"))
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("days", "deve ser um número inteiro"))
		return
	}

	items, err := h.RecurringService.Upcoming(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.RecurringUpcomingResponse{Days: days, Occurrences: items})
}

// GenerateRecurrings dispara uma execução sob demanda. Sem date, usa o dia corrente
// e responde apenas a contagem; com date, reprocessa um dia passado e devolve o resumo.
func (h *Handler) GenerateRecurrings(c *gin.Context) {
	var body contracts.RecurringGenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			h.respondError(c, h.bindError(err))
			return
		}
	}

	ctx := c.Request.Context()
	if body.Date == nil {
		count, err := h.Generator.Generate(ctx, body.IncludeOverdue)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, contracts.RecurringGenerateResponse{Count: count})
		return
	}

	date, err := pkg.ParseDate(*body.Date)
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("date", "formato inválido"))
		return
	}
	if date.After(h.Generator.Today()) {
		h.respondError(c, appErrors.NewValidationError("date", "não é possível gerar para datas futuras"))
		return
	}

	result, err := h.Generator.Run(ctx, date, body.IncludeOverdue)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts.RecurringGenerateResponse{Count: result.Generated, Result: &result})
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := pkg.ParseDate(*value)
	if err != nil {
		return nil, appErrors.NewValidationError(field, "formato inválido")
	}
	return &parsed, nil
}
